package zodiac

// Profile is the reference card for a sign, as shown on member badges and
// the zodiac profile pages.
type Profile struct {
	Sign         Sign      `json:"zodiacSign"`
	Symbol       string    `json:"symbol"`
	Display      string    `json:"display"`
	Element      Element   `json:"element"`
	ElementIcon  string    `json:"elementSymbol"`
	Modality     Modality  `json:"modality"`
	RulingPlanet string    `json:"rulingPlanet"`
	Dates        DateRange `json:"dates"`
	DateRange    string    `json:"dateRange"`
}

// ProfileOf assembles the reference card for s.
func ProfileOf(s Sign) Profile {
	info := signTable[s]
	return Profile{
		Sign:         s,
		Symbol:       info.symbol,
		Display:      s.Display(),
		Element:      info.element,
		ElementIcon:  info.element.Icon(),
		Modality:     info.modality,
		RulingPlanet: info.planet,
		Dates:        info.dates,
		DateRange:    info.dates.String(),
	}
}

// Profiles returns the reference cards of all signs in calendar order.
func Profiles() []Profile {
	out := make([]Profile, 0, len(signOrder))
	for _, s := range signOrder {
		out = append(out, ProfileOf(s))
	}
	return out
}
