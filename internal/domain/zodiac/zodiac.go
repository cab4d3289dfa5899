// Package zodiac holds the static sign reference tables and the classifier
// mapping a calendar date to its sign and element.
//
// Everything in this package is pure and read-only; the tables are built once
// at init and never mutated, so all functions are safe for concurrent use.
package zodiac

import (
	"fmt"
	"strings"
	"time"
)

// Sign is one of the twelve zodiac signs.
type Sign string

// Signs in calendar order, starting at the spring equinox.
const (
	Aries       Sign = "Aries"
	Taurus      Sign = "Taurus"
	Gemini      Sign = "Gemini"
	Cancer      Sign = "Cancer"
	Leo         Sign = "Leo"
	Virgo       Sign = "Virgo"
	Libra       Sign = "Libra"
	Scorpio     Sign = "Scorpio"
	Sagittarius Sign = "Sagittarius"
	Capricorn   Sign = "Capricorn"
	Aquarius    Sign = "Aquarius"
	Pisces      Sign = "Pisces"
)

// Element is one of the four classical elements. Every sign belongs to exactly one.
type Element string

// Elements in enumeration order. The order doubles as the tie-break order
// wherever an aggregate has to pick a single element.
const (
	Fire  Element = "Fire"
	Earth Element = "Earth"
	Air   Element = "Air"
	Water Element = "Water"
)

// Modality groups signs by their position inside a season.
type Modality string

const (
	Cardinal Modality = "Cardinal"
	Fixed    Modality = "Fixed"
	Mutable  Modality = "Mutable"
)

// MonthDay is a day of the year without a year.
type MonthDay struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func (md MonthDay) ordinal() int { return int(md.Month)*100 + md.Day }

// String renders the day as "Mar 21".
func (md MonthDay) String() string {
	return fmt.Sprintf("%s %d", md.Month.String()[:3], md.Day)
}

// DateRange is an inclusive span of days. Start after End means the range
// wraps across the Dec -> Jan boundary.
type DateRange struct {
	Start MonthDay `json:"start"`
	End   MonthDay `json:"end"`
}

// Contains reports whether md falls inside the range, honoring wrap-around.
func (r DateRange) Contains(md MonthDay) bool {
	x, s, e := md.ordinal(), r.Start.ordinal(), r.End.ordinal()
	if s <= e {
		return x >= s && x <= e
	}
	return x >= s || x <= e
}

// String renders the range as "Nov 22 - Dec 21".
func (r DateRange) String() string {
	return r.Start.String() + " - " + r.End.String()
}

type signInfo struct {
	element  Element
	symbol   string
	planet   string
	modality Modality
	dates    DateRange
}

func span(sm time.Month, sd int, em time.Month, ed int) DateRange {
	return DateRange{Start: MonthDay{Month: sm, Day: sd}, End: MonthDay{Month: em, Day: ed}}
}

var signOrder = [...]Sign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

var elementOrder = [...]Element{Fire, Earth, Air, Water}

var signTable = map[Sign]signInfo{
	Aries:       {Fire, "♈", "Mars", Cardinal, span(time.March, 21, time.April, 19)},
	Taurus:      {Earth, "♉", "Venus", Fixed, span(time.April, 20, time.May, 20)},
	Gemini:      {Air, "♊", "Mercury", Mutable, span(time.May, 21, time.June, 20)},
	Cancer:      {Water, "♋", "Moon", Cardinal, span(time.June, 21, time.July, 22)},
	Leo:         {Fire, "♌", "Sun", Fixed, span(time.July, 23, time.August, 22)},
	Virgo:       {Earth, "♍", "Mercury", Mutable, span(time.August, 23, time.September, 22)},
	Libra:       {Air, "♎", "Venus", Cardinal, span(time.September, 23, time.October, 22)},
	Scorpio:     {Water, "♏", "Pluto", Fixed, span(time.October, 23, time.November, 21)},
	Sagittarius: {Fire, "♐", "Jupiter", Mutable, span(time.November, 22, time.December, 21)},
	Capricorn:   {Earth, "♑", "Saturn", Cardinal, span(time.December, 22, time.January, 19)},
	Aquarius:    {Air, "♒", "Uranus", Fixed, span(time.January, 20, time.February, 18)},
	Pisces:      {Water, "♓", "Neptune", Mutable, span(time.February, 19, time.March, 20)},
}

var elementIcons = map[Element]string{
	Fire:  "🔥",
	Earth: "🌍",
	Air:   "💨",
	Water: "💧",
}

// Signs returns all signs in calendar order. The slice is a fresh copy.
func Signs() []Sign {
	out := make([]Sign, len(signOrder))
	copy(out, signOrder[:])
	return out
}

// Elements returns all elements in enumeration order. The slice is a fresh copy.
func Elements() []Element {
	out := make([]Element, len(elementOrder))
	copy(out, elementOrder[:])
	return out
}

// Valid reports whether s is one of the twelve signs.
func (s Sign) Valid() bool {
	_, ok := signTable[s]
	return ok
}

// Symbol returns the unicode glyph for the sign, or "" for an unknown sign.
func (s Sign) Symbol() string { return signTable[s].symbol }

// Element returns the sign's element. See ElementOf.
func (s Sign) Element() Element { return ElementOf(s) }

// Range returns the inclusive calendar span of the sign.
func (s Sign) Range() DateRange { return signTable[s].dates }

// RulingPlanet returns the traditional ruling planet of the sign.
func (s Sign) RulingPlanet() string { return signTable[s].planet }

// Modality returns the sign's modality.
func (s Sign) Modality() Modality { return signTable[s].modality }

// Display renders the sign as "♐ Sagittarius".
func (s Sign) Display() string {
	return s.Symbol() + " " + string(s)
}

// Valid reports whether e is one of the four elements.
func (e Element) Valid() bool {
	_, ok := elementIcons[e]
	return ok
}

// Icon returns the element's emoji.
func (e Element) Icon() string { return elementIcons[e] }

// Index returns the position of e in enumeration order, or -1.
func (e Element) Index() int {
	for i, el := range elementOrder {
		if el == e {
			return i
		}
	}
	return -1
}

// Signs returns the three signs of the element in calendar order.
func (e Element) Signs() []Sign {
	out := make([]Sign, 0, 3)
	for _, s := range signOrder {
		if signTable[s].element == e {
			out = append(out, s)
		}
	}
	return out
}

// ElementOf maps a sign to its element. The mapping is total over the twelve
// signs; an unknown sign yields the zero Element.
func ElementOf(s Sign) Element {
	return signTable[s].element
}

// ParseSign resolves a sign name case-insensitively.
func ParseSign(name string) (Sign, error) {
	n := strings.TrimSpace(name)
	for _, s := range signOrder {
		if strings.EqualFold(string(s), n) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSign, name)
}

// ParseElement resolves an element name case-insensitively.
func ParseElement(name string) (Element, error) {
	n := strings.TrimSpace(name)
	for _, e := range elementOrder {
		if strings.EqualFold(string(e), n) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownElement, name)
}
