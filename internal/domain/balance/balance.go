// Package balance measures how evenly a group's signs spread across the
// four elements.
package balance

import (
	"math"

	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// MaxShare is the largest share (percent) one element may hold in a balanced group.
const MaxShare = 50.0

// ElementBalance is the per-element tally of a group.
type ElementBalance struct {
	Fire            int              `json:"fire"`
	Earth           int              `json:"earth"`
	Air             int              `json:"air"`
	Water           int              `json:"water"`
	FirePercentage  float64          `json:"firePercentage"`
	EarthPercentage float64          `json:"earthPercentage"`
	AirPercentage   float64          `json:"airPercentage"`
	WaterPercentage float64          `json:"waterPercentage"`
	Total           int              `json:"total"`
	Balanced        bool             `json:"isBalanced"`
	Dominant        zodiac.Element   `json:"dominantElement,omitempty"`
	Missing         []zodiac.Element `json:"missingElements"`
}

// Count returns the tally for e.
func (b ElementBalance) Count(e zodiac.Element) int {
	switch e {
	case zodiac.Fire:
		return b.Fire
	case zodiac.Earth:
		return b.Earth
	case zodiac.Air:
		return b.Air
	case zodiac.Water:
		return b.Water
	}
	return 0
}

// Percentage returns the share of e in percent.
func (b ElementBalance) Percentage(e zodiac.Element) float64 {
	switch e {
	case zodiac.Fire:
		return b.FirePercentage
	case zodiac.Earth:
		return b.EarthPercentage
	case zodiac.Air:
		return b.AirPercentage
	case zodiac.Water:
		return b.WaterPercentage
	}
	return 0
}

// Analyze tallies signs per element.
//
// Dominant is the element with the highest count, ties going to the earlier
// element in Fire, Earth, Air, Water order; an empty group has no dominant
// element. Balanced requires every element to be present and none to exceed
// MaxShare. Missing lists absent elements in enumeration order.
func Analyze(signs []zodiac.Sign) ElementBalance {
	var counts [4]int
	total := 0
	for _, s := range signs {
		if i := zodiac.ElementOf(s).Index(); i >= 0 {
			counts[i]++
			total++
		}
	}

	var pct [4]float64
	if total > 0 {
		for i, c := range counts {
			pct[i] = round2(float64(c) * 100 / float64(total))
		}
	}

	elements := zodiac.Elements()
	b := ElementBalance{
		Fire: counts[0], Earth: counts[1], Air: counts[2], Water: counts[3],
		FirePercentage: pct[0], EarthPercentage: pct[1], AirPercentage: pct[2], WaterPercentage: pct[3],
		Total:   total,
		Missing: []zodiac.Element{},
	}

	best := -1
	balanced := total > 0
	for i, c := range counts {
		if c == 0 {
			b.Missing = append(b.Missing, elements[i])
			balanced = false
		}
		if total > 0 && float64(c)*100/float64(total) > MaxShare {
			balanced = false
		}
		if c > 0 && (best < 0 || c > counts[best]) {
			best = i
		}
	}
	if best >= 0 {
		b.Dominant = elements[best]
	}
	b.Balanced = balanced
	return b
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
