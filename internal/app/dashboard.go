package service

import (
	"context"
	"math"

	"github.com/okian/zodiachr/internal/domain/balance"
	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// Overview is the dashboard headline.
type Overview struct {
	TotalMembers      int                    `json:"totalMembers"`
	ActiveMembers     int                    `json:"activeMembers"`
	MostCommonSign    zodiac.Sign            `json:"mostCommonZodiacSign,omitempty"`
	MostCommonElement zodiac.Element         `json:"mostCommonElement,omitempty"`
	ElementBalance    balance.ElementBalance `json:"elementBalance"`
	UpcomingBirthdays int                    `json:"upcomingBirthdays"`
}

// Overview summarizes the directory. Sign and element counts cover every
// member; the element balance covers active members only.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{TotalMembers: len(all)}

	signs := make(map[zodiac.Sign]int, 12)
	elements := make(map[zodiac.Element]int, 4)
	var active []zodiac.Sign
	for _, m := range all {
		signs[m.ZodiacSign]++
		elements[m.ZodiacElement]++
		if m.Active() {
			active = append(active, m.ZodiacSign)
		}
	}
	ov.ActiveMembers = len(active)
	ov.MostCommonSign = mostCommon(zodiac.Signs(), signs)
	ov.MostCommonElement = mostCommon(zodiac.Elements(), elements)
	ov.ElementBalance = balance.Analyze(active)

	upcoming, err := s.birthdaysWithin(ctx, defaultUpcomingDays)
	if err != nil {
		return Overview{}, err
	}
	ov.UpcomingBirthdays = len(upcoming)
	return ov, nil
}

// mostCommon returns the key with the highest count; ties go to the earlier
// key in order. The zero value is returned when every count is zero.
func mostCommon[K comparable](order []K, counts map[K]int) K {
	var best K
	n := 0
	for _, k := range order {
		if counts[k] > n {
			best, n = k, counts[k]
		}
	}
	return best
}

// SignCount is one bar of the zodiac distribution.
type SignCount struct {
	Sign       zodiac.Sign    `json:"sign"`
	Symbol     string         `json:"symbol"`
	Element    zodiac.Element `json:"element"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// ZodiacDistribution counts members per sign in calendar order.
func (s *Service) ZodiacDistribution(ctx context.Context) ([]SignCount, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[zodiac.Sign]int, 12)
	for _, m := range all {
		counts[m.ZodiacSign]++
	}
	out := make([]SignCount, 0, 12)
	for _, sg := range zodiac.Signs() {
		sc := SignCount{Sign: sg, Symbol: sg.Symbol(), Element: sg.Element(), Count: counts[sg]}
		if len(all) > 0 {
			sc.Percentage = math.Round(float64(sc.Count)*10000/float64(len(all))) / 100
		}
		out = append(out, sc)
	}
	return out, nil
}
