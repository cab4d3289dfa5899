// Package compatibility scores how well zodiac signs pair up, both for a
// single pair and for a whole group, using the element-harmony heuristic.
package compatibility

import (
	"sort"

	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// Harmony classifies the relationship between two elements.
type Harmony string

const (
	Harmonious  Harmony = "Harmonious"
	Neutral     Harmony = "Neutral"
	Challenging Harmony = "Challenging"
)

// Canonical score per harmony tier. The heuristic only distinguishes three
// tiers, so each tier maps to one fixed score inside its level band.
const (
	HarmoniousScore  = 85.0
	NeutralScore     = 55.0
	ChallengingScore = 25.0
)

// Thresholds splitting pairs into strong and weak buckets.
const (
	StrongPairMin = 60.0
	WeakPairMax   = 40.0
)

// Level is the five-tier reading of a score in [0,100].
type Level string

const (
	LevelExcellent   Level = "Excellent"
	LevelGood        Level = "Good"
	LevelModerate    Level = "Moderate"
	LevelChallenging Level = "Challenging"
	LevelDifficult   Level = "Difficult"
)

// LevelFor maps a score to its level: Excellent >=80, Good >=60,
// Moderate >=40, Challenging >=20, Difficult below.
func LevelFor(score float64) Level {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 60:
		return LevelGood
	case score >= 40:
		return LevelModerate
	case score >= 20:
		return LevelChallenging
	default:
		return LevelDifficult
	}
}

// HarmonyOf relates two elements. Fire/Air and Earth/Water complement each
// other, equal elements are neutral and every other pairing is challenging.
func HarmonyOf(a, b zodiac.Element) Harmony {
	switch {
	case a == b:
		return Neutral
	case complementary(a, b) || complementary(b, a):
		return Harmonious
	default:
		return Challenging
	}
}

func complementary(a, b zodiac.Element) bool {
	return (a == zodiac.Fire && b == zodiac.Air) || (a == zodiac.Earth && b == zodiac.Water)
}

func scoreOf(h Harmony) float64 {
	switch h {
	case Harmonious:
		return HarmoniousScore
	case Neutral:
		return NeutralScore
	default:
		return ChallengingScore
	}
}

// Pair is the compatibility of two signs.
type Pair struct {
	SignA   zodiac.Sign `json:"sign1"`
	SignB   zodiac.Sign `json:"sign2"`
	Harmony Harmony     `json:"elementHarmony"`
	Score   float64     `json:"compatibilityScore"`
	Level   Level       `json:"compatibilityLevel"`
}

// PairScore scores two signs. It is symmetric in its arguments apart from
// the echoed sign order.
func PairScore(a, b zodiac.Sign) Pair {
	h := HarmonyOf(zodiac.ElementOf(a), zodiac.ElementOf(b))
	score := scoreOf(h)
	return Pair{SignA: a, SignB: b, Harmony: h, Score: score, Level: LevelFor(score)}
}

// Compatible is the boolean reading of the heuristic: harmonious or same element.
func Compatible(a, b zodiac.Sign) bool {
	return PairScore(a, b).Harmony != Challenging
}

// IndexedPair is a pair inside a group, carrying the input positions so
// callers can map it back to the people it came from.
type IndexedPair struct {
	Pair
	IndexA int `json:"index1"`
	IndexB int `json:"index2"`
}

// GroupResult summarizes every unordered pair of a group.
type GroupResult struct {
	Size          int           `json:"teamSize"`
	PairCount     int           `json:"pairCount"`
	Defined       bool          `json:"defined"`
	OverallScore  float64       `json:"overallCompatibilityScore"`
	Level         Level         `json:"compatibilityLevel"`
	ConflictCount int           `json:"conflictCount"`
	StrongPairs   []IndexedPair `json:"strongPairs"`
	WeakPairs     []IndexedPair `json:"weakPairs"`
}

// Group scores every unordered pair (i<j) of signs. The overall score is the
// mean pair score. Strong pairs (score >= 60) are sorted best first, weak
// pairs (score < 40) worst first; ties keep input order.
//
// Fewer than two signs yield the neutral default: no pairs, score 0,
// Defined false.
func Group(signs []zodiac.Sign) GroupResult {
	res := GroupResult{
		Size:        len(signs),
		Level:       LevelFor(0),
		StrongPairs: []IndexedPair{},
		WeakPairs:   []IndexedPair{},
	}
	if len(signs) < 2 {
		return res
	}

	var total float64
	for i := 0; i < len(signs); i++ {
		for j := i + 1; j < len(signs); j++ {
			p := IndexedPair{Pair: PairScore(signs[i], signs[j]), IndexA: i, IndexB: j}
			total += p.Score
			res.PairCount++
			if p.Harmony == Challenging {
				res.ConflictCount++
			}
			switch {
			case p.Score >= StrongPairMin:
				res.StrongPairs = append(res.StrongPairs, p)
			case p.Score < WeakPairMax:
				res.WeakPairs = append(res.WeakPairs, p)
			}
		}
	}

	sort.SliceStable(res.StrongPairs, func(i, j int) bool {
		return res.StrongPairs[i].Score > res.StrongPairs[j].Score
	})
	sort.SliceStable(res.WeakPairs, func(i, j int) bool {
		return res.WeakPairs[i].Score < res.WeakPairs[j].Score
	})

	res.Defined = true
	res.OverallScore = total / float64(res.PairCount)
	res.Level = LevelFor(res.OverallScore)
	return res
}
