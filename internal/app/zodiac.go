package service

import (
	"context"
	"fmt"

	"github.com/okian/zodiachr/internal/domain/balance"
	"github.com/okian/zodiachr/internal/domain/compatibility"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/okian/zodiachr/pkg/metrics"
)

// Classify maps an ISO date to its sign.
func (s *Service) Classify(_ context.Context, date string) (zodiac.Classification, error) {
	c, err := zodiac.ClassifyString(date)
	if err != nil {
		metrics.RecordClassificationFailure()
		return zodiac.Classification{}, err
	}
	metrics.RecordClassification(string(c.Sign))
	return c, nil
}

// PairCompatibility scores two signs.
func (s *Service) PairCompatibility(_ context.Context, a, b zodiac.Sign) (compatibility.Pair, error) {
	if !a.Valid() || !b.Valid() {
		return compatibility.Pair{}, fmt.Errorf("%w: %w", ErrInvalidArgument, zodiac.ErrUnknownSign)
	}
	metrics.RecordCompatibilityEvaluation("pair")
	return compatibility.PairScore(a, b), nil
}

// MemberRef identifies a member inside a group report.
type MemberRef struct {
	ID       int64       `json:"id"`
	FullName string      `json:"fullName"`
	Sign     zodiac.Sign `json:"zodiacSign"`
}

// GroupPair is a scored pair, with the members behind it when the group was
// built from member ids.
type GroupPair struct {
	compatibility.IndexedPair
	MemberA *MemberRef `json:"member1,omitempty"`
	MemberB *MemberRef `json:"member2,omitempty"`
}

// GroupReport is the compatibility of a team plus its element balance.
type GroupReport struct {
	Size          int                    `json:"teamSize"`
	PairCount     int                    `json:"pairCount"`
	Defined       bool                   `json:"defined"`
	OverallScore  float64                `json:"overallCompatibilityScore"`
	Level         compatibility.Level    `json:"compatibilityLevel"`
	ConflictCount int                    `json:"conflictCount"`
	StrongPairs   []GroupPair            `json:"strongPairs"`
	WeakPairs     []GroupPair            `json:"weakPairs"`
	Members       []MemberRef            `json:"members,omitempty"`
	Balance       balance.ElementBalance `json:"elementBalance"`
}

// GroupBySigns evaluates a team given directly as signs.
func (s *Service) GroupBySigns(_ context.Context, signs []zodiac.Sign) (GroupReport, error) {
	if err := checkGroup(len(signs)); err != nil {
		return GroupReport{}, err
	}
	for _, sg := range signs {
		if !sg.Valid() {
			return GroupReport{}, fmt.Errorf("%w: %w", ErrInvalidArgument, zodiac.ErrUnknownSign)
		}
	}
	return report(signs, nil), nil
}

// GroupByMembers evaluates a team of stored members. Unknown ids fail with
// the store's not-found error.
func (s *Service) GroupByMembers(ctx context.Context, ids []int64) (GroupReport, error) {
	if err := checkGroup(len(ids)); err != nil {
		return GroupReport{}, err
	}
	refs := make([]MemberRef, len(ids))
	signs := make([]zodiac.Sign, len(ids))
	for i, id := range ids {
		m, err := s.store.Get(ctx, id)
		if err != nil {
			return GroupReport{}, fmt.Errorf("member %d: %w", id, err)
		}
		refs[i] = MemberRef{ID: m.ID, FullName: m.FullName, Sign: m.ZodiacSign}
		signs[i] = m.ZodiacSign
	}
	return report(signs, refs), nil
}

func checkGroup(n int) error {
	if n > maxGroupSize {
		return fmt.Errorf("%w: group exceeds %d members", ErrInvalidArgument, maxGroupSize)
	}
	return nil
}

func report(signs []zodiac.Sign, refs []MemberRef) GroupReport {
	metrics.RecordCompatibilityEvaluation("group")
	metrics.RecordBalanceAnalysis()
	g := compatibility.Group(signs)
	return GroupReport{
		Size:          g.Size,
		PairCount:     g.PairCount,
		Defined:       g.Defined,
		OverallScore:  g.OverallScore,
		Level:         g.Level,
		ConflictCount: g.ConflictCount,
		StrongPairs:   withMembers(g.StrongPairs, refs),
		WeakPairs:     withMembers(g.WeakPairs, refs),
		Members:       refs,
		Balance:       balance.Analyze(signs),
	}
}

func withMembers(pairs []compatibility.IndexedPair, refs []MemberRef) []GroupPair {
	out := make([]GroupPair, len(pairs))
	for i, p := range pairs {
		out[i] = GroupPair{IndexedPair: p}
		if refs != nil {
			out[i].MemberA = &refs[p.IndexA]
			out[i].MemberB = &refs[p.IndexB]
		}
	}
	return out
}

// Balance analyzes the element spread of signs.
func (s *Service) Balance(_ context.Context, signs []zodiac.Sign) (balance.ElementBalance, error) {
	for _, sg := range signs {
		if !sg.Valid() {
			return balance.ElementBalance{}, fmt.Errorf("%w: %w", ErrInvalidArgument, zodiac.ErrUnknownSign)
		}
	}
	metrics.RecordBalanceAnalysis()
	return balance.Analyze(signs), nil
}
