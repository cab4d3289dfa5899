package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/okian/zodiachr/pkg/metrics"
)

// CreateMember validates and stores a new member. With a non-empty key, a
// retry carrying the same key returns the member created the first time and
// replayed is true.
func (s *Service) CreateMember(ctx context.Context, in model.CreateMemberInput, key string) (m model.Member, replayed bool, err error) {
	m, err = in.Member()
	if err != nil {
		if errors.Is(err, zodiac.ErrInvalidInput) {
			metrics.RecordClassificationFailure()
		}
		return model.Member{}, false, err
	}

	if key != "" {
		id, claimed := s.keys.Claim(ctx, key)
		if !claimed {
			if id == 0 {
				return model.Member{}, false, ErrInFlight
			}
			prev, err := s.store.Get(ctx, id)
			if err != nil {
				return model.Member{}, false, fmt.Errorf("replay idempotency key: %w", err)
			}
			metrics.RecordIdempotentReplay()
			s.logger.Debug(ctx, "idempotent create replayed", logger.String("key", key), logger.Int64("id", id))
			return prev, true, nil
		}
	}

	created, err := s.store.Create(ctx, m)
	if err != nil {
		if key != "" {
			s.keys.Release(ctx, key)
		}
		return model.Member{}, false, err
	}
	if key != "" {
		s.keys.Complete(ctx, key, created.ID)
	}
	metrics.RecordClassification(string(created.ZodiacSign))
	s.logger.Info(ctx, "member created",
		logger.Int64("id", created.ID),
		logger.String("code", created.MemberCode),
		logger.String("sign", string(created.ZodiacSign)),
	)
	return created, false, nil
}

func (s *Service) GetMember(ctx context.Context, id int64) (model.Member, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetMemberByCode(ctx context.Context, code string) (model.Member, error) {
	return s.store.GetByCode(ctx, code)
}

// UpdateMember applies a partial update.
func (s *Service) UpdateMember(ctx context.Context, id int64, in model.UpdateMemberInput) (model.Member, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return model.Member{}, err
	}
	next, err := in.Apply(cur)
	if err != nil {
		return model.Member{}, err
	}
	if next.ZodiacSign != cur.ZodiacSign {
		metrics.RecordClassification(string(next.ZodiacSign))
	}
	return s.store.Update(ctx, next)
}

// DeleteMember soft-deletes a member.
func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "member deleted", logger.Int64("id", id))
	return nil
}

// PurgeMember removes a member permanently, deleted or not.
func (s *Service) PurgeMember(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "member purged", logger.Int64("id", id))
	return nil
}

// SearchMembers filters, sorts and pages the directory. ListMembers is the
// unfiltered form.
func (s *Service) SearchMembers(ctx context.Context, q model.SearchQuery) (model.Page[model.Member], error) {
	return s.store.Search(ctx, q)
}

func (s *Service) ListMembers(ctx context.Context, page, size int, sortBy model.SortField, dir model.Direction) (model.Page[model.Member], error) {
	return s.store.Search(ctx, model.SearchQuery{Page: page, Size: size, SortBy: sortBy, Direction: dir})
}

// ActiveMembers returns every active member sorted by name.
func (s *Service) ActiveMembers(ctx context.Context) ([]model.Member, error) {
	return s.filter(ctx, func(m model.Member) bool { return m.Active() })
}

func (s *Service) MembersBySign(ctx context.Context, sign zodiac.Sign) ([]model.Member, error) {
	if !sign.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, zodiac.ErrUnknownSign)
	}
	return s.filter(ctx, func(m model.Member) bool { return m.ZodiacSign == sign })
}

func (s *Service) MembersByElement(ctx context.Context, el zodiac.Element) ([]model.Member, error) {
	if !el.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, zodiac.ErrUnknownElement)
	}
	return s.filter(ctx, func(m model.Member) bool { return m.ZodiacElement == el })
}

func (s *Service) filter(ctx context.Context, keep func(model.Member) bool) ([]model.Member, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(all))
	for _, m := range all {
		if keep(m) {
			out = append(out, m)
		}
	}
	model.SortMembers(out, model.SortFullName, model.Asc)
	return out, nil
}

// MemberStats breaks the directory down by status, type, sign, element and
// department.
type MemberStats struct {
	Total        int                            `json:"totalMembers"`
	Active       int                            `json:"activeMembers"`
	ByStatus     map[model.MembershipStatus]int `json:"byStatus"`
	ByType       map[model.MembershipType]int   `json:"byType"`
	BySign       map[zodiac.Sign]int            `json:"bySign"`
	ByElement    map[zodiac.Element]int         `json:"byElement"`
	ByDepartment map[string]int                 `json:"byDepartment"`
}

func (s *Service) MemberStats(ctx context.Context) (MemberStats, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return MemberStats{}, err
	}
	st := MemberStats{
		Total:        len(all),
		ByStatus:     map[model.MembershipStatus]int{},
		ByType:       map[model.MembershipType]int{},
		BySign:       map[zodiac.Sign]int{},
		ByElement:    map[zodiac.Element]int{},
		ByDepartment: map[string]int{},
	}
	for _, m := range all {
		if m.Active() {
			st.Active++
		}
		st.ByStatus[m.MembershipStatus]++
		st.ByType[m.MembershipType]++
		st.BySign[m.ZodiacSign]++
		st.ByElement[m.ZodiacElement]++
		if m.Department != "" {
			st.ByDepartment[m.Department]++
		}
	}
	metrics.UpdateMembersTotal(st.Total)
	metrics.UpdateMembersActive(st.Active)
	return st, nil
}
