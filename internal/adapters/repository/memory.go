package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/okian/zodiachr/pkg/metrics"
)

const memoryStoreName = "memory"

// MemoryStore keeps members in a map guarded by an RWMutex, with a secondary
// index on member code. Returned members are copies.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[int64]*model.Member
	byCode map[string]int64
	nextID int64
	live   int

	notes      []model.Note
	nextNoteID int64
	settings   map[string]model.Setting

	opts options
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		byID:     make(map[int64]*model.Member),
		byCode:   make(map[string]int64),
		settings: make(map[string]model.Setting),
		opts:     o,
	}
}

func clone(m *model.Member) model.Member {
	out := *m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return out
}

// Must be called with s.mu held.
func (s *MemoryStore) emailTaken(email string, except int64) bool {
	if email == "" {
		return false
	}
	for id, m := range s.byID {
		if id != except && !m.Deleted && sameEmail(m.Email, email) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Create(ctx context.Context, m model.Member) (model.Member, error) {
	defer observe(memoryStoreName, "create", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(m.Email, 0) {
		metrics.RecordErrorByComponent("repository", "conflict")
		return model.Member{}, ErrConflict
	}
	s.nextID++
	now := s.opts.now().UTC()
	m.ID = s.nextID
	m.MemberCode = model.CodeFor(m.ID)
	m.CreatedAt, m.UpdatedAt = now, now
	m.Deleted = false

	stored := clone(&m)
	s.byID[m.ID] = &stored
	s.byCode[m.MemberCode] = m.ID
	s.live++
	metrics.UpdateMembersTotal(s.live)
	s.opts.logger.Debug(ctx, "member created", logger.Int64("id", m.ID), logger.String("code", m.MemberCode))
	return clone(&stored), nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (model.Member, error) {
	defer observe(memoryStoreName, "get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok || m.Deleted {
		return model.Member{}, ErrNotFound
	}
	return clone(m), nil
}

func (s *MemoryStore) GetByCode(_ context.Context, code string) (model.Member, error) {
	defer observe(memoryStoreName, "get_by_code", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return model.Member{}, ErrNotFound
	}
	m := s.byID[id]
	if m.Deleted {
		return model.Member{}, ErrNotFound
	}
	return clone(m), nil
}

func (s *MemoryStore) Update(_ context.Context, m model.Member) (model.Member, error) {
	defer observe(memoryStoreName, "update", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[m.ID]
	if !ok || cur.Deleted {
		return model.Member{}, ErrNotFound
	}
	if s.emailTaken(m.Email, m.ID) {
		return model.Member{}, ErrConflict
	}
	m.MemberCode = cur.MemberCode
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = s.opts.now().UTC()
	m.Deleted = false

	stored := clone(&m)
	s.byID[m.ID] = &stored
	return clone(&stored), nil
}

func (s *MemoryStore) SoftDelete(_ context.Context, id int64) error {
	defer observe(memoryStoreName, "soft_delete", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok || m.Deleted {
		return ErrNotFound
	}
	m.Deleted = true
	m.UpdatedAt = s.opts.now().UTC()
	s.live--
	metrics.UpdateMembersTotal(s.live)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	defer observe(memoryStoreName, "delete", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if !m.Deleted {
		s.live--
		metrics.UpdateMembersTotal(s.live)
	}
	delete(s.byCode, m.MemberCode)
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, q model.SearchQuery) (model.Page[model.Member], error) {
	defer observe(memoryStoreName, "search", time.Now())
	q, err := q.Normalize()
	if err != nil {
		return model.Page[model.Member]{}, err
	}

	s.mu.RLock()
	matched := make([]model.Member, 0, len(s.byID))
	for _, m := range s.byID {
		if q.Matches(*m) {
			matched = append(matched, clone(m))
		}
	}
	s.mu.RUnlock()

	model.SortMembers(matched, q.SortBy, q.Direction)
	return model.Paginate(matched, q.Page, q.Size), nil
}

func (s *MemoryStore) All(_ context.Context) ([]model.Member, error) {
	defer observe(memoryStoreName, "all", time.Now())
	s.mu.RLock()
	out := make([]model.Member, 0, s.live)
	for _, m := range s.byID {
		if !m.Deleted {
			out = append(out, clone(m))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live, nil
}

func (s *MemoryStore) CreateNote(_ context.Context, n model.Note) (model.Note, error) {
	defer observe(memoryStoreName, "create_note", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNoteID++
	now := s.opts.now().UTC()
	n.ID = s.nextNoteID
	n.CreatedAt, n.UpdatedAt = now, now
	s.notes = append(s.notes, cloneNote(n))
	return cloneNote(n), nil
}

func (s *MemoryStore) Notes(_ context.Context, f model.NoteFilter) ([]model.Note, error) {
	defer observe(memoryStoreName, "notes", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Note{}
	for _, n := range s.notes {
		if f.Match(n) {
			out = append(out, cloneNote(n))
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *MemoryStore) Settings(_ context.Context) ([]model.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Setting, 0, len(s.settings))
	for _, st := range s.settings {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) PutSetting(_ context.Context, key, value string) (model.Setting, error) {
	defer observe(memoryStoreName, "put_setting", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	st := model.Setting{Key: key, Value: value, UpdatedAt: s.opts.now().UTC()}
	s.settings[key] = st
	return st, nil
}

func (s *MemoryStore) Close() error { return nil }
