// Package repository stores directory members, notes and settings.
package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/metrics"
)

// Store provides read/write access to the member directory. Soft-deleted
// members are invisible to every read except through Delete.
type Store interface {
	// Create assigns ID, member code and timestamps. Returns ErrConflict when
	// another live member already uses the email.
	Create(ctx context.Context, m model.Member) (model.Member, error)
	Get(ctx context.Context, id int64) (model.Member, error)
	GetByCode(ctx context.Context, code string) (model.Member, error)
	// Update replaces the writable fields of an existing member.
	Update(ctx context.Context, m model.Member) (model.Member, error)
	SoftDelete(ctx context.Context, id int64) error
	// Delete removes the member permanently, deleted or not.
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, q model.SearchQuery) (model.Page[model.Member], error)
	// All returns every live member ordered by ID.
	All(ctx context.Context) ([]model.Member, error)
	Count(ctx context.Context) (int, error)

	NoteStore
	SettingStore
	Close() error
}

// NoteStore keeps notes. Notes are append-only.
type NoteStore interface {
	// CreateNote assigns ID and timestamps.
	CreateNote(ctx context.Context, n model.Note) (model.Note, error)
	// Notes returns notes matching f, newest first.
	Notes(ctx context.Context, f model.NoteFilter) ([]model.Note, error)
}

// SettingStore keeps application settings keyed by name.
type SettingStore interface {
	// Settings returns every setting ordered by key.
	Settings(ctx context.Context) ([]model.Setting, error)
	// PutSetting creates or overwrites the value stored under key.
	PutSetting(ctx context.Context, key, value string) (model.Setting, error)
}

func cloneNote(n model.Note) model.Note {
	if n.Tags != nil {
		n.Tags = append([]string(nil), n.Tags...)
	}
	for _, id := range []**int64{&n.MemberID, &n.TeamID, &n.DepartmentID} {
		if *id != nil {
			v := **id
			*id = &v
		}
	}
	return n
}

// newestFirst orders notes by creation time, then ID, descending.
func newestFirst(notes []model.Note) {
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID > notes[j].ID
	})
}

func sameEmail(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// observe records the latency of a store operation started at start.
func observe(store, op string, start time.Time) {
	metrics.RecordRepositoryLatency(store, op, float64(time.Since(start).Microseconds())/1000)
}
