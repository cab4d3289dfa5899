package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// Paging defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortField names a sortable member column.
type SortField string

const (
	SortFullName    SortField = "fullName"
	SortCreatedAt   SortField = "createdAt"
	SortJoinDate    SortField = "joinDate"
	SortDateOfBirth SortField = "dateOfBirth"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SearchQuery filters and pages the member directory. Zero-value filters
// match everything; deleted members never match.
type SearchQuery struct {
	Keyword    string           `json:"keyword,omitempty"`
	Sign       zodiac.Sign      `json:"zodiacSign,omitempty"`
	Element    zodiac.Element   `json:"zodiacElement,omitempty"`
	Status     MembershipStatus `json:"membershipStatus,omitempty"`
	Type       MembershipType   `json:"membershipType,omitempty"`
	Department string           `json:"department,omitempty"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	SortBy     SortField        `json:"sortBy,omitempty"`
	Direction  Direction        `json:"sortDirection,omitempty"`
}

// Normalize fills defaults and rejects out-of-range values.
func (q SearchQuery) Normalize() (SearchQuery, error) {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Page < 0 {
		return q, fmt.Errorf("%w: page must be >= 0", ErrInvalidQuery)
	}
	if q.Size == 0 {
		q.Size = DefaultPageSize
	}
	if q.Size < 1 || q.Size > MaxPageSize {
		return q, fmt.Errorf("%w: size must be in [1,%d]", ErrInvalidQuery, MaxPageSize)
	}
	// page*size is used as an offset and must not overflow.
	if q.Page > (math.MaxInt-1)/q.Size {
		return q, fmt.Errorf("%w: page %d is out of range", ErrInvalidQuery, q.Page)
	}
	if q.SortBy == "" {
		q.SortBy = SortFullName
	}
	switch q.SortBy {
	case SortFullName, SortCreatedAt, SortJoinDate, SortDateOfBirth:
	default:
		return q, fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, q.SortBy)
	}
	q.Direction = Direction(strings.ToUpper(string(q.Direction)))
	if q.Direction == "" {
		q.Direction = Asc
	}
	if q.Direction != Asc && q.Direction != Desc {
		return q, fmt.Errorf("%w: direction must be ASC or DESC", ErrInvalidQuery)
	}
	if q.Sign != "" && !q.Sign.Valid() {
		return q, fmt.Errorf("%w: %w", ErrInvalidQuery, zodiac.ErrUnknownSign)
	}
	if q.Element != "" && !q.Element.Valid() {
		return q, fmt.Errorf("%w: %w", ErrInvalidQuery, zodiac.ErrUnknownElement)
	}
	if q.Status != "" && !q.Status.Valid() {
		return q, fmt.Errorf("%w: unknown membershipStatus %q", ErrInvalidQuery, q.Status)
	}
	if q.Type != "" && !q.Type.Valid() {
		return q, fmt.Errorf("%w: unknown membershipType %q", ErrInvalidQuery, q.Type)
	}
	return q, nil
}

// Matches reports whether m passes every filter of q.
func (q SearchQuery) Matches(m Member) bool {
	if m.Deleted {
		return false
	}
	if q.Keyword != "" {
		kw := strings.ToLower(q.Keyword)
		if !strings.Contains(strings.ToLower(m.FullName), kw) &&
			!strings.Contains(strings.ToLower(m.Email), kw) &&
			!strings.Contains(strings.ToLower(m.MemberCode), kw) {
			return false
		}
	}
	switch {
	case q.Sign != "" && m.ZodiacSign != q.Sign,
		q.Element != "" && m.ZodiacElement != q.Element,
		q.Status != "" && m.MembershipStatus != q.Status,
		q.Type != "" && m.MembershipType != q.Type,
		q.Department != "" && !strings.EqualFold(m.Department, q.Department):
		return false
	}
	return true
}

// SortMembers orders members in place by field and direction; ties fall
// back to ID ascending.
func SortMembers(ms []Member, by SortField, dir Direction) {
	cmp := func(a, b Member) int {
		switch by {
		case SortCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case SortJoinDate:
			return strings.Compare(a.JoinDate, b.JoinDate)
		case SortDateOfBirth:
			return strings.Compare(a.DateOfBirth, b.DateOfBirth)
		default:
			return strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
		}
	}
	sort.SliceStable(ms, func(i, j int) bool {
		c := cmp(ms[i], ms[j])
		if c == 0 {
			return ms[i].ID < ms[j].ID
		}
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
}

// Page is one page of a paged listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// NewPage assembles page metadata around content.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
		First:         page == 0,
		Last:          page >= pages-1,
	}
}

// Paginate slices an already filtered and sorted list. Pages past the end
// are empty.
func Paginate[T any](all []T, page, size int) Page[T] {
	start := len(all)
	if size > 0 && page >= 0 && page <= len(all)/size {
		start = page * size
	}
	end := len(all)
	if size > 0 && size < end-start {
		end = start + size
	}
	return NewPage(append([]T(nil), all[start:end]...), page, size, int64(len(all)))
}
