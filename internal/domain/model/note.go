package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxNoteTitle   = 200
	maxNoteContent = 5_000
	maxSettingKey  = 64
	maxSettingVal  = 4_096
)

// NoteType says what a note is attached to.
type NoteType string

const (
	NoteMember     NoteType = "Member"
	NoteTeam       NoteType = "Team"
	NoteDepartment NoteType = "Department"
	NoteGeneral    NoteType = "General"
)

// Valid reports whether t is a known note type.
func (t NoteType) Valid() bool {
	switch t {
	case NoteMember, NoteTeam, NoteDepartment, NoteGeneral:
		return true
	}
	return false
}

// Note is a free-text remark kept alongside the directory. MemberID is set
// for Member notes, TeamID for Team notes and DepartmentID for Department
// notes.
type Note struct {
	ID           int64     `json:"id"`
	NoteType     NoteType  `json:"noteType"`
	MemberID     *int64    `json:"memberId,omitempty"`
	TeamID       *int64    `json:"teamId,omitempty"`
	DepartmentID *int64    `json:"departmentId,omitempty"`
	Title        string    `json:"title,omitempty"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags,omitempty"`
	IsImportant  bool      `json:"isImportant"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	CreatedBy    int64     `json:"createdBy"`
}

// CreateNoteInput carries the writable fields of a new note.
type CreateNoteInput struct {
	NoteType     NoteType `json:"noteType,omitempty"`
	MemberID     *int64   `json:"memberId,omitempty"`
	TeamID       *int64   `json:"teamId,omitempty"`
	DepartmentID *int64   `json:"departmentId,omitempty"`
	Title        string   `json:"title,omitempty"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags,omitempty"`
	IsImportant  bool     `json:"isImportant"`
}

// Note builds an unsaved note authored by createdBy. An empty type means
// General.
func (in CreateNoteInput) Note(createdBy int64) (Note, error) {
	n := Note{
		NoteType:     in.NoteType,
		MemberID:     in.MemberID,
		TeamID:       in.TeamID,
		DepartmentID: in.DepartmentID,
		Title:        strings.TrimSpace(in.Title),
		Content:      strings.TrimSpace(in.Content),
		Tags:         cleanTags(in.Tags),
		IsImportant:  in.IsImportant,
		CreatedBy:    createdBy,
	}
	if n.NoteType == "" {
		n.NoteType = NoteGeneral
	}
	if !n.NoteType.Valid() {
		return Note{}, fmt.Errorf("%w: unknown noteType %q", ErrInvalidNote, in.NoteType)
	}
	switch {
	case n.Content == "":
		return Note{}, fmt.Errorf("%w: content is required", ErrInvalidNote)
	case utf8.RuneCountInString(n.Content) > maxNoteContent:
		return Note{}, fmt.Errorf("%w: content exceeds %d characters", ErrInvalidNote, maxNoteContent)
	case utf8.RuneCountInString(n.Title) > maxNoteTitle:
		return Note{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidNote, maxNoteTitle)
	}
	for name, id := range map[string]*int64{"memberId": n.MemberID, "teamId": n.TeamID, "departmentId": n.DepartmentID} {
		if id != nil && *id <= 0 {
			return Note{}, fmt.Errorf("%w: %s must be positive", ErrInvalidNote, name)
		}
	}
	required := map[NoteType]*int64{NoteMember: n.MemberID, NoteTeam: n.TeamID, NoteDepartment: n.DepartmentID}
	if id, ok := required[n.NoteType]; ok && id == nil {
		return Note{}, fmt.Errorf("%w: a %s note needs its target id", ErrInvalidNote, n.NoteType)
	}
	return n, nil
}

// NoteFilter narrows a note listing. Zero fields match everything.
type NoteFilter struct {
	NoteType NoteType
	MemberID int64
}

// Validate rejects unknown note types.
func (f NoteFilter) Validate() error {
	if f.NoteType != "" && !f.NoteType.Valid() {
		return fmt.Errorf("%w: unknown noteType %q", ErrInvalidNote, f.NoteType)
	}
	if f.MemberID < 0 {
		return fmt.Errorf("%w: memberId must be positive", ErrInvalidNote)
	}
	return nil
}

// Match reports whether n passes the filter.
func (f NoteFilter) Match(n Note) bool {
	if f.NoteType != "" && n.NoteType != f.NoteType {
		return false
	}
	if f.MemberID != 0 && (n.MemberID == nil || *n.MemberID != f.MemberID) {
		return false
	}
	return true
}

// Setting is one application-wide key/value pair.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateSetting checks a key/value pair before it is stored. Keys are
// dotted identifiers such as "digest.channel".
func ValidateSetting(key, value string) error {
	if key == "" || len(key) > maxSettingKey {
		return fmt.Errorf("%w: key must be 1 to %d characters", ErrInvalidSetting, maxSettingKey)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return fmt.Errorf("%w: key %q may only hold letters, digits, '.', '_' and '-'", ErrInvalidSetting, key)
		}
	}
	if len(value) > maxSettingVal {
		return fmt.Errorf("%w: value exceeds %d bytes", ErrInvalidSetting, maxSettingVal)
	}
	return nil
}
