// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// MembershipStatus is the lifecycle state of a member.
type MembershipStatus string

const (
	StatusActive   MembershipStatus = "Active"
	StatusInactive MembershipStatus = "Inactive"
	StatusOnLeave  MembershipStatus = "OnLeave"
	StatusAlumni   MembershipStatus = "Alumni"
)

// Valid reports whether s is a known status.
func (s MembershipStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOnLeave, StatusAlumni:
		return true
	}
	return false
}

// MembershipType is the kind of membership held.
type MembershipType string

const (
	TypeFullMember MembershipType = "FullMember"
	TypeAssociate  MembershipType = "Associate"
	TypeHonorary   MembershipType = "Honorary"
)

// Valid reports whether t is a known membership type.
func (t MembershipType) Valid() bool {
	switch t {
	case TypeFullMember, TypeAssociate, TypeHonorary:
		return true
	}
	return false
}

// Member is a person in the directory. ZodiacSign and ZodiacElement are
// always derived from DateOfBirth.
type Member struct {
	ID               int64            `json:"id"`
	MemberCode       string           `json:"memberCode"`
	FullName         string           `json:"fullName"`
	Email            string           `json:"email,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	DateOfBirth      string           `json:"dateOfBirth"`
	ZodiacSign       zodiac.Sign      `json:"zodiacSign"`
	ZodiacElement    zodiac.Element   `json:"zodiacElement"`
	Position         string           `json:"position,omitempty"`
	Department       string           `json:"department,omitempty"`
	JoinDate         string           `json:"joinDate,omitempty"`
	MembershipStatus MembershipStatus `json:"membershipStatus"`
	MembershipType   MembershipType   `json:"membershipType"`
	City             string           `json:"city,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Tags             []string         `json:"tags,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	Deleted          bool             `json:"-"`
}

// Active reports whether the member counts as an active, visible member.
func (m Member) Active() bool {
	return !m.Deleted && m.MembershipStatus == StatusActive
}

// Birthday returns the parsed date of birth.
func (m Member) Birthday() (zodiac.CalendarDate, error) {
	return zodiac.ParseDate(m.DateOfBirth)
}

// CodeFor formats the sequential member code for n.
func CodeFor(n int64) string {
	return fmt.Sprintf("JCI-%04d", n)
}

// Classify derives the zodiac fields from DateOfBirth, normalizing the stored
// date to YYYY-MM-DD.
func (m *Member) Classify() error {
	d, err := zodiac.ParseDate(m.DateOfBirth)
	if err != nil {
		return fmt.Errorf("%w: dateOfBirth: %w", ErrInvalidMember, err)
	}
	c, err := zodiac.Classify(d)
	if err != nil {
		return fmt.Errorf("%w: dateOfBirth: %w", ErrInvalidMember, err)
	}
	m.DateOfBirth = d.String()
	m.ZodiacSign = c.Sign
	m.ZodiacElement = c.Element
	return nil
}

// CreateMemberInput carries the writable fields of a new member. Any zodiac
// fields a client sends are ignored.
type CreateMemberInput struct {
	FullName         string           `json:"fullName"`
	Email            string           `json:"email,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	DateOfBirth      string           `json:"dateOfBirth"`
	Position         string           `json:"position,omitempty"`
	Department       string           `json:"department,omitempty"`
	JoinDate         string           `json:"joinDate,omitempty"`
	MembershipStatus MembershipStatus `json:"membershipStatus,omitempty"`
	MembershipType   MembershipType   `json:"membershipType,omitempty"`
	City             string           `json:"city,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Tags             []string         `json:"tags,omitempty"`
}

// Validate checks required fields, dates and enums.
func (in CreateMemberInput) Validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("%w: fullName is required", ErrInvalidMember)
	}
	if _, err := zodiac.ParseDate(in.DateOfBirth); err != nil {
		return fmt.Errorf("%w: dateOfBirth: %w", ErrInvalidMember, err)
	}
	return validateCommon(in.Email, in.JoinDate, in.MembershipStatus, in.MembershipType)
}

// Member builds an unsaved member from the input, applying defaults and
// deriving the zodiac fields.
func (in CreateMemberInput) Member() (Member, error) {
	if err := in.Validate(); err != nil {
		return Member{}, err
	}
	m := Member{
		FullName:         strings.TrimSpace(in.FullName),
		Email:            strings.TrimSpace(in.Email),
		Phone:            strings.TrimSpace(in.Phone),
		DateOfBirth:      in.DateOfBirth,
		Position:         in.Position,
		Department:       in.Department,
		JoinDate:         in.JoinDate,
		MembershipStatus: in.MembershipStatus,
		MembershipType:   in.MembershipType,
		City:             in.City,
		Notes:            in.Notes,
		Tags:             cleanTags(in.Tags),
	}
	if m.MembershipStatus == "" {
		m.MembershipStatus = StatusActive
	}
	if m.MembershipType == "" {
		m.MembershipType = TypeFullMember
	}
	if err := m.Classify(); err != nil {
		return Member{}, err
	}
	return m, nil
}

// UpdateMemberInput is a partial update; nil fields are left untouched.
type UpdateMemberInput struct {
	FullName         *string           `json:"fullName,omitempty"`
	Email            *string           `json:"email,omitempty"`
	Phone            *string           `json:"phone,omitempty"`
	DateOfBirth      *string           `json:"dateOfBirth,omitempty"`
	Position         *string           `json:"position,omitempty"`
	Department       *string           `json:"department,omitempty"`
	JoinDate         *string           `json:"joinDate,omitempty"`
	MembershipStatus *MembershipStatus `json:"membershipStatus,omitempty"`
	MembershipType   *MembershipType   `json:"membershipType,omitempty"`
	City             *string           `json:"city,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
}

// Apply returns m with the update applied. A changed date of birth
// re-derives the zodiac fields.
func (in UpdateMemberInput) Apply(m Member) (Member, error) {
	if in.FullName != nil {
		if strings.TrimSpace(*in.FullName) == "" {
			return m, fmt.Errorf("%w: fullName is required", ErrInvalidMember)
		}
		m.FullName = strings.TrimSpace(*in.FullName)
	}
	set(&m.Email, in.Email)
	set(&m.Phone, in.Phone)
	set(&m.Position, in.Position)
	set(&m.Department, in.Department)
	set(&m.JoinDate, in.JoinDate)
	set(&m.City, in.City)
	set(&m.Notes, in.Notes)
	if in.MembershipStatus != nil {
		m.MembershipStatus = *in.MembershipStatus
	}
	if in.MembershipType != nil {
		m.MembershipType = *in.MembershipType
	}
	if in.Tags != nil {
		m.Tags = cleanTags(in.Tags)
	}
	if err := validateCommon(m.Email, m.JoinDate, m.MembershipStatus, m.MembershipType); err != nil {
		return m, err
	}
	if in.DateOfBirth != nil {
		m.DateOfBirth = *in.DateOfBirth
		if err := m.Classify(); err != nil {
			return m, err
		}
	}
	return m, nil
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func validateCommon(email, joinDate string, st MembershipStatus, typ MembershipType) error {
	if email != "" && !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q is malformed", ErrInvalidMember, email)
	}
	if joinDate != "" {
		if _, err := zodiac.ParseDate(joinDate); err != nil {
			return fmt.Errorf("%w: joinDate: %w", ErrInvalidMember, err)
		}
	}
	if st != "" && !st.Valid() {
		return fmt.Errorf("%w: unknown membershipStatus %q", ErrInvalidMember, st)
	}
	if typ != "" && !typ.Valid() {
		return fmt.Errorf("%w: unknown membershipType %q", ErrInvalidMember, typ)
	}
	return nil
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
