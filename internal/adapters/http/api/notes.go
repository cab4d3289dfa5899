package api

import (
	"net/http"

	"github.com/okian/zodiachr/internal/domain/model"
)

// handleCreateNote handles POST /api/notes. The author is the session user
// when a valid bearer token is sent, even if auth is not required.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in model.CreateNoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	var author int64
	if p, ok := principalFrom(r.Context()); ok {
		author = p.user.ID
	} else if tok := bearer(r); tok != "" {
		if u, err := s.sessions.Lookup(tok); err == nil {
			author = u.ID
		}
	}
	n, err := s.deps.CreateNote(r.Context(), in, author)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusCreated, "Note created successfully", n)
}

// handleListNotes handles GET /api/notes?noteType=&memberId=.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	memberID, err := queryInt(r, "memberId", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	notes, err := s.deps.Notes(r.Context(), model.NoteFilter{
		NoteType: model.NoteType(r.URL.Query().Get("noteType")),
		MemberID: int64(memberID),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Notes retrieved", notes)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Settings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Settings retrieved", settings)
}

type settingValue struct {
	Value *string `json:"value"`
}

// handleUpdateSetting handles PUT /api/settings/{key} with body {"value": "..."}.
func (s *Server) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var body settingValue
	if err := decodeJSON(w, r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Value == nil {
		s.fail(w, r, errMissingValue)
		return
	}
	st, err := s.deps.UpdateSetting(r.Context(), r.PathValue("key"), *body.Value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Setting updated", st)
}
