package api

import (
	"net/http"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// IdempotencyHeader carries the client key that makes member creates safe
// to retry.
const IdempotencyHeader = "Idempotency-Key"

// handleCreateMember handles POST /api/members.
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var in model.CreateMemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	m, replayed, err := s.deps.CreateMember(r.Context(), in, r.Header.Get(IdempotencyHeader))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		s.ok(w, http.StatusOK, "Member already created", m)
		return
	}
	s.ok(w, http.StatusCreated, "Member created successfully", m)
}

// handleListMembers handles GET /api/members?page=&size=&sortBy=&sortDirection=.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	size, err := queryInt(r, "size", model.DefaultPageSize)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	res, err := s.deps.ListMembers(r.Context(), page, size, model.SortField(q.Get("sortBy")), model.Direction(q.Get("sortDirection")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Members retrieved", res)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.deps.GetMember(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Member retrieved", m)
}

func (s *Server) handleGetMemberByCode(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.GetMemberByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Member retrieved", m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in model.UpdateMemberInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.deps.UpdateMember(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Member updated successfully", m)
}

// handleDeleteMember handles DELETE /api/members/{id} (soft delete).
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.DeleteMember(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Member deleted successfully", nil)
}

func (s *Server) handlePurgeMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.PurgeMember(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Member permanently deleted", nil)
}

// handleSearchMembers handles POST /api/members/search. Sign and element
// filters are matched case-insensitively.
func (s *Server) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	var q model.SearchQuery
	if err := decodeJSON(w, r, &q); err != nil {
		s.fail(w, r, err)
		return
	}
	if q.Sign != "" {
		sg, err := zodiac.ParseSign(string(q.Sign))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		q.Sign = sg
	}
	if q.Element != "" {
		el, err := zodiac.ParseElement(string(q.Element))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		q.Element = el
	}
	res, err := s.deps.SearchMembers(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Search completed", res)
}

func (s *Server) handleActiveMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.deps.ActiveMembers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Active members", ms)
}

func (s *Server) handleMembersBySign(w http.ResponseWriter, r *http.Request) {
	sign, err := zodiac.ParseSign(r.PathValue("sign"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ms, err := s.deps.MembersBySign(r.Context(), sign)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Members by zodiac sign", ms)
}

func (s *Server) handleMembersByElement(w http.ResponseWriter, r *http.Request) {
	el, err := zodiac.ParseElement(r.PathValue("element"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ms, err := s.deps.MembersByElement(r.Context(), el)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Members by element", ms)
}

func (s *Server) handleMemberStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.MemberStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Member statistics", st)
}

// handleImport handles POST /api/members/import with a JSON array of members.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var rows []model.CreateMemberInput
	if err := decodeJSON(w, r, &rows); err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.deps.ImportMembers(r.Context(), rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/imports/"+st.ID)
	s.ok(w, http.StatusAccepted, "Import accepted", st)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Import(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Import status", st)
}
