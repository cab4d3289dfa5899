package api

import "net/http"

func (s *Server) handleBirthdaysToday(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.BirthdaysToday(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Birthdays today", list)
}

// handleUpcomingBirthdays handles GET /api/birthdays/upcoming?daysAhead=N.
func (s *Server) handleUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "daysAhead", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.deps.UpcomingBirthdays(r.Context(), days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Upcoming birthdays", list)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.deps.Overview(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Dashboard overview", ov)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := s.deps.ZodiacDistribution(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Zodiac distribution", dist)
}
