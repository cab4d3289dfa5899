package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/zodiachr/internal/domain/zodiac"
)

type classifyResponse struct {
	Date string `json:"date"`
	zodiac.Classification
	ElementIcon string `json:"elementIcon"`
	Display     string `json:"display"`
}

// handleClassify handles GET /api/zodiac/classify?date=YYYY-MM-DD.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if strings.TrimSpace(date) == "" {
		s.fail(w, r, fmt.Errorf("%w: date is required", ErrBadRequest))
		return
	}
	c, err := s.deps.Classify(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Zodiac sign classified", classifyResponse{
		Date:           date,
		Classification: c,
		ElementIcon:    c.Element.Icon(),
		Display:        c.Sign.Display(),
	})
}

// handleSigns handles GET /api/zodiac/signs.
func (s *Server) handleSigns(w http.ResponseWriter, _ *http.Request) {
	s.ok(w, http.StatusOK, "Zodiac signs", zodiac.Profiles())
}

// handleProfile handles GET /api/zodiac/profiles/{sign}.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sign, err := zodiac.ParseSign(r.PathValue("sign"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Zodiac profile", zodiac.ProfileOf(sign))
}

type signsRequest struct {
	Signs     []string `json:"signs"`
	MemberIDs []int64  `json:"memberIds"`
}

func parseSigns(raw []string) ([]zodiac.Sign, error) {
	out := make([]zodiac.Sign, len(raw))
	for i, name := range raw {
		sg, err := zodiac.ParseSign(name)
		if err != nil {
			return nil, fmt.Errorf("signs[%d]: %w", i, err)
		}
		out[i] = sg
	}
	return out, nil
}

// handleBalance handles POST /api/zodiac/balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	var req signsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	signs, err := parseSigns(req.Signs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.deps.Balance(r.Context(), signs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Element balance", b)
}

// handlePairCompatibility handles GET /api/compatibility/signs?sign1=&sign2=.
func (s *Server) handlePairCompatibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	signs, err := parseSigns([]string{q.Get("sign1"), q.Get("sign2")})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.deps.PairCompatibility(r.Context(), signs[0], signs[1])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Compatibility evaluated", p)
}

// handleGroupCompatibility handles POST /api/compatibility/group. The body
// carries either signs or memberIds, not both.
func (s *Server) handleGroupCompatibility(w http.ResponseWriter, r *http.Request) {
	var req signsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Signs != nil && req.MemberIDs != nil {
		s.fail(w, r, fmt.Errorf("%w: send either signs or memberIds", ErrBadRequest))
		return
	}
	if req.MemberIDs != nil {
		rep, err := s.deps.GroupByMembers(r.Context(), req.MemberIDs)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.ok(w, http.StatusOK, "Team compatibility evaluated", rep)
		return
	}
	signs, err := parseSigns(req.Signs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.deps.GroupBySigns(r.Context(), signs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Team compatibility evaluated", rep)
}
