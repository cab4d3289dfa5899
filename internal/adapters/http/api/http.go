// Package api exposes the member directory over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/zodiachr/internal/adapters/auth"
	service "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/internal/domain/balance"
	"github.com/okian/zodiachr/internal/domain/compatibility"
	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/okian/zodiachr/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Classify(ctx context.Context, date string) (zodiac.Classification, error)
	PairCompatibility(ctx context.Context, a, b zodiac.Sign) (compatibility.Pair, error)
	GroupBySigns(ctx context.Context, signs []zodiac.Sign) (service.GroupReport, error)
	GroupByMembers(ctx context.Context, ids []int64) (service.GroupReport, error)
	Balance(ctx context.Context, signs []zodiac.Sign) (balance.ElementBalance, error)

	CreateMember(ctx context.Context, in model.CreateMemberInput, key string) (model.Member, bool, error)
	GetMember(ctx context.Context, id int64) (model.Member, error)
	GetMemberByCode(ctx context.Context, code string) (model.Member, error)
	UpdateMember(ctx context.Context, id int64, in model.UpdateMemberInput) (model.Member, error)
	DeleteMember(ctx context.Context, id int64) error
	PurgeMember(ctx context.Context, id int64) error
	SearchMembers(ctx context.Context, q model.SearchQuery) (model.Page[model.Member], error)
	ListMembers(ctx context.Context, page, size int, sortBy model.SortField, dir model.Direction) (model.Page[model.Member], error)
	ActiveMembers(ctx context.Context) ([]model.Member, error)
	MembersBySign(ctx context.Context, sign zodiac.Sign) ([]model.Member, error)
	MembersByElement(ctx context.Context, el zodiac.Element) ([]model.Member, error)
	MemberStats(ctx context.Context) (service.MemberStats, error)

	ImportMembers(ctx context.Context, rows []model.CreateMemberInput) (model.ImportStatus, error)
	Import(ctx context.Context, id string) (model.ImportStatus, error)

	BirthdaysToday(ctx context.Context) ([]service.Birthday, error)
	UpcomingBirthdays(ctx context.Context, days int) ([]service.Birthday, error)
	Overview(ctx context.Context) (service.Overview, error)
	ZodiacDistribution(ctx context.Context) ([]service.SignCount, error)

	CreateNote(ctx context.Context, in model.CreateNoteInput, createdBy int64) (model.Note, error)
	Notes(ctx context.Context, f model.NoteFilter) ([]model.Note, error)
	Settings(ctx context.Context) ([]model.Setting, error)
	UpdateSetting(ctx context.Context, key, value string) (model.Setting, error)

	StatsProvider
}

// Sessions issues and resolves bearer tokens.
type Sessions interface {
	Login(ctx context.Context, username, password string) (string, auth.User, error)
	Lookup(token string) (auth.User, error)
	Logout(token string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	sessions Sessions
	limiter  *loginLimiter

	authRequired bool
	now          func() time.Time
	logger       logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAuthRequired gates every /api route except login behind a bearer token.
func WithAuthRequired(required bool) Option {
	return func(s *Server) { s.authRequired = required }
}

// WithLoginRate throttles logins per client address.
func WithLoginRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.limiter = newLoginLimiter(perSecond, burst)
		}
	}
}

// WithClock overrides the envelope timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		sessions: sessions,
		limiter:  newLoginLimiter(defaultLoginRate, defaultLoginBurst),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

type access int

const (
	gated access = iota
	public
	private
)

// handle registers h under pattern. gated routes need a session only when
// auth is required; private routes always do.
func (s *Server) handle(mux *http.ServeMux, pattern, endpoint string, a access, h http.HandlerFunc) {
	if a == private || (a == gated && s.authRequired) {
		h = s.requireAuth(h)
	}
	mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", "healthz", public, HandleHealth)
	s.handle(mux, "GET /stats", "stats", public, NewStatsHandler(s.deps).HandleStats)

	s.handle(mux, "POST /api/auth/login", "auth_login", public, s.handleLogin)
	s.handle(mux, "POST /api/auth/logout", "auth_logout", private, s.handleLogout)
	s.handle(mux, "GET /api/auth/me", "auth_me", private, s.handleMe)

	s.handle(mux, "GET /api/zodiac/classify", "zodiac_classify", gated, s.handleClassify)
	s.handle(mux, "GET /api/zodiac/signs", "zodiac_signs", gated, s.handleSigns)
	s.handle(mux, "GET /api/zodiac/profiles/{sign}", "zodiac_profile", gated, s.handleProfile)
	s.handle(mux, "POST /api/zodiac/balance", "zodiac_balance", gated, s.handleBalance)

	s.handle(mux, "GET /api/compatibility/signs", "compatibility_pair", gated, s.handlePairCompatibility)
	s.handle(mux, "POST /api/compatibility/group", "compatibility_group", gated, s.handleGroupCompatibility)

	s.handle(mux, "POST /api/members", "members_create", gated, s.handleCreateMember)
	s.handle(mux, "GET /api/members", "members_list", gated, s.handleListMembers)
	s.handle(mux, "GET /api/members/{id}", "members_get", gated, s.handleGetMember)
	s.handle(mux, "PUT /api/members/{id}", "members_update", gated, s.handleUpdateMember)
	s.handle(mux, "DELETE /api/members/{id}", "members_delete", gated, s.handleDeleteMember)
	s.handle(mux, "DELETE /api/members/{id}/permanent", "members_purge", gated, s.handlePurgeMember)
	s.handle(mux, "GET /api/members/code/{code}", "members_by_code", gated, s.handleGetMemberByCode)
	s.handle(mux, "POST /api/members/search", "members_search", gated, s.handleSearchMembers)
	s.handle(mux, "GET /api/members/active", "members_active", gated, s.handleActiveMembers)
	s.handle(mux, "GET /api/members/zodiac/{sign}", "members_by_sign", gated, s.handleMembersBySign)
	s.handle(mux, "GET /api/members/element/{element}", "members_by_element", gated, s.handleMembersByElement)
	s.handle(mux, "GET /api/members/stats", "members_stats", gated, s.handleMemberStats)

	s.handle(mux, "POST /api/members/import", "members_import", gated, s.handleImport)
	s.handle(mux, "GET /api/imports/{id}", "imports_get", gated, s.handleGetImport)

	s.handle(mux, "GET /api/birthdays/today", "birthdays_today", gated, s.handleBirthdaysToday)
	s.handle(mux, "GET /api/birthdays/upcoming", "birthdays_upcoming", gated, s.handleUpcomingBirthdays)

	s.handle(mux, "GET /api/dashboard/overview", "dashboard_overview", gated, s.handleOverview)
	s.handle(mux, "GET /api/dashboard/zodiac-distribution", "dashboard_distribution", gated, s.handleDistribution)

	s.handle(mux, "GET /api/notes", "notes_list", gated, s.handleListNotes)
	s.handle(mux, "POST /api/notes", "notes_create", gated, s.handleCreateNote)
	s.handle(mux, "GET /api/settings", "settings_list", gated, s.handleListSettings)
	s.handle(mux, "PUT /api/settings/{key}", "settings_update", gated, s.handleUpdateSetting)
}
