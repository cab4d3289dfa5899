package seed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/zodiachr/internal/adapters/auth"
	"github.com/okian/zodiachr/internal/adapters/http/api"
	service "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	svc := service.New(service.WithWorkerCount(1), service.WithLogger(logger.Nop()))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop(ctx) })

	a, err := auth.NewMockAuthenticator(auth.User{Username: "admin", DateOfBirth: "2003-12-04"}, "password123", auth.WithBcryptCost(4))
	if err != nil {
		t.Fatalf("mock authenticator: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, auth.NewSessionStore(a, time.Hour),
		api.WithAuthRequired(true), api.WithLogger(logger.Nop())).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateMembers(t *testing.T) {
	Convey("Given a fixed seed", t, func() {
		ctx := context.Background()
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		a := generateMembers(ctx, 50, 42, now)
		b := generateMembers(ctx, 50, 42, now)

		Convey("Then generation should be repeatable", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Then every member should be valid with a unique email", func() {
			seen := map[string]bool{}
			for _, in := range a {
				So(in.Validate(), ShouldBeNil)
				So(seen[in.Email], ShouldBeFalse)
				seen[in.Email] = true
				So(in.JoinDate <= now.Format(time.DateOnly), ShouldBeTrue)
			}
		})

		Convey("Then a different seed should produce different members", func() {
			c := generateMembers(ctx, 50, 43, now)
			So(c, ShouldNotResemble, a)
		})
	})
}

func TestRetryable(t *testing.T) {
	Convey("Given submission errors", t, func() {
		Convey("Then transport, server and in-flight errors should be retried", func() {
			So(retryable(errors.New("connection refused")), ShouldBeTrue)
			So(retryable(&ResponseError{Status: http.StatusBadGateway}), ShouldBeTrue)
			So(retryable(&ResponseError{Status: http.StatusConflict, Code: "in_flight"}), ShouldBeTrue)
		})

		Convey("Then validation and duplicate-email errors should not", func() {
			So(retryable(&ResponseError{Status: http.StatusBadRequest, Code: "bad_request"}), ShouldBeFalse)
			So(retryable(&ResponseError{Status: http.StatusConflict, Code: "conflict"}), ShouldBeFalse)
			So(errors.Is(&ResponseError{}, ErrRequest), ShouldBeTrue)
		})
	})
}

func TestSubmitOne(t *testing.T) {
	Convey("Given a logged-in client", t, func() {
		ctx := context.Background()
		srv := newTestServer(t)
		c := newClient(srv.URL, 5*time.Second)
		So(c.login(ctx, "admin", "password123"), ShouldBeNil)

		in := model.CreateMemberInput{FullName: "Le Hoa", Email: "hoa@jci.vn", DateOfBirth: "1998-08-01"}

		Convey("When the same key is submitted twice", func() {
			first, r1 := submitOne(ctx, c, in, "key-1")
			second, r2 := submitOne(ctx, c, in, "key-1")

			Convey("Then the second should replay the first", func() {
				So(r1, ShouldEqual, resultCreated)
				So(r2, ShouldEqual, resultReplayed)
				So(second.ID, ShouldEqual, first.ID)
				So(second.MemberCode, ShouldEqual, first.MemberCode)
			})
		})

		Convey("When a different key reuses the email", func() {
			_, r1 := submitOne(ctx, c, in, "key-1")
			_, r2 := submitOne(ctx, c, in, "key-2")

			Convey("Then the duplicate should fail without retrying", func() {
				So(r1, ShouldEqual, resultCreated)
				So(r2, ShouldEqual, resultFailed)
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a service that requires auth", t, func() {
		ctx := context.Background()
		srv := newTestServer(t)
		out := filepath.Join(t.TempDir(), "out", "members.json")

		Convey("When seeding without credentials", func() {
			_, err := Run(ctx, &Config{BaseURL: srv.URL, Members: 3, Workers: 2, Timeout: 5 * time.Second, Seed: 1})

			Convey("Then reading the dashboard should be unauthorized", func() {
				var re *ResponseError
				So(errors.As(err, &re), ShouldBeTrue)
				So(re.Status, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When seeding with credentials", func() {
			stats, err := Run(ctx, &Config{
				BaseURL:    srv.URL,
				Members:    30,
				Workers:    4,
				Timeout:    5 * time.Second,
				Seed:       7,
				Username:   "admin",
				Password:   "password123",
				TeamSize:   5,
				OutputFile: out,
			})

			Convey("Then every member should be created and reported", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 30)
				So(stats.Created, ShouldEqual, 30)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Overview.TotalMembers, ShouldEqual, 30)
				So(len(stats.Distribution), ShouldEqual, 12)

				sum := 0
				for _, sc := range stats.Distribution {
					sum += sc.Count
				}
				So(sum, ShouldEqual, 30)

				So(stats.Team, ShouldNotBeNil)
				So(stats.Team.Size, ShouldEqual, 5)
				So(stats.Team.PairCount, ShouldEqual, 10)
				So(len(stats.Team.Members), ShouldEqual, 5)
			})

			Convey("Then the created members should be saved", func() {
				So(err, ShouldBeNil)
				raw, readErr := os.ReadFile(out)
				So(readErr, ShouldBeNil)
				var saved []model.Member
				So(json.Unmarshal(raw, &saved), ShouldBeNil)
				So(len(saved), ShouldEqual, 30)
				So(saved[0].MemberCode, ShouldNotBeEmpty)
			})
		})
	})
}

func TestHealth(t *testing.T) {
	Convey("Given a server that is down", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		Convey("Then Run should fail the health check", func() {
			_, err := Run(context.Background(), &Config{BaseURL: srv.URL, Members: 1, Timeout: time.Second})
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})
}
