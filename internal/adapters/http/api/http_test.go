package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/zodiachr/internal/adapters/auth"
	"github.com/okian/zodiachr/internal/adapters/http/api"
	"github.com/okian/zodiachr/internal/adapters/repository"
	service "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/okian/zodiachr/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type reply struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	mux   *http.ServeMux
	svc   *service.Service
	token string
}

func newHarness(t *testing.T, opts ...api.Option) *harness {
	svc := service.New(
		service.WithLogger(logger.Nop()),
		service.WithStore(repository.NewMemoryStore(repository.WithLogger(logger.Nop()))),
		service.WithWorkerCount(1),
		service.WithClock(func() time.Time { return time.Date(2025, 12, 4, 9, 0, 0, 0, time.UTC) }),
		service.WithLocation(time.UTC),
	)
	mock, err := auth.NewMockAuthenticator(auth.User{Username: "admin", FullName: "Admin", DateOfBirth: "2003-12-04"},
		"password123", auth.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("mock auth: %v", err)
	}
	srv := api.NewServer(svc, auth.NewSessionStore(mock, time.Hour), append([]api.Option{api.WithLogger(logger.Nop())}, opts...)...)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return &harness{mux: mux, svc: svc}
}

func (h *harness) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, reply) {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:1234"
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	var rep reply
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	return w, rep
}

func decode[T any](raw json.RawMessage) T {
	var v T
	So(json.Unmarshal(raw, &v), ShouldBeNil)
	return v
}

func TestOpsRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness(t)
		defer h.svc.Stop(context.Background())

		Convey("Then /healthz should expose Prometheus metrics", func() {
			w, _ := h.do(http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then /stats should report service stats", func() {
			w, _ := h.do(http.MethodGet, "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, false)
		})
	})
}

func TestZodiacRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness(t)
		defer h.svc.Stop(context.Background())

		Convey("When a valid date is classified", func() {
			w, rep := h.do(http.MethodGet, "/api/zodiac/classify?date=2003-12-04", nil)

			Convey("Then the envelope should carry the sign", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(rep.Success, ShouldBeTrue)
				data := decode[map[string]any](rep.Data)
				So(data["sign"], ShouldEqual, "Sagittarius")
				So(data["element"], ShouldEqual, "Fire")
			})
		})

		Convey("When the date is missing or impossible", func() {
			w1, rep1 := h.do(http.MethodGet, "/api/zodiac/classify", nil)
			w2, rep2 := h.do(http.MethodGet, "/api/zodiac/classify?date=2023-02-29", nil)

			Convey("Then 400 should be returned", func() {
				So(w1.Code, ShouldEqual, http.StatusBadRequest)
				So(rep1.Code, ShouldEqual, "bad_request")
				So(rep1.Success, ShouldBeFalse)
				So(w2.Code, ShouldEqual, http.StatusBadRequest)
				So(rep2.Message, ShouldContainSubstring, "2023-02-29")
			})
		})

		Convey("When profiles are requested", func() {
			w, rep := h.do(http.MethodGet, "/api/zodiac/profiles/leo", nil)
			wBad, _ := h.do(http.MethodGet, "/api/zodiac/profiles/ophiuchus", nil)
			wAll, repAll := h.do(http.MethodGet, "/api/zodiac/signs", nil)

			Convey("Then known signs should resolve case-insensitively", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(string(rep.Data), ShouldContainSubstring, "Leo")
				So(wBad.Code, ShouldEqual, http.StatusBadRequest)
				So(wAll.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]map[string]any](repAll.Data)), ShouldEqual, 12)
			})
		})

		Convey("When balance and pair compatibility are requested", func() {
			wB, repB := h.do(http.MethodPost, "/api/zodiac/balance", map[string]any{"signs": []string{"aries", "leo", "taurus"}})
			wP, repP := h.do(http.MethodGet, "/api/compatibility/signs?sign1=Aries&sign2=gemini", nil)

			Convey("Then the pure evaluators should answer", func() {
				So(wB.Code, ShouldEqual, http.StatusOK)
				bal := decode[map[string]any](repB.Data)
				So(bal["fire"], ShouldEqual, 2.0)
				So(bal["dominantElement"], ShouldEqual, "Fire")
				So(wP.Code, ShouldEqual, http.StatusOK)
				pair := decode[map[string]any](repP.Data)
				So(pair["elementHarmony"], ShouldEqual, "Harmonious")
			})
		})
	})
}

func TestMemberRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness(t)
		defer h.svc.Stop(context.Background())
		body := model.CreateMemberInput{FullName: "Nguyen Lan", Email: "lan@jci.vn", DateOfBirth: "2003-12-04"}

		Convey("When a member is created", func() {
			w, rep := h.do(http.MethodPost, "/api/members", body)
			created := decode[model.Member](rep.Data)

			Convey("Then it should be readable by id and code", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(created.ZodiacSign, ShouldEqual, zodiac.Sagittarius)
				wGet, _ := h.do(http.MethodGet, "/api/members/1", nil)
				So(wGet.Code, ShouldEqual, http.StatusOK)
				wCode, _ := h.do(http.MethodGet, "/api/members/code/JCI-0001", nil)
				So(wCode.Code, ShouldEqual, http.StatusOK)
			})

			Convey("Then a duplicate email should conflict", func() {
				w2, rep2 := h.do(http.MethodPost, "/api/members", body)
				So(w2.Code, ShouldEqual, http.StatusConflict)
				So(rep2.Code, ShouldEqual, "conflict")
			})

			Convey("Then search and filters should find it", func() {
				wS, repS := h.do(http.MethodPost, "/api/members/search", map[string]any{"zodiacSign": "sagittarius"})
				So(wS.Code, ShouldEqual, http.StatusOK)
				page := decode[model.Page[model.Member]](repS.Data)
				So(page.TotalElements, ShouldEqual, 1)
				wE, repE := h.do(http.MethodGet, "/api/members/element/fire", nil)
				So(wE.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]model.Member](repE.Data)), ShouldEqual, 1)
				wT, repT := h.do(http.MethodGet, "/api/birthdays/today", nil)
				So(wT.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]map[string]any](repT.Data)), ShouldEqual, 1)
			})

			Convey("Then update and delete should apply", func() {
				wU, repU := h.do(http.MethodPut, "/api/members/1", map[string]any{"dateOfBirth": "1990-07-30"})
				So(wU.Code, ShouldEqual, http.StatusOK)
				So(decode[model.Member](repU.Data).ZodiacSign, ShouldEqual, zodiac.Leo)
				wD, _ := h.do(http.MethodDelete, "/api/members/1", nil)
				So(wD.Code, ShouldEqual, http.StatusOK)
				wG, repG := h.do(http.MethodGet, "/api/members/1", nil)
				So(wG.Code, ShouldEqual, http.StatusNotFound)
				So(repG.Code, ShouldEqual, "not_found")
				wP, _ := h.do(http.MethodDelete, "/api/members/1/permanent", nil)
				So(wP.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the same Idempotency-Key is sent twice", func() {
			w1, rep1 := h.do(http.MethodPost, "/api/members", body, api.IdempotencyHeader, "abc")
			w2, rep2 := h.do(http.MethodPost, "/api/members", body, api.IdempotencyHeader, "abc")

			Convey("Then the retry should replay the original member", func() {
				So(w1.Code, ShouldEqual, http.StatusCreated)
				So(w2.Code, ShouldEqual, http.StatusOK)
				So(w2.Header().Get("Idempotent-Replayed"), ShouldEqual, "true")
				So(decode[model.Member](rep2.Data).ID, ShouldEqual, decode[model.Member](rep1.Data).ID)
			})
		})

		Convey("When requests are malformed", func() {
			wID, _ := h.do(http.MethodGet, "/api/members/abc", nil)
			wJSON, _ := h.do(http.MethodPost, "/api/members", "{not json")
			wPage, _ := h.do(http.MethodGet, "/api/members?size=1000", nil)
			wMissing, _ := h.do(http.MethodGet, "/api/members/42", nil)

			Convey("Then they should map to client errors", func() {
				So(wID.Code, ShouldEqual, http.StatusBadRequest)
				So(wJSON.Code, ShouldEqual, http.StatusBadRequest)
				So(wPage.Code, ShouldEqual, http.StatusBadRequest)
				So(wMissing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the page number would overflow the offset", func() {
			wList, repList := h.do(http.MethodGet, "/api/members?page=92233720368547759&size=100", nil)
			wSearch, repSearch := h.do(http.MethodPost, "/api/members/search",
				map[string]any{"page": int64(92233720368547759), "size": 100})

			Convey("Then both routes should reject it as a bad request", func() {
				So(wList.Code, ShouldEqual, http.StatusBadRequest)
				So(repList.Code, ShouldEqual, "bad_request")
				So(wSearch.Code, ShouldEqual, http.StatusBadRequest)
				So(repSearch.Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When a team is evaluated by member ids", func() {
			h.do(http.MethodPost, "/api/members", body)
			h.do(http.MethodPost, "/api/members", model.CreateMemberInput{FullName: "Tran Minh", DateOfBirth: "1998-06-01"})
			w, rep := h.do(http.MethodPost, "/api/compatibility/group", map[string]any{"memberIds": []int64{1, 2}})
			wBoth, _ := h.do(http.MethodPost, "/api/compatibility/group", map[string]any{"memberIds": []int64{1}, "signs": []string{"Leo"}})

			Convey("Then pairs should name the members", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				rep := decode[service.GroupReport](rep.Data)
				So(rep.PairCount, ShouldEqual, 1)
				So(rep.StrongPairs[0].MemberB.FullName, ShouldEqual, "Tran Minh")
				So(wBoth.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When members are imported", func() {
			w, rep := h.do(http.MethodPost, "/api/members/import", []model.CreateMemberInput{body})

			Convey("Then the batch should be accepted and trackable", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				st := decode[model.ImportStatus](rep.Data)
				So(st.Total, ShouldEqual, 1)
				So(w.Header().Get("Location"), ShouldEqual, "/api/imports/"+st.ID)
				wG, _ := h.do(http.MethodGet, "/api/imports/"+st.ID, nil)
				So(wG.Code, ShouldEqual, http.StatusOK)
				wM, _ := h.do(http.MethodGet, "/api/imports/nope", nil)
				So(wM.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestNoteRoutes(t *testing.T) {
	Convey("Given a registered API server with one member", t, func() {
		h := newHarness(t)
		defer h.svc.Stop(context.Background())
		h.do(http.MethodPost, "/api/members", model.CreateMemberInput{FullName: "Nguyen Lan", DateOfBirth: "2003-12-04"})

		Convey("When notes are created", func() {
			wG, repG := h.do(http.MethodPost, "/api/notes", map[string]any{"content": "Quarterly plan", "tags": []string{"plan", " "}})
			wM, _ := h.do(http.MethodPost, "/api/notes", map[string]any{"noteType": "Member", "memberId": 1, "content": "Mentor for Q1", "isImportant": true})

			Convey("Then they should be listed and filterable", func() {
				So(wG.Code, ShouldEqual, http.StatusCreated)
				general := decode[model.Note](repG.Data)
				So(general.NoteType, ShouldEqual, model.NoteGeneral)
				So(general.Tags, ShouldResemble, []string{"plan"})
				So(general.CreatedBy, ShouldEqual, 0)
				So(wM.Code, ShouldEqual, http.StatusCreated)

				wL, repL := h.do(http.MethodGet, "/api/notes", nil)
				So(wL.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]model.Note](repL.Data)), ShouldEqual, 2)

				wF, repF := h.do(http.MethodGet, "/api/notes?memberId=1", nil)
				So(wF.Code, ShouldEqual, http.StatusOK)
				notes := decode[[]model.Note](repF.Data)
				So(len(notes), ShouldEqual, 1)
				So(notes[0].IsImportant, ShouldBeTrue)
			})
		})

		Convey("When a logged-in user writes a note", func() {
			_, rep := h.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "password123"})
			h.token = decode[map[string]any](rep.Data)["token"].(string)
			w, repN := h.do(http.MethodPost, "/api/notes", map[string]any{"content": "Signed note"})

			Convey("Then the note should name its author", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode[model.Note](repN.Data).CreatedBy, ShouldEqual, 1)
			})
		})

		Convey("When notes are invalid", func() {
			wEmpty, repEmpty := h.do(http.MethodPost, "/api/notes", map[string]any{"content": "  "})
			wNoTarget, _ := h.do(http.MethodPost, "/api/notes", map[string]any{"noteType": "Member", "content": "x"})
			wType, _ := h.do(http.MethodPost, "/api/notes", map[string]any{"noteType": "Club", "content": "x"})
			wGhost, _ := h.do(http.MethodPost, "/api/notes", map[string]any{"noteType": "Member", "memberId": 42, "content": "x"})
			wFilter, _ := h.do(http.MethodGet, "/api/notes?noteType=Club", nil)

			Convey("Then they should map to client errors", func() {
				So(wEmpty.Code, ShouldEqual, http.StatusBadRequest)
				So(repEmpty.Code, ShouldEqual, "bad_request")
				So(wNoTarget.Code, ShouldEqual, http.StatusBadRequest)
				So(wType.Code, ShouldEqual, http.StatusBadRequest)
				So(wGhost.Code, ShouldEqual, http.StatusNotFound)
				So(wFilter.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestSettingRoutes(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		h := newHarness(t)
		defer h.svc.Stop(context.Background())

		Convey("When settings are written", func() {
			w1, rep1 := h.do(http.MethodPut, "/api/settings/digest.channel", map[string]string{"value": "email"})
			w2, _ := h.do(http.MethodPut, "/api/settings/app.theme", map[string]string{"value": "dark"})
			w3, _ := h.do(http.MethodPut, "/api/settings/digest.channel", map[string]string{"value": "slack"})

			Convey("Then the latest values should be listed by key", func() {
				So(w1.Code, ShouldEqual, http.StatusOK)
				So(decode[model.Setting](rep1.Data).Value, ShouldEqual, "email")
				So(w2.Code, ShouldEqual, http.StatusOK)
				So(w3.Code, ShouldEqual, http.StatusOK)

				wL, repL := h.do(http.MethodGet, "/api/settings", nil)
				So(wL.Code, ShouldEqual, http.StatusOK)
				settings := decode[[]model.Setting](repL.Data)
				So(len(settings), ShouldEqual, 2)
				So(settings[0].Key, ShouldEqual, "app.theme")
				So(settings[1].Value, ShouldEqual, "slack")
			})
		})

		Convey("When a setting update is malformed", func() {
			wKey, _ := h.do(http.MethodPut, "/api/settings/bad%20key", map[string]string{"value": "x"})
			wMissing, repMissing := h.do(http.MethodPut, "/api/settings/app.theme", map[string]string{})
			wJSON, _ := h.do(http.MethodPut, "/api/settings/app.theme", "{")

			Convey("Then it should be rejected", func() {
				So(wKey.Code, ShouldEqual, http.StatusBadRequest)
				So(wMissing.Code, ShouldEqual, http.StatusBadRequest)
				So(repMissing.Code, ShouldEqual, "bad_request")
				So(wJSON.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When no settings exist", func() {
			w, rep := h.do(http.MethodGet, "/api/settings", nil)

			Convey("Then an empty list should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(string(rep.Data), ShouldEqual, "[]")
			})
		})
	})
}

func TestAuthRoutes(t *testing.T) {
	Convey("Given a server that requires auth", t, func() {
		h := newHarness(t, api.WithAuthRequired(true))
		defer h.svc.Stop(context.Background())

		Convey("When a gated route is called without a token", func() {
			w, rep := h.do(http.MethodGet, "/api/members", nil)

			Convey("Then 401 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				So(rep.Code, ShouldEqual, "unauthorized")
			})
		})

		Convey("When the user logs in", func() {
			w, rep := h.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "password123"})
			So(w.Code, ShouldEqual, http.StatusOK)
			h.token = decode[map[string]any](rep.Data)["token"].(string)

			Convey("Then the token should open gated routes", func() {
				wL, _ := h.do(http.MethodGet, "/api/members", nil)
				So(wL.Code, ShouldEqual, http.StatusOK)
				wMe, repMe := h.do(http.MethodGet, "/api/auth/me", nil)
				So(wMe.Code, ShouldEqual, http.StatusOK)
				So(decode[auth.User](repMe.Data).ZodiacSign, ShouldEqual, zodiac.Sagittarius)
			})

			Convey("Then logout should revoke it", func() {
				wOut, _ := h.do(http.MethodPost, "/api/auth/logout", nil)
				So(wOut.Code, ShouldEqual, http.StatusOK)
				wL, _ := h.do(http.MethodGet, "/api/members", nil)
				So(wL.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the password is wrong", func() {
			w, _ := h.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "nope"})

			Convey("Then 401 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})
	})

	Convey("Given a strict login rate limit", t, func() {
		h := newHarness(t, api.WithLoginRate(0.001, 1))
		defer h.svc.Stop(context.Background())

		Convey("When a client retries immediately", func() {
			creds := map[string]string{"username": "admin", "password": "nope"}
			w1, _ := h.do(http.MethodPost, "/api/auth/login", creds)
			w2, rep2 := h.do(http.MethodPost, "/api/auth/login", creds)

			Convey("Then the retry should be throttled", func() {
				So(w1.Code, ShouldEqual, http.StatusUnauthorized)
				So(w2.Code, ShouldEqual, http.StatusTooManyRequests)
				So(rep2.Code, ShouldEqual, "rate_limited")
			})
		})
	})
}
