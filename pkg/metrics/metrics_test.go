package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func familyNames(reg *prometheus.Registry) map[string]bool {
	names := map[string]bool{}
	mfs, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(reg),
			)
			m.membersTotal.Set(3)
			m.classifications.WithLabelValues("Leo").Inc()

			Convey("Then metrics should be registered under the namespace", func() {
				names := familyNames(reg)
				So(names["test_unit_members_total"], ShouldBeTrue)
				So(names["test_unit_classifications_total"], ShouldBeTrue)
			})
		})

		Convey("When registering the same set twice", func() {
			NewManager(WithPrometheusRegistry(reg))

			Convey("Then the duplicate registration should panic", func() {
				So(func() { NewManager(WithPrometheusRegistry(reg)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global metric helpers", t, func() {
		Convey("When every helper is called", func() {
			So(func() {
				RecordClassification("Sagittarius")
				RecordClassificationFailure()
				RecordCompatibilityEvaluation("pair")
				RecordCompatibilityEvaluation("group")
				RecordBalanceAnalysis()
				UpdateMembersTotal(10)
				UpdateMembersActive(7)
				RecordRepositoryLatency("memory", "create", 0.2)
				RecordIdempotentReplay()
				UpdateBirthdaysToday(2)
				RecordBirthdayDigestRun()
				RecordHTTPRequest("/api/members", "GET", "200")
				RecordHTTPRequestDuration("/api/members", "GET", "200", 0.01)
				UpdateQueueSize(4)
				UpdateQueueCapacity(100)
				RecordQueueEnqueue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(2)
				RecordWorkerRow("ok")
				RecordWorkerProcessingLatency(1.5)
				RecordLoginAttempt("ok")
				UpdateActiveSessions(1)
				RecordErrorByComponent("api", "bad_request")
			}, ShouldNotPanic)

			Convey("Then the custom registry should expose them", func() {
				names := familyNames(GetRegistry())
				for _, want := range []string{
					"zodiac_hr_classifications_total",
					"zodiac_hr_http_requests_total",
					"zodiac_hr_import_rows_total",
					"zodiac_hr_login_attempts_total",
					"zodiac_hr_birthdays_today",
				} {
					So(names[want], ShouldBeTrue)
				}
				for n := range names {
					So(strings.HasPrefix(n, "go_"), ShouldBeFalse)
				}
			})
		})
	})
}

func TestConcurrentRecording(t *testing.T) {
	Convey("Given concurrent writers", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordClassification("Aries")
					RecordHTTPRequest("/x", "GET", "200")
				}
			}()
		}

		Convey("Then recording should not race or panic", func() {
			So(func() { wg.Wait() }, ShouldNotPanic)
		})
	})
}
