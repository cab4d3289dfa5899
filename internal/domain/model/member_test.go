package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/smartystreets/goconvey/convey"
)

func strPtr(s string) *string { return &s }

func TestCreateMemberInput(t *testing.T) {
	convey.Convey("Given a create input", t, func() {
		in := model.CreateMemberInput{
			FullName:    "  Nguyen Van A ",
			Email:       "a@example.com",
			DateOfBirth: "2003-12-04",
			Tags:        []string{" board ", "", "events"},
		}

		convey.Convey("When building the member", func() {
			m, err := in.Member()

			convey.Convey("Then zodiac fields should be derived and defaults applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.FullName, convey.ShouldEqual, "Nguyen Van A")
				convey.So(m.ZodiacSign, convey.ShouldEqual, zodiac.Sagittarius)
				convey.So(m.ZodiacElement, convey.ShouldEqual, zodiac.Fire)
				convey.So(m.MembershipStatus, convey.ShouldEqual, model.StatusActive)
				convey.So(m.MembershipType, convey.ShouldEqual, model.TypeFullMember)
				convey.So(m.Tags, convey.ShouldResemble, []string{"board", "events"})
				convey.So(m.Active(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the date of birth is an RFC 3339 timestamp", func() {
			in.DateOfBirth = "1990-07-23T10:00:00Z"
			m, err := in.Member()

			convey.Convey("Then it should be stored as a plain date", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.DateOfBirth, convey.ShouldEqual, "1990-07-23")
				convey.So(m.ZodiacSign, convey.ShouldEqual, zodiac.Leo)
			})
		})

		convey.Convey("When required or enum fields are wrong", func() {
			bad := []model.CreateMemberInput{
				{FullName: " ", DateOfBirth: "2003-12-04"},
				{FullName: "X", DateOfBirth: "2003-02-30"},
				{FullName: "X", DateOfBirth: "2003-12-04", Email: "nope"},
				{FullName: "X", DateOfBirth: "2003-12-04", JoinDate: "yesterday"},
				{FullName: "X", DateOfBirth: "2003-12-04", MembershipStatus: "Retired"},
				{FullName: "X", DateOfBirth: "2003-12-04", MembershipType: "Gold"},
			}

			convey.Convey("Then validation should fail with ErrInvalidMember", func() {
				for _, b := range bad {
					_, err := b.Member()
					convey.So(errors.Is(err, model.ErrInvalidMember), convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When the date of birth is malformed", func() {
			in.DateOfBirth = "04/12/2003"
			_, err := in.Member()

			convey.Convey("Then the classifier error should be reachable", func() {
				convey.So(errors.Is(err, zodiac.ErrInvalidInput), convey.ShouldBeTrue)
			})
		})
	})
}

func TestUpdateMemberInput(t *testing.T) {
	convey.Convey("Given a stored member", t, func() {
		m, err := model.CreateMemberInput{FullName: "B", DateOfBirth: "2001-03-21"}.Member()
		convey.So(err, convey.ShouldBeNil)
		convey.So(m.ZodiacSign, convey.ShouldEqual, zodiac.Aries)

		convey.Convey("When the date of birth changes", func() {
			out, err := model.UpdateMemberInput{DateOfBirth: strPtr("2001-10-01")}.Apply(m)

			convey.Convey("Then the sign should be re-derived", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.ZodiacSign, convey.ShouldEqual, zodiac.Libra)
				convey.So(out.ZodiacElement, convey.ShouldEqual, zodiac.Air)
				convey.So(out.FullName, convey.ShouldEqual, "B")
			})
		})

		convey.Convey("When only the status changes", func() {
			st := model.StatusAlumni
			out, err := model.UpdateMemberInput{MembershipStatus: &st}.Apply(m)

			convey.Convey("Then other fields should be kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.MembershipStatus, convey.ShouldEqual, model.StatusAlumni)
				convey.So(out.ZodiacSign, convey.ShouldEqual, zodiac.Aries)
				convey.So(out.Active(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the name is blanked", func() {
			_, err := model.UpdateMemberInput{FullName: strPtr("")}.Apply(m)

			convey.Convey("Then the update should be rejected", func() {
				convey.So(errors.Is(err, model.ErrInvalidMember), convey.ShouldBeTrue)
			})
		})
	})
}

func TestSearchQuery(t *testing.T) {
	convey.Convey("Given a search query", t, func() {
		convey.Convey("When normalizing an empty query", func() {
			q, err := model.SearchQuery{}.Normalize()

			convey.Convey("Then defaults should be filled in", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.Size, convey.ShouldEqual, model.DefaultPageSize)
				convey.So(q.SortBy, convey.ShouldEqual, model.SortFullName)
				convey.So(q.Direction, convey.ShouldEqual, model.Asc)
			})
		})

		convey.Convey("When values are out of range", func() {
			bad := []model.SearchQuery{
				{Page: -1},
				{Size: 101},
				{Size: -3},
				{SortBy: "age"},
				{Direction: "sideways"},
				{Sign: "Ophiuchus"},
				{Element: "Metal"},
				{Status: "Gone"},
				{Page: 92233720368547759, Size: 100},
				{Page: math.MaxInt},
			}

			convey.Convey("Then ErrInvalidQuery should be returned", func() {
				for _, b := range bad {
					_, err := b.Normalize()
					convey.So(errors.Is(err, model.ErrInvalidQuery), convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When matching members", func() {
			m := model.Member{
				MemberCode: "JCI-0007", FullName: "Tran Thi B", Email: "b@jci.vn",
				ZodiacSign: zodiac.Leo, ZodiacElement: zodiac.Fire,
				MembershipStatus: model.StatusActive, Department: "Events",
			}

			convey.Convey("Then keyword and filters should apply", func() {
				convey.So(model.SearchQuery{Keyword: "thi"}.Matches(m), convey.ShouldBeTrue)
				convey.So(model.SearchQuery{Keyword: "jci-0007"}.Matches(m), convey.ShouldBeTrue)
				convey.So(model.SearchQuery{Keyword: "zzz"}.Matches(m), convey.ShouldBeFalse)
				convey.So(model.SearchQuery{Element: zodiac.Fire, Department: "events"}.Matches(m), convey.ShouldBeTrue)
				convey.So(model.SearchQuery{Sign: zodiac.Aries}.Matches(m), convey.ShouldBeFalse)
				m.Deleted = true
				convey.So(model.SearchQuery{}.Matches(m), convey.ShouldBeFalse)
			})
		})
	})
}

func TestSortAndPage(t *testing.T) {
	convey.Convey("Given a few members", t, func() {
		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		ms := []model.Member{
			{ID: 1, FullName: "charlie", DateOfBirth: "1999-01-01", CreatedAt: now},
			{ID: 2, FullName: "Alice", DateOfBirth: "2001-01-01", CreatedAt: now.Add(time.Hour)},
			{ID: 3, FullName: "bob", DateOfBirth: "1990-01-01", CreatedAt: now.Add(-time.Hour)},
		}

		convey.Convey("When sorting by name ascending", func() {
			model.SortMembers(ms, model.SortFullName, model.Asc)

			convey.Convey("Then the order should ignore case", func() {
				convey.So(ms[0].ID, convey.ShouldEqual, 2)
				convey.So(ms[1].ID, convey.ShouldEqual, 3)
				convey.So(ms[2].ID, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When sorting by creation time descending", func() {
			model.SortMembers(ms, model.SortCreatedAt, model.Desc)

			convey.Convey("Then the newest should be first", func() {
				convey.So(ms[0].ID, convey.ShouldEqual, 2)
				convey.So(ms[2].ID, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When paginating", func() {
			p0 := model.Paginate(ms, 0, 2)
			p1 := model.Paginate(ms, 1, 2)
			p9 := model.Paginate(ms, 9, 2)

			convey.Convey("Then page metadata should be consistent", func() {
				convey.So(len(p0.Content), convey.ShouldEqual, 2)
				convey.So(p0.First, convey.ShouldBeTrue)
				convey.So(p0.Last, convey.ShouldBeFalse)
				convey.So(p0.TotalPages, convey.ShouldEqual, 2)
				convey.So(len(p1.Content), convey.ShouldEqual, 1)
				convey.So(p1.Last, convey.ShouldBeTrue)
				convey.So(p9.Content, convey.ShouldNotBeNil)
				convey.So(len(p9.Content), convey.ShouldEqual, 0)
				convey.So(p9.TotalElements, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the page is far past the end", func() {
			convey.Convey("Then the page should be empty rather than panic", func() {
				for _, page := range []int{math.MaxInt, math.MaxInt/2 + 1, 92233720368547759} {
					var p model.Page[model.Member]
					convey.So(func() { p = model.Paginate(ms, page, 100) }, convey.ShouldNotPanic)
					convey.So(len(p.Content), convey.ShouldEqual, 0)
					convey.So(p.Page, convey.ShouldEqual, page)
				}
			})
		})

		convey.Convey("Then member codes should be zero padded", func() {
			convey.So(model.CodeFor(7), convey.ShouldEqual, "JCI-0007")
			convey.So(model.CodeFor(12345), convey.ShouldEqual, "JCI-12345")
		})
	})
}
