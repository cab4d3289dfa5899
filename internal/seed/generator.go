package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/pkg/logger"
)

// Name and attribute pools for generated members.
var (
	familyNames = []string{"Nguyen", "Tran", "Le", "Pham", "Hoang", "Phan", "Vu", "Vo", "Dang", "Bui", "Do", "Ho", "Ngo", "Duong", "Ly"}
	middleNames = []string{"Van", "Thi", "Minh", "Ngoc", "Thanh", "Quoc", "Gia", "Bao", "Duc", "Hoai"}
	givenNames  = []string{"An", "Binh", "Chi", "Dung", "Giang", "Ha", "Hieu", "Hoa", "Khanh", "Lan", "Linh", "Long", "Mai", "Nam", "Phuc", "Quan", "Son", "Tam", "Trang", "Tuan", "Uyen", "Vy"}
	departments = []string{"Membership", "Training", "Events", "Finance", "Communications", "Partnerships"}
	positions   = []string{"Member", "Project Lead", "Coordinator", "Director", "Vice President"}
	cities      = []string{"Da Nang", "Hanoi", "Ho Chi Minh City", "Hue", "Hoi An"}
	tagPool     = []string{"mentor", "speaker", "volunteer", "board", "newcomer", "alumni-network"}
)

// Status and type weights out of 100.
const (
	activeShare    = 70
	onLeaveShare   = 80
	inactiveShare  = 92
	associateShare = 20
	honoraryShare  = 5

	minBirthYear = 1975
	birthYears   = 30
	joinYears    = 10
)

// generateMembers builds n member inputs. Emails are unique within a run.
func generateMembers(ctx context.Context, n int, seed uint64, now time.Time) []model.CreateMemberInput {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]model.CreateMemberInput, n)
	for i := range out {
		out[i] = generateMember(rng, i, now)
	}
	logger.Get().Info(ctx, "generated members", logger.Int("count", n), logger.Any("seed", seed))
	return out
}

func pick[T any](rng *rand.Rand, pool []T) T {
	return pool[rng.IntN(len(pool))]
}

func generateMember(rng *rand.Rand, i int, now time.Time) model.CreateMemberInput {
	family, middle, given := pick(rng, familyNames), pick(rng, middleNames), pick(rng, givenNames)

	dob := time.Date(minBirthYear+rng.IntN(birthYears), time.January, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, rng.IntN(365))
	join := now.AddDate(-rng.IntN(joinYears), 0, -rng.IntN(365))

	in := model.CreateMemberInput{
		FullName:    strings.Join([]string{family, middle, given}, " "),
		Email:       fmt.Sprintf("%s.%s.%d@seed.jci.vn", strings.ToLower(given), strings.ToLower(family), i+1),
		Phone:       fmt.Sprintf("+84 9%02d %03d %03d", rng.IntN(100), rng.IntN(1000), rng.IntN(1000)),
		DateOfBirth: dob.Format(time.DateOnly),
		Position:    pick(rng, positions),
		Department:  pick(rng, departments),
		JoinDate:    join.Format(time.DateOnly),
		City:        pick(rng, cities),
	}

	switch r := rng.IntN(100); {
	case r < activeShare:
		in.MembershipStatus = model.StatusActive
	case r < onLeaveShare:
		in.MembershipStatus = model.StatusOnLeave
	case r < inactiveShare:
		in.MembershipStatus = model.StatusInactive
	default:
		in.MembershipStatus = model.StatusAlumni
	}
	switch r := rng.IntN(100); {
	case r < honoraryShare:
		in.MembershipType = model.TypeHonorary
	case r < associateShare:
		in.MembershipType = model.TypeAssociate
	default:
		in.MembershipType = model.TypeFullMember
	}
	if rng.IntN(3) == 0 {
		in.Tags = []string{pick(rng, tagPool)}
	}
	return in
}
