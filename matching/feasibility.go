package matching

import (
	"math"

	"duomatch_server/models"
)

// Unlimited is the year window of "Anyone at Penn"
const Unlimited = math.MaxInt

// NoPreference is the sentinel in the preferred-religion and preferred-race lists
const NoPreference = "No preference"

// "Who do you want to meet" options, most to least restrictive
const (
	WhoToMeetSameYear  = "Only people in my year"
	WhoToMeetWithinOne = "People within 1 year of me"
	WhoToMeetWithinTwo = "People within 2 years of me"
	WhoToMeetAnyone    = "Anyone at Penn — age is just a number"
)

// YearWindow maps a "who to meet" answer to the largest allowed graduation-year gap.
// The two strict levels get one extra year of leniency.
func YearWindow(preference string) int {
	switch preference {
	case WhoToMeetSameYear:
		return 1
	case WhoToMeetWithinOne:
		return 2
	case WhoToMeetWithinTwo:
		return 3
	default:
		return Unlimited
	}
}

// DuoYearWindow is the more restrictive of the two members' windows
func DuoYearWindow(duo models.Duo) int {
	return min(
		YearWindow(duo.First.Survey.String(models.QuestionWhoToMeet)),
		YearWindow(duo.Second.Survey.String(models.QuestionWhoToMeet)),
	)
}

// GraduationYearFeasible never blocks on missing or unparseable years.
func GraduationYearFeasible(a, b models.UserProfile, window int) bool {
	if window == Unlimited {
		return true
	}
	yearA, okA := a.GraduationYearValue()
	yearB, okB := b.GraduationYearValue()
	if !okA || !okB {
		return true
	}
	gap := yearA - yearB
	if gap < 0 {
		gap = -gap
	}
	return gap <= window
}

// ReligionFeasible checks declared religions against preferred religions
func ReligionFeasible(a, b models.Survey) bool {
	return preferenceFeasible(a, b, models.QuestionReligion, models.QuestionPreferredReligion)
}

// RaceFeasible checks declared race/ethnicity against preferred race/ethnicity
func RaceFeasible(a, b models.Survey) bool {
	return preferenceFeasible(a, b, models.QuestionRaceEthnicity, models.QuestionPreferredRaceEthnicity)
}

func preferenceFeasible(a, b models.Survey, declaredQ, preferredQ string) bool {
	if a == nil || b == nil {
		return true
	}
	// a survey that skipped both questions says nothing about this dimension
	if !a.Answered(declaredQ, preferredQ) || !b.Answered(declaredQ, preferredQ) {
		return true
	}
	declaredA, preferredA := a.Strings(declaredQ), a.Strings(preferredQ)
	declaredB, preferredB := b.Strings(declaredQ), b.Strings(preferredQ)

	if contains(preferredA, NoPreference) || contains(preferredB, NoPreference) {
		return true
	}
	return intersects(declaredA, preferredB) ||
		intersects(declaredB, preferredA) ||
		intersects(declaredA, declaredB)
}

// LinkCheck is the outcome of one directed person-to-person check
type LinkCheck struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Year     bool   `json:"year"`
	Religion bool   `json:"religion"`
	Race     bool   `json:"race"`
}

// Feasible is true when all three predicates hold
func (c LinkCheck) Feasible() bool {
	return c.Year && c.Religion && c.Race
}

// CheckPerson evaluates the three hard predicates from a's side towards b
func CheckPerson(a, b models.Person, window int) LinkCheck {
	return LinkCheck{
		From:     a.ID(),
		To:       b.ID(),
		Year:     GraduationYearFeasible(a.Profile, b.Profile, window),
		Religion: ReligionFeasible(a.Survey, b.Survey),
		Race:     RaceFeasible(a.Survey, b.Survey),
	}
}

// PersonFeasible is CheckPerson reduced to a bool
func PersonFeasible(a, b models.Person, window int) bool {
	return CheckPerson(a, b, window).Feasible()
}

// FeasibilityReport explains a duo-to-duo decision
type FeasibilityReport struct {
	Window   int         `json:"window"`
	Links    []LinkCheck `json:"links"`    // 8 directed checks: A members -> B members, then B -> A
	Stranded []string    `json:"stranded"` // people with no feasible counterpart
	Feasible bool        `json:"feasible"`
}

// ExplainPair runs the existential duo check: every one of the four people needs
// at least one feasible counterpart in the other duo, under the shared year window.
// Both directions are evaluated independently.
func ExplainPair(a, b models.Duo) FeasibilityReport {
	report := FeasibilityReport{Window: min(DuoYearWindow(a), DuoYearWindow(b))}
	sides := [2][2]models.Duo{{a, b}, {b, a}}
	for _, side := range sides {
		for _, person := range side[0].Members() {
			ok := false
			for _, other := range side[1].Members() {
				check := CheckPerson(person, other, report.Window)
				report.Links = append(report.Links, check)
				ok = ok || check.Feasible()
			}
			if !ok {
				report.Stranded = append(report.Stranded, person.ID())
			}
		}
	}
	report.Feasible = len(report.Stranded) == 0
	return report
}

// IsPairFeasible is the duo-to-duo gate applied before scoring
func IsPairFeasible(a, b models.Duo) bool {
	return ExplainPair(a, b).Feasible
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}
