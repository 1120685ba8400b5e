package matching

import (
	"fmt"
	"math"
	"strings"

	"duomatch_server/models"
)

// Category weights; they add up to 100
const (
	GoalsWeight         = 25
	PersonalityWeight   = 30
	LifestyleWeight     = 25
	CommunicationWeight = 20

	// NeutralScore is returned when neither duo has any survey on record
	NeutralScore = 50

	dealbreakerPenalty = 5
	maxHobbyPoints     = 12
)

// DefaultReason is used when no category produced a reason
const DefaultReason = "Compatible match based on profiles"

// Sentinels
const (
	AlcoholDealbreaker = "Dealbreaker"
	DoesNotDrink       = "I don't drink"
)

// openMinded holds the "no dealbreakers" answer; the survey wording changed once
var openMinded = []string{"None — I'm pretty open-minded", "None — I'm open-minded"}

var goalScale = []string{
	"Just seeing where things go",
	"Just having fun for now",
	"Keeping it casual but open to more",
	"Something serious, but not in a rush",
	"A genuine relationship",
	"My person — the real deal",
}

var fridayClusters = [][]string{
	{"Low-key in my dorm or chilling quietly alone", "Studying in a GSR at Huntsman"},
	{"Hanging with a small group of friends", "Good food and conversation"},
	{"Out with a crowd — party or bar", "Multiple times a week"},
}

var communicativeConflict = []string{"Let's talk it through calmly", "I'm emotional but communicative"}

var socialBattery = map[string]int{
	"Extreme introvert":   1,
	"Introvert-leaning":   2,
	"Right in the middle": 3,
	"Extrovert-leaning":   4,
	"Extreme extrovert":   5,
}

var goingOutClusters = [][]string{
	{"Never", "Rarely"},
	{"Occasionally", "Some weekends"},
	{"Most weekends", "Multiple times a week"},
}

var textingClusters = [][]string{
	{"Only when something matters", "Not a big texter"},
	{"Daily when there's something to say", "Frequent check-ins"},
	{"Constant all day"},
}

var friendGroupClusters = [][]string{
	{"Totally separate is fine", "Separate squads that overlap sometimes", "We keep our own friendships"},
	{"Everyone should get along", "All my friends are your friends"},
}

// Breakdown is the per-category tally behind a score
type Breakdown struct {
	Goals         int `json:"goals"`
	Personality   int `json:"personality"`
	Lifestyle     int `json:"lifestyle"`
	Communication int `json:"communication"`
	Penalty       int `json:"penalty"`
	Total         int `json:"total"`
	Max           int `json:"max"`
}

// Score is a 0-100 compatibility value with the reasons that earned it
type Score struct {
	Value     int       `json:"value"`
	Reasons   []string  `json:"reasons"`
	Breakdown Breakdown `json:"breakdown"`
}

// ScorePair computes the soft compatibility of two duos from their survey answers.
// It does not look at feasibility.
func ScorePair(a, b models.Duo) Score {
	var bd Breakdown
	var reasons []string

	// Relationship goals
	if ga, gb := scaleIndex(a.Answer(models.QuestionLookingFor)), scaleIndex(b.Answer(models.QuestionLookingFor)); ga >= 0 && gb >= 0 {
		diff := abs(ga - gb)
		bd.Goals = (5 - min(diff, 5)) * 5
		if diff <= 1 {
			reasons = append(reasons, "Similar relationship goals")
		}
	}

	// Personality & social vibe
	if fa, fb := a.Answer(models.QuestionFridayNight), b.Answer(models.QuestionFridayNight); fa != "" && fb != "" {
		if fa == fb {
			bd.Personality += 8
		} else if sameCluster(fridayClusters, fa, fb) {
			bd.Personality += 5
		}
	}
	if ha, hb := a.Answer(models.QuestionHumor), b.Answer(models.QuestionHumor); ha != "" && ha == hb {
		bd.Personality += 7
		reasons = append(reasons, "Similar humor style")
	}
	if ca, cb := a.Answer(models.QuestionArgument), b.Answer(models.QuestionArgument); ca != "" && cb != "" {
		if ca == cb {
			bd.Personality += 8
		} else if contains(communicativeConflict, ca) && contains(communicativeConflict, cb) {
			bd.Personality += 5
		}
	}
	if sa, sb := a.Answer(models.QuestionSocialBattery), b.Answer(models.QuestionSocialBattery); sa != "" && sb != "" {
		switch abs(batteryLevel(sa) - batteryLevel(sb)) {
		case 1, 2:
			bd.Personality += 7
			reasons = append(reasons, "Complementary social energy")
		case 0:
			bd.Personality += 5
		}
	}

	// Lifestyle
	if ha, hb := a.Answers(models.QuestionHobbies), b.Answers(models.QuestionHobbies); len(ha) > 0 && len(hb) > 0 {
		var shared []string
		for _, h := range ha {
			if contains(hb, h) {
				shared = append(shared, h)
			}
		}
		bd.Lifestyle += min(len(shared)*3, maxHobbyPoints)
		if len(shared) > 0 {
			reasons = append(reasons, "Shared hobbies: "+strings.Join(shared[:min(len(shared), 2)], ", "))
		}
	}
	if oa, ob := a.Answer(models.QuestionGoingOut), b.Answer(models.QuestionGoingOut); oa != "" && ob != "" {
		if oa == ob {
			bd.Lifestyle += 5
		} else if sameCluster(goingOutClusters, oa, ob) {
			bd.Lifestyle += 3
		}
	}
	bd.Lifestyle += alcoholPoints(a, b)

	// Communication & social merging
	if ta, tb := a.Answer(models.QuestionTexting), b.Answer(models.QuestionTexting); ta != "" && tb != "" {
		if ta == tb {
			bd.Communication += 8
		} else if sameCluster(textingClusters, ta, tb) {
			bd.Communication += 5
		}
	}
	if fa, fb := a.Answer(models.QuestionFriendGroups), b.Answer(models.QuestionFriendGroups); fa != "" && fb != "" {
		if fa == fb {
			bd.Communication += 12
			reasons = append(reasons, "Compatible friend group preferences")
		} else if sameCluster(friendGroupClusters, fa, fb) {
			bd.Communication += 8
		}
	}

	bd.Penalty = dealbreakerOverlap(a, b) * dealbreakerPenalty
	bd.Total = bd.Goals + bd.Personality + bd.Lifestyle + bd.Communication - bd.Penalty
	if a.HasSurvey() || b.HasSurvey() {
		bd.Max = GoalsWeight + PersonalityWeight + LifestyleWeight + CommunicationWeight
	}

	if len(reasons) == 0 {
		reasons = []string{DefaultReason}
	}
	return Score{Value: finalScore(bd.Total, bd.Max), Reasons: reasons, Breakdown: bd}
}

// String renders the breakdown the way it is logged
func (b Breakdown) String() string {
	return fmt.Sprintf("goals %d/%d, personality %d/%d, lifestyle %d/%d, communication %d/%d, penalty -%d, total %d/%d",
		b.Goals, GoalsWeight, b.Personality, PersonalityWeight, b.Lifestyle, LifestyleWeight,
		b.Communication, CommunicationWeight, b.Penalty, b.Total, b.Max)
}

func finalScore(total, maxScore int) int {
	if maxScore <= 0 {
		return NeutralScore
	}
	value := int(math.Floor(float64(total)/float64(maxScore)*100 + 0.5))
	return min(100, max0(value))
}

// alcoholPoints awards 8 unless a non-drinker faces a partner who calls drinking a dealbreaker
func alcoholPoints(a, b models.Duo) int {
	aa, ab := a.Answer(models.QuestionAlcohol), b.Answer(models.QuestionAlcohol)
	pa, pb := a.Answer(models.QuestionPartnerAlcohol), b.Answer(models.QuestionPartnerAlcohol)
	if aa == "" || ab == "" || pa == "" || pb == "" {
		return 0
	}
	if (aa == DoesNotDrink && pb == AlcoholDealbreaker) || (ab == DoesNotDrink && pa == AlcoholDealbreaker) {
		return 0
	}
	return 8
}

// dealbreakerOverlap counts shared dealbreakers unless both duos are open-minded
func dealbreakerOverlap(a, b models.Duo) int {
	da, db := a.Answers(models.QuestionDealbreakers), b.Answers(models.QuestionDealbreakers)
	if intersects(da, openMinded) && intersects(db, openMinded) {
		return 0
	}
	overlap := 0
	for _, d := range da {
		if contains(db, d) {
			overlap++
		}
	}
	return overlap
}

func scaleIndex(answer string) int {
	for i, option := range goalScale {
		if option == answer {
			return i
		}
	}
	return -1
}

// batteryLevel treats unknown wording as "Right in the middle"
func batteryLevel(answer string) int {
	if v, ok := socialBattery[answer]; ok {
		return v
	}
	return 3
}

func sameCluster(clusters [][]string, a, b string) bool {
	for _, cluster := range clusters {
		if contains(cluster, a) && contains(cluster, b) {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
