package matching

import (
	"testing"

	"duomatch_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearWindow(t *testing.T) {
	tests := []struct {
		pref string
		want int
	}{
		{WhoToMeetSameYear, 1},
		{WhoToMeetWithinOne, 2},
		{WhoToMeetWithinTwo, 3},
		{WhoToMeetAnyone, Unlimited},
		{"", Unlimited},
		{"something new", Unlimited},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, YearWindow(tt.pref), tt.pref)
	}
}

func TestDuoYearWindowTakesStricterMember(t *testing.T) {
	d := duo(
		person("a", "male", "2025", models.Survey{models.QuestionWhoToMeet: WhoToMeetWithinTwo}),
		person("b", "male", "2025", models.Survey{models.QuestionWhoToMeet: WhoToMeetSameYear}),
	)
	assert.Equal(t, 1, DuoYearWindow(d))

	noSurvey := duo(person("c", "male", "2025", nil), person("d", "male", "2025", nil))
	assert.Equal(t, Unlimited, DuoYearWindow(noSurvey))
}

func TestGraduationYearFeasible(t *testing.T) {
	p := func(year string) models.UserProfile { return models.UserProfile{GraduationYear: year} }

	assert.True(t, GraduationYearFeasible(p("2025"), p("2026"), 1))
	assert.False(t, GraduationYearFeasible(p("2025"), p("2027"), 1))
	assert.True(t, GraduationYearFeasible(p("2025"), p("2040"), Unlimited))
	assert.True(t, GraduationYearFeasible(p(""), p("2040"), 1), "missing year never blocks")
	assert.True(t, GraduationYearFeasible(p("senior"), p("2040"), 1), "unparseable year never blocks")
	assert.True(t, GraduationYearFeasible(p(" 2025 "), p("2026"), 1))
}

func TestReligionFeasible(t *testing.T) {
	survey := func(declared string, preferred ...interface{}) models.Survey {
		return models.Survey{
			models.QuestionReligion:          []interface{}{declared},
			models.QuestionPreferredReligion: preferred,
		}
	}

	tests := []struct {
		name string
		a, b models.Survey
		want bool
	}{
		{"absent survey", nil, survey("Jewish", "Jewish"), true},
		{"no preference on one side", survey("Hindu", NoPreference), survey("Jewish", "Jewish"), true},
		{"declared in other's preferred", survey("Jewish", "Catholic"), survey("Hindu", "Jewish"), true},
		{"shared declared religion", survey("Muslim", "Catholic"), survey("Muslim", "Hindu"), true},
		{"no overlap", survey("Agnostic", "Catholic"), survey("Hindu", "Hindu"), false},
		{"religion questions skipped", models.Survey{models.QuestionHumor: "Dry"}, survey("Hindu", "Hindu"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReligionFeasible(tt.a, tt.b))
			assert.Equal(t, tt.want, ReligionFeasible(tt.b, tt.a))
		})
	}
}

func TestStrictPreferenceAgainstSilentSurvey(t *testing.T) {
	strict := models.Survey{
		models.QuestionReligion:               []interface{}{"Muslim"},
		models.QuestionPreferredReligion:      []interface{}{"Muslim"},
		models.QuestionRaceEthnicity:          []interface{}{"Asian"},
		models.QuestionPreferredRaceEthnicity: []interface{}{"Asian"},
	}
	silent := models.Survey{
		models.QuestionHumor:      "Dry and sarcastic",
		models.QuestionLookingFor: "A genuine relationship",
	}

	tests := []struct {
		name  string
		check func(a, b models.Survey) bool
	}{
		{"religion", ReligionFeasible},
		{"race", RaceFeasible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(strict, silent))
			assert.True(t, tt.check(silent, strict))
		})
	}

	men := duo(person("m1", "male", "2025", strict), person("m2", "male", "2025", strict))
	women := duo(person("w1", "female", "2025", silent), person("w2", "female", "2025", silent))
	assert.True(t, IsPairFeasible(men, women))
}

func TestRaceFeasibleUsesRaceFields(t *testing.T) {
	a := models.Survey{
		models.QuestionRaceEthnicity:          []interface{}{"Asian"},
		models.QuestionPreferredRaceEthnicity: []interface{}{"Asian"},
		models.QuestionReligion:               []interface{}{"Agnostic"},
		models.QuestionPreferredReligion:      []interface{}{"Agnostic"},
	}
	b := models.Survey{
		models.QuestionRaceEthnicity:          "White",
		models.QuestionPreferredRaceEthnicity: "White",
		models.QuestionReligion:               []interface{}{"Agnostic"},
		models.QuestionPreferredReligion:      []interface{}{"Agnostic"},
	}
	assert.False(t, RaceFeasible(a, b))
	assert.True(t, ReligionFeasible(a, b))
}

func TestScenarioAFeasible(t *testing.T) {
	men, women := scenarioA()
	report := ExplainPair(men, women)
	assert.True(t, report.Feasible)
	assert.Len(t, report.Links, 8)
	assert.Empty(t, report.Stranded)
}

// One man only accepts Catholics. He still has a feasible counterpart in the
// open-minded woman, so the duo pair passes even though one link fails.
func TestScenarioBExistentialLogic(t *testing.T) {
	men, women := scenarioA()
	men.First.Survey = with(men.First.Survey, models.QuestionReligion, []interface{}{"Agnostic"})
	men.First.Survey = with(men.First.Survey, models.QuestionPreferredReligion, []interface{}{"Catholic"})
	men.Second.Survey = with(men.Second.Survey, models.QuestionPreferredReligion, []interface{}{NoPreference})
	women.First.Survey = with(women.First.Survey, models.QuestionReligion, []interface{}{"Jewish"})
	women.First.Survey = with(women.First.Survey, models.QuestionPreferredReligion, []interface{}{NoPreference})
	women.Second.Survey = with(women.Second.Survey, models.QuestionReligion, []interface{}{"Jewish"})
	women.Second.Survey = with(women.Second.Survey, models.QuestionPreferredReligion, []interface{}{"Jewish"})

	assert.False(t, PersonFeasible(men.First, women.Second, Unlimited))

	report := ExplainPair(men, women)
	assert.True(t, report.Feasible)
	failing := 0
	for _, link := range report.Links {
		if !link.Feasible() {
			failing++
			assert.False(t, link.Religion)
		}
	}
	assert.Equal(t, 2, failing, "alex->dana and dana->alex are both evaluated")
}

func TestScenarioCYearWindow(t *testing.T) {
	strict := with(fullSurvey(), models.QuestionWhoToMeet, WhoToMeetSameYear)
	men := duo(person("alex", "male", "2025", strict), person("ben", "male", "2025", strict))

	women := func(y1, y2 string) models.Duo {
		return duo(person("cara", "female", y1, fullSurvey()), person("dana", "female", y2, fullSurvey()))
	}

	t.Run("two years apart", func(t *testing.T) {
		report := ExplainPair(men, women("2027", "2027"))
		assert.Equal(t, 1, report.Window)
		assert.False(t, report.Feasible)
		assert.ElementsMatch(t, []string{"alex", "ben", "cara", "dana"}, report.Stranded)
	})

	t.Run("within the lenient window", func(t *testing.T) {
		assert.True(t, IsPairFeasible(men, women("2026", "2026")))
	})

	t.Run("one stranded person sinks the pair", func(t *testing.T) {
		report := ExplainPair(men, women("2026", "2027"))
		assert.False(t, report.Feasible)
		assert.Equal(t, []string{"dana"}, report.Stranded)
	})

	t.Run("missing year escapes", func(t *testing.T) {
		unknown := duo(person("alex", "male", "2025", strict), person("ben", "male", "", strict))
		assert.True(t, IsPairFeasible(unknown, women("", "2027")))
	})
}

func TestExplainPairChecksBothDirections(t *testing.T) {
	men, women := scenarioA()
	report := ExplainPair(men, women)
	require.Len(t, report.Links, 8)
	assert.Equal(t, "alex", report.Links[0].From)
	assert.Equal(t, "cara", report.Links[0].To)
	assert.Equal(t, "cara", report.Links[4].From)
	assert.Equal(t, "alex", report.Links[4].To)
}
