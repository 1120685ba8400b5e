package matching

import (
	"context"
	"strconv"
	"strings"
	"time"

	"duomatch_server/models"
)

func person(id, gender, year string, survey models.Survey) models.Person {
	return models.Person{
		Profile: models.UserProfile{
			UserID:          id,
			FullName:        strings.ToUpper(id[:1]) + id[1:],
			Gender:          gender,
			GraduationYear:  year,
			SurveyCompleted: true,
		},
		Survey: survey,
	}
}

func duo(a, b models.Person) models.Duo {
	a.Profile.PartnerID = b.ID()
	b.Profile.PartnerID = a.ID()
	return models.Duo{First: a, Second: b}
}

// fullSurvey answers every scored question identically apart from hobbies
func fullSurvey(hobbies ...string) models.Survey {
	list := make([]interface{}, len(hobbies))
	for i, h := range hobbies {
		list[i] = h
	}
	return models.Survey{
		models.QuestionLookingFor:     "A genuine relationship",
		models.QuestionWhoToMeet:      WhoToMeetAnyone,
		models.QuestionFridayNight:    "Good food and conversation",
		models.QuestionHumor:          "Dry and sarcastic",
		models.QuestionArgument:       "Let's talk it through calmly",
		models.QuestionSocialBattery:  "Right in the middle",
		models.QuestionHobbies:        list,
		models.QuestionGoingOut:       "Some weekends",
		models.QuestionAlcohol:        "Socially",
		models.QuestionPartnerAlcohol: "Doesn't matter",
		models.QuestionTexting:        "Frequent check-ins",
		models.QuestionFriendGroups:   "Everyone should get along",
		models.QuestionDealbreakers:   []interface{}{"None — I'm open-minded"},
	}
}

func with(s models.Survey, question string, value interface{}) models.Survey {
	out := models.Survey{}
	for k, v := range s {
		out[k] = v
	}
	out[question] = value
	return out
}

var (
	menHobbies   = []string{"Hiking", "Cooking", "Gaming", "Reading", "Music"}
	womenHobbies = []string{"Hiking", "Cooking", "Art", "Dance", "Film"}
)

// scenarioA is a men's duo and a women's duo with near identical answers
func scenarioA() (models.Duo, models.Duo) {
	men := duo(
		person("alex", "male", "2025", fullSurvey(menHobbies...)),
		person("ben", "Male", "2025", fullSurvey(menHobbies...)),
	)
	women := duo(
		person("cara", "female", "2025", fullSurvey(womenHobbies...)),
		person("dana", "F", "2025", fullSurvey(womenHobbies...)),
	)
	return men, women
}

// memoryStore is an in-memory DuoSource, HistorySource and MatchStore
type memoryStore struct {
	duos    []models.Duo
	records []models.WeeklyMatch

	loadErr    error
	historyErr error
	writeErr   error

	writes  int
	cleared bool
}

func (m *memoryStore) LoadActiveDuos(ctx context.Context) ([]models.Duo, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.duos, nil
}

func (m *memoryStore) PreviousMatches(ctx context.Context, before time.Time) ([]models.WeeklyMatch, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	cutoff := models.FormatMatchWeek(before)
	var out []models.WeeklyMatch
	for _, r := range m.records {
		if r.MatchWeek < cutoff {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) HasMatches(ctx context.Context, week time.Time) (bool, error) {
	return len(m.weekRecords(week)) > 0, nil
}

func (m *memoryStore) ReplaceWeek(ctx context.Context, week time.Time, records []models.WeeklyMatch, clearExisting bool) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	if clearExisting {
		m.cleared = true
		key := models.FormatMatchWeek(week)
		kept := m.records[:0]
		for _, r := range m.records {
			if r.MatchWeek != key {
				kept = append(kept, r)
			}
		}
		m.records = kept
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memoryStore) weekRecords(week time.Time) []models.WeeklyMatch {
	key := models.FormatMatchWeek(week)
	var out []models.WeeklyMatch
	for _, r := range m.records {
		if r.MatchWeek == key {
			out = append(out, r)
		}
	}
	return out
}

func newTestEngine(store *memoryStore) *Engine {
	e := NewEngine(store, store, store)
	e.Now = func() time.Time { return time.Date(2025, 3, 4, 21, 0, 0, 0, time.UTC) }
	n := 0
	e.NewID = func() string {
		n++
		return "match-" + strconv.Itoa(n)
	}
	return e
}
