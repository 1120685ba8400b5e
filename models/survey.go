package models

import "strings"

// Survey question ids as stored in the answers map
const (
	QuestionLookingFor             = "q1_looking_for"
	QuestionWhoToMeet              = "q2_who_to_meet"
	QuestionRaceEthnicity          = "q_race_ethnicity"
	QuestionPreferredRaceEthnicity = "q_preferred_race_ethnicity"
	QuestionReligion               = "q_religious_affiliation"
	QuestionPreferredReligion      = "q_preferred_religious_affiliation"
	QuestionFridayNight            = "q3_friday_night"
	QuestionHumor                  = "q4_humor"
	QuestionArgument               = "q5_argument"
	QuestionSocialBattery          = "q6_social_battery"
	QuestionHobbies                = "q7_hobbies"
	QuestionGoingOut               = "q8_going_out"
	QuestionAlcohol                = "q9_alcohol"
	QuestionPartnerAlcohol         = "q10_partner_alcohol"
	QuestionTexting                = "q11_texting"
	QuestionFriendGroups           = "q12_friend_groups"
	QuestionDealbreakers           = "q13_dealbreakers"
)

// Survey is one person's answer bag. Values are strings or string lists.
// A nil Survey means the person has no survey on record.
type Survey map[string]interface{}

// SurveyResponse is a row of the SurveyResponses table
type SurveyResponse struct {
	UserID  string `dynamodbav:"userId" json:"userId"`   // Partition Key
	Answers Survey `dynamodbav:"answers" json:"answers"` // Question id -> answer
}

// SurveyResponsesTable is the DynamoDB table name for survey answers
const SurveyResponsesTable = "SurveyResponses"

// String returns a scalar answer, or "" when missing or not a string
func (s Survey) String(question string) string {
	if s == nil {
		return ""
	}
	if v, ok := s[question].(string); ok {
		return v
	}
	return ""
}

// Strings returns a multi-select answer. A lone string is treated as a one-item list.
func (s Survey) Strings(question string) []string {
	if s == nil {
		return nil
	}
	switch v := s[question].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Answered reports whether any of the questions has a non-empty answer
func (s Survey) Answered(questions ...string) bool {
	for _, q := range questions {
		if s.String(q) != "" || len(s.Strings(q)) > 0 {
			return true
		}
	}
	return false
}
