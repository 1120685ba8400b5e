package models

import "time"

// WeeklyMatch is one persisted duo-vs-duo assignment.
// User1/User2 are the group A duo, User3/User4 the group B duo.
type WeeklyMatch struct {
	MatchWeek          string   `dynamodbav:"matchWeek" json:"matchWeek"`                   // Partition Key, see FormatMatchWeek
	MatchID            string   `dynamodbav:"matchId" json:"matchId"`                       // Sort Key
	User1ID            string   `dynamodbav:"user1Id" json:"user1Id"`                       // Group A duo
	User2ID            string   `dynamodbav:"user2Id" json:"user2Id"`                       // Group A duo
	User3ID            string   `dynamodbav:"user3Id" json:"user3Id"`                       // Group B duo
	User4ID            string   `dynamodbav:"user4Id" json:"user4Id"`                       // Group B duo
	CompatibilityScore int      `dynamodbav:"compatibilityScore" json:"compatibilityScore"` // 0-100
	MatchReasons       []string `dynamodbav:"matchReasons" json:"matchReasons"`             // Never empty
	CreatedAt          string   `dynamodbav:"createdAt" json:"createdAt"`                   // RFC3339 millis, UTC
}

// WeeklyMatchesTable is the DynamoDB table name for weekly matches
const WeeklyMatchesTable = "WeeklyMatches"

// MatchWeekLayout is the ISO-8601 form used for matchWeek and createdAt
const MatchWeekLayout = "2006-01-02T15:04:05.000Z"

// FormatMatchWeek renders a timestamp in UTC with millisecond precision.
// The fixed width keeps string comparison in week order.
func FormatMatchWeek(t time.Time) string {
	return t.UTC().Format(MatchWeekLayout)
}

// UserIDs returns the four participants
func (m WeeklyMatch) UserIDs() [4]string {
	return [4]string{m.User1ID, m.User2ID, m.User3ID, m.User4ID}
}

// Includes reports whether userID is one of the four participants
func (m WeeklyMatch) Includes(userID string) bool {
	for _, id := range m.UserIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

// InFirstDuo reports whether userID belongs to the group A duo
func (m WeeklyMatch) InFirstDuo(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}
