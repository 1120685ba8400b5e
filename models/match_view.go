package models

// ProfileSummary is the profile data shown with a match
type ProfileSummary struct {
	UserID         string `json:"userId"`
	FullName       string `json:"fullName,omitempty"`
	Email          string `json:"email,omitempty"`
	Gender         string `json:"gender,omitempty"`
	GraduationYear string `json:"graduationYear,omitempty"`
	Major          string `json:"major,omitempty"`
}

// MatchView is a weekly match seen from one participant's side
type MatchView struct {
	MatchID            string           `json:"id"`
	CompatibilityScore int              `json:"compatibilityScore"`
	Reasons            []string         `json:"reasons"`
	YourDuo            []ProfileSummary `json:"yourDuo"`
	MatchedDuo         []ProfileSummary `json:"matchedDuo"`
	MatchWeek          string           `json:"matchWeek"`
}
