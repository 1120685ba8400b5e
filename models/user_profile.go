package models

import (
	"strconv"
	"strings"
)

// UserProfile is the profile row the matcher reads
type UserProfile struct {
	UserID          string `dynamodbav:"userId" json:"userId"`                                     // Partition Key
	FullName        string `dynamodbav:"fullName,omitempty" json:"fullName,omitempty"`             // Display name
	Email           string `dynamodbav:"email,omitempty" json:"email,omitempty"`                   // Login email
	Gender          string `dynamodbav:"gender,omitempty" json:"gender,omitempty"`                 // Free text, see NormalizeGender
	GraduationYear  string `dynamodbav:"graduationYear,omitempty" json:"graduationYear,omitempty"` // Free text, e.g. "2026"
	Major           string `dynamodbav:"major,omitempty" json:"major,omitempty"`                   // Shown on the match reveal
	PartnerID       string `dynamodbav:"partnerId,omitempty" json:"partnerId,omitempty"`           // Declared duo partner
	SurveyCompleted bool   `dynamodbav:"surveyCompleted" json:"surveyCompleted"`                   // Set once the survey is submitted
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"

// DisplayName falls back to email, then id
func (p UserProfile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.Email != "" {
		return p.Email
	}
	return p.UserID
}

// GraduationYearValue parses the graduation year. ok is false when it is missing or not a number.
func (p UserProfile) GraduationYearValue() (int, bool) {
	raw := strings.TrimSpace(p.GraduationYear)
	if raw == "" {
		return 0, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return year, true
}

// Summary is the public part of a profile returned with a match
func (p UserProfile) Summary() ProfileSummary {
	return ProfileSummary{
		UserID:         p.UserID,
		FullName:       p.FullName,
		Email:          p.Email,
		Gender:         p.Gender,
		GraduationYear: p.GraduationYear,
		Major:          p.Major,
	}
}
