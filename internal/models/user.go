package models

import (
	"time"
)

// Role represents a user's permission level.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Supported interface languages.
var Languages = []string{"en", "tr", "de", "fr", "es"}

// User is an account holder: a patient, a member of the care team, or an operator.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	PasswordHash        string    `json:"-"` // Never expose in JSON
	Role                Role      `json:"role"`
	Language            string    `json:"language"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewUser creates a new User with initialized timestamps.
func NewUser(email, fullName string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		Email:     email,
		FullName:  fullName,
		Role:      role,
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsCareTeam returns true for users that may read other patients' data.
func (u *User) IsCareTeam() bool {
	return u.Role == RoleClinician || u.Role == RoleAdmin
}

// DisplayName returns the full name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// ParseRole converts a string to Role. Unknown values map to patient.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "clinician", "doctor":
		return RoleClinician
	default:
		return RolePatient
	}
}

// IsValidLanguage reports whether lang is a supported interface language.
func IsValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Consent records which data categories a patient agreed to share during onboarding.
type Consent struct {
	PatientID  string    `json:"patient_id"`
	HeartRate  bool      `json:"heart_rate"`
	Activity   bool      `json:"activity"`
	Sleep      bool      `json:"sleep"`
	ECG        bool      `json:"ecg"`
	Sharing    bool      `json:"sharing"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// DefaultConsent returns the consent set pre-selected on the onboarding screen.
func DefaultConsent(patientID string) *Consent {
	return &Consent{
		PatientID: patientID,
		HeartRate: true,
		Activity:  true,
		Sleep:     true,
		Sharing:   true,
	}
}
