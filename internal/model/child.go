package model

import "time"

// Child is the profile a conversation is personalized from
type Child struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	Name       string    `json:"name" bson:"name"`
	BirthDate  time.Time `json:"birthDate" bson:"birthDate"`
	Pronoun    string    `json:"pronoun" bson:"pronoun"`       // e.g., "she", "he", "they"
	Possessive string    `json:"possessive" bson:"possessive"` // e.g., "her", "his", "their"
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// AgeInMonths returns the child's age in whole months at the given time
func (c *Child) AgeInMonths(now time.Time) int {
	if now.Before(c.BirthDate) {
		return 0
	}
	months := int(now.Month()) - int(c.BirthDate.Month()) + 12*(now.Year()-c.BirthDate.Year())
	if now.Day() < c.BirthDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// PersonalizationContext holds the names and pronouns used to render
// caregiver-facing text. Loaded once at conversation start, read-only after.
type PersonalizationContext struct {
	ChildName     string `json:"childName"`
	CaregiverName string `json:"caregiverName"`
	Pronoun       string `json:"pronoun"`
	Possessive    string `json:"possessive"`
}
