package model

import "time"

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is the lifecycle record for one caregiver/child conversation run.
// Never deleted, only transitioned to completed.
type Session struct {
	ID                string        `json:"id" bson:"_id,omitempty"`
	ChildID           string        `json:"childId" bson:"childId"`
	CaregiverID       string        `json:"caregiverId" bson:"caregiverId"`
	TotalQuestions    int           `json:"totalQuestions" bson:"totalQuestions"`
	AnsweredQuestions int           `json:"answeredQuestions" bson:"answeredQuestions"`
	Status            SessionStatus `json:"status" bson:"status"`
	StartedAt         time.Time     `json:"startedAt" bson:"startedAt"`
	CompletedAt       *time.Time    `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// SessionPatch is a partial update applied to a session record
type SessionPatch struct {
	AnsweredQuestions *int           `bson:"answeredQuestions,omitempty"`
	Status            *SessionStatus `bson:"status,omitempty"`
	CompletedAt       *time.Time     `bson:"completedAt,omitempty"`
}
