package model

import "time"

// Response is one recorded answer event for a question. Append-only;
// a question counts as answered if any response exists for it,
// regardless of which session wrote it.
type Response struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	ChildID     string    `json:"childId" bson:"childId"`
	CaregiverID string    `json:"caregiverId" bson:"caregiverId"`
	QuestionID  string    `json:"questionId" bson:"questionId"`
	Value       int       `json:"value" bson:"value"`
	Text        string    `json:"text,omitempty" bson:"text,omitempty"`
	RecordedAt  time.Time `json:"recordedAt" bson:"recordedAt"`
}
