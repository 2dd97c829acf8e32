package model

import "time"

// AnswerOption is one selectable answer for a question
type AnswerOption struct {
	Value int    `json:"value" bson:"value"`
	Label string `json:"label" bson:"label"`
}

// QuestionTemplate carries the renderable content attached to a question.
// Feedback is keyed by the stringified answer value.
type QuestionTemplate struct {
	Options         []AnswerOption    `json:"options" bson:"options"`
	FeedbackByValue map[string]string `json:"feedbackByValue" bson:"feedbackByValue"`
	CategoryName    string            `json:"categoryName" bson:"categoryName"`
	CategoryIcon    string            `json:"categoryIcon,omitempty" bson:"categoryIcon,omitempty"`
	ImportanceText  string            `json:"importanceText,omitempty" bson:"importanceText,omitempty"`
	ActivityText    string            `json:"activityText,omitempty" bson:"activityText,omitempty"`
}

// Question is a single screening prompt. The ID is stable across sessions
// so stored responses can be matched on later runs.
type Question struct {
	ID       string           `json:"id" bson:"id"`
	Prompt   string           `json:"prompt" bson:"prompt"`
	Template QuestionTemplate `json:"template" bson:"template"`
}

// Module is a bundle of questions scoped to one child age range.
// The counters are runtime state owned by the conversation engine;
// only the content fields are persisted in the catalog collection.
type Module struct {
	ID            string     `json:"id" bson:"_id,omitempty"`
	AgeRangeLabel string     `json:"ageRangeLabel" bson:"ageRangeLabel"`
	Title         string     `json:"title" bson:"title"`
	Description   string     `json:"description,omitempty" bson:"description,omitempty"`
	MinMonths     int        `json:"minMonths" bson:"minMonths"`
	MaxMonths     int        `json:"maxMonths" bson:"maxMonths"`
	Order         int        `json:"order" bson:"order"`
	Questions     []Question `json:"questions" bson:"questions"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`

	AnsweredCount int  `json:"answeredCount" bson:"-"`
	TotalCount    int  `json:"totalCount" bson:"-"`
	IsCompleted   bool `json:"isCompleted" bson:"-"`
	IsUnlocked    bool `json:"isUnlocked" bson:"-"`
}

// ModuleMetadata is the catalog header for the module matching a child's age
type ModuleMetadata struct {
	Title       string `json:"title"`
	MinMonths   int    `json:"minMonths"`
	MaxMonths   int    `json:"maxMonths"`
	Description string `json:"description,omitempty"`
}
