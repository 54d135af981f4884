package models

import "time"

// TopicParameters is the lightweight catalog entry of a stored topic
type TopicParameters struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	QuestionsNumber int    `json:"questionsNumber"`
	GroupsNumber    int    `json:"groupsNumber"`
}

// GeneratedTestSummary describes a persisted generated test without its questions
type GeneratedTestSummary struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Description string    `json:"description,omitempty"`
	Questions   int       `json:"questions"`
	Groups      int       `json:"groups"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summarize builds a summary of a generated test
func Summarize(t *Topic, createdAt time.Time) GeneratedTestSummary {
	return GeneratedTestSummary{
		ID:          t.ID,
		Topic:       t.Topic,
		Description: t.Description,
		Questions:   t.QuestionsCount(),
		Groups:      t.GroupsCount(),
		CreatedAt:   createdAt,
	}
}
