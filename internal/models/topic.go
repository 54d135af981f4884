package models

// AnswerVariant is one selectable answer of a question
type AnswerVariant struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

// Question represents a single question with its answer variants
type Question struct {
	Title            string          `json:"title" yaml:"title"`
	AnswerVariants   []AnswerVariant `json:"answerVariants" yaml:"answerVariants"`
	CorrectAnswerIDs string          `json:"correctAnswerIds" yaml:"correctAnswerIds"` // comma separated variant ids
	Explanation      string          `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// QuestionGroup is a titled cluster of related questions presented together
type QuestionGroup struct {
	GroupTitle string     `json:"groupTitle" yaml:"groupTitle"`
	Questions  []Question `json:"questions" yaml:"questions"`
}

// Topic is a stored test definition. Generated tests share the same shape.
type Topic struct {
	ID              string          `json:"id" yaml:"id"`
	Topic           string          `json:"topic" yaml:"topic"` // display name
	Description     string          `json:"description,omitempty" yaml:"description,omitempty"`
	SingleQuestions []Question      `json:"singleQuestions" yaml:"singleQuestions"`
	QuestionGroups  []QuestionGroup `json:"questionGroups" yaml:"questionGroups"`
}

// QuestionsCount returns the number of single questions
func (t *Topic) QuestionsCount() int {
	if t == nil {
		return 0
	}
	return len(t.SingleQuestions)
}

// GroupsCount returns the number of question groups
func (t *Topic) GroupsCount() int {
	if t == nil {
		return 0
	}
	return len(t.QuestionGroups)
}

// IsEmpty reports whether the topic has nothing to draw from
func (t *Topic) IsEmpty() bool {
	return t.QuestionsCount() == 0 && t.GroupsCount() == 0
}
