package generator

import "github.com/terra-clan/grid-test-engine/internal/models"

// rangeCeiling is the starting bound for per-topic minimums.
// Topics are assumed never to hold more than this many items of one kind.
const rangeCeiling = 99

// Ranges bounds fair sampling across a set of loaded topics
type Ranges struct {
	MinSingleQuestions   int `json:"minSingleQuestionsCount"`
	MinQuestionGroups    int `json:"minQuestionGroupsCount"`
	TotalSingleQuestions int `json:"totalSingleQuestions"`
	TotalQuestionGroups  int `json:"totalQuestionGroups"`
	MaxSingleQuestions   int `json:"maxSingleQuestions"`
	MaxQuestionGroups    int `json:"maxQuestionGroups"`
}

// CalculateRanges computes minimum and aggregate counts over topics.
// An empty input yields a degenerate result (ceiling minimums, zero maximums).
func CalculateRanges(topics []*models.Topic) Ranges {
	r := Ranges{
		MinSingleQuestions: rangeCeiling,
		MinQuestionGroups:  rangeCeiling,
	}

	for _, t := range topics {
		questions := t.QuestionsCount()
		groups := t.GroupsCount()

		if questions < r.MinSingleQuestions {
			r.MinSingleQuestions = questions
		}
		if groups < r.MinQuestionGroups {
			r.MinQuestionGroups = groups
		}

		r.TotalSingleQuestions += questions
		r.TotalQuestionGroups += groups
	}

	r.MaxSingleQuestions = r.MinSingleQuestions * len(topics)
	r.MaxQuestionGroups = r.MinQuestionGroups * len(topics)
	return r
}
