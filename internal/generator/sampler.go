package generator

import (
	"math/rand/v2"
	"slices"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

// Sampled holds the items drawn from one topic and what is left of its pools
type Sampled struct {
	Questions []models.Question
	Groups    []models.QuestionGroup

	RemainingQuestions []models.Question
	RemainingGroups    []models.QuestionGroup
}

// Contributed reports whether anything was drawn
func (s Sampled) Contributed() bool {
	return len(s.Questions) > 0 || len(s.Groups) > 0
}

// Sample draws up to questionQuota single questions and groupQuota groups
// from topic without replacement. The topic itself is not modified: draws are
// taken from private copies of its pools, which are returned as the remainder.
func Sample(rnd *rand.Rand, topic *models.Topic, questionQuota, groupQuota int) Sampled {
	questions := slices.Clone(topic.SingleQuestions)
	groups := slices.Clone(topic.QuestionGroups)

	drawnQuestions, questions := draw(rnd, questions, questionQuota)
	drawnGroups, groups := draw(rnd, groups, groupQuota)

	return Sampled{
		Questions:          drawnQuestions,
		Groups:             drawnGroups,
		RemainingQuestions: questions,
		RemainingGroups:    groups,
	}
}

// draw removes quota uniformly chosen elements from pool, one at a time.
// The quota is clamped to [0, len(pool)].
func draw[T any](rnd *rand.Rand, pool []T, quota int) (drawn, rest []T) {
	quota = max(0, min(quota, len(pool)))
	drawn = make([]T, 0, quota)

	for i := 0; i < quota; i++ {
		idx := boundedInt(rnd, len(pool), 0)
		drawn = append(drawn, pool[idx])
		pool = slices.Delete(pool, idx, idx+1)
	}

	return drawn, pool
}
