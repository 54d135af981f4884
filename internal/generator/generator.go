package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

// Common errors
var (
	ErrEmptyCatalog  = errors.New("catalog has no topics")
	ErrPersistFailed = errors.New("failed to persist generated test")
)

const (
	// DefaultTopicsPerTest is the number of distinct topics mixed into one test
	DefaultTopicsPerTest = 3

	// FallbackDescription is used when no topic contributed any item
	FallbackDescription = "This is a randomly generated test"

	titlePrefix = "Generated Test #"
)

// Profile holds the multipliers applied to the fair-share maximums
type Profile struct {
	Name           string
	QuestionFactor float64
	GroupFactor    float64
}

// The two mutually exclusive bias profiles, picked with equal probability
var (
	GroupHeavy    = Profile{Name: "group-heavy", QuestionFactor: 0.7, GroupFactor: 0.9}
	QuestionHeavy = Profile{Name: "question-heavy", QuestionFactor: 0.9, GroupFactor: 0.7}
)

// Targets applies the profile to the computed ranges
func (p Profile) Targets(r Ranges) (questions, groups int) {
	questions = int(math.Floor(p.QuestionFactor * float64(r.MaxSingleQuestions)))
	groups = int(math.Floor(p.GroupFactor * float64(r.MaxQuestionGroups)))
	return questions, groups
}

// TopicSource provides the catalog ids and full topic content
type TopicSource interface {
	TopicIDs() []string
	ReadTopic(ctx context.Context, id string) (*models.Topic, error)
}

// Store persists generated tests
type Store interface {
	Save(ctx context.Context, test *models.Topic) error
}

// Sequence hands out generated test ordinals
type Sequence interface {
	Next(ctx context.Context) (int, error)
}

// Publisher is notified about every persisted generated test
type Publisher interface {
	Publish(summary models.GeneratedTestSummary)
}

// Options holds optional generator settings
type Options struct {
	TopicsPerTest int
	Publisher     Publisher
}

// Generator assembles mixed tests from randomly sampled catalog topics
type Generator struct {
	source        TopicSource
	store         Store
	sequence      Sequence
	publisher     Publisher
	topicsPerTest int

	newRand func() *rand.Rand
	now     func() time.Time
}

// New creates a generator
func New(source TopicSource, store Store, sequence Sequence, opts Options) *Generator {
	if opts.TopicsPerTest <= 0 {
		opts.TopicsPerTest = DefaultTopicsPerTest
	}

	return &Generator{
		source:        source,
		store:         store,
		sequence:      sequence,
		publisher:     opts.Publisher,
		topicsPerTest: opts.TopicsPerTest,
		newRand:       newRand,
		now:           time.Now,
	}
}

// ReadStaticTest returns one stored topic as is
func (g *Generator) ReadStaticTest(ctx context.Context, id string) (*models.Topic, error) {
	return g.source.ReadTopic(ctx, id)
}

// Generate assembles, persists and returns a new mixed test.
// Any load or persistence failure fails the whole call.
func (g *Generator) Generate(ctx context.Context) (*models.Topic, error) {
	rnd := g.newRand()

	ids, err := selectTopics(rnd, g.source.TopicIDs(), g.topicsPerTest)
	if err != nil {
		return nil, err
	}

	topics, err := g.loadTopics(ctx, ids)
	if err != nil {
		return nil, err
	}

	test, p := assemble(rnd, topics)

	ordinal, err := g.sequence.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve test ordinal: %w", err)
	}
	applyIdentity(test, ordinal)

	if err := g.store.Save(ctx, test); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	slog.Info("generated test",
		"id", test.ID,
		"topics", ids,
		"profile", p.Profile.Name,
		"target_questions", p.TargetQuestions,
		"target_groups", p.TargetGroups,
		"questions", len(test.SingleQuestions),
		"groups", len(test.QuestionGroups),
	)

	if g.publisher != nil {
		g.publisher.Publish(models.Summarize(test, g.now()))
	}

	return test, nil
}

// selectTopics picks up to want distinct ids uniformly at random.
// Selection is capped at the number of distinct ids available.
func selectTopics(rnd *rand.Rand, ids []string, want int) ([]string, error) {
	distinct := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	if len(distinct) == 0 {
		return nil, ErrEmptyCatalog
	}

	want = min(want, len(distinct))
	selected := make([]string, 0, want)
	picked := make(map[string]bool, want)

	for len(selected) < want {
		id := distinct[boundedInt(rnd, len(distinct), 0)]
		if picked[id] {
			continue
		}
		picked[id] = true
		selected = append(selected, id)
	}

	return selected, nil
}

// loadTopics reads all selected topics concurrently, preserving order
func (g *Generator) loadTopics(ctx context.Context, ids []string) ([]*models.Topic, error) {
	topics := make([]*models.Topic, len(ids))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		eg.Go(func() error {
			topic, err := g.source.ReadTopic(egCtx, id)
			if err != nil {
				return fmt.Errorf("failed to load topic %s: %w", id, err)
			}
			if topic.IsEmpty() {
				slog.Debug("selected topic has no items", "topic_id", id)
			}
			topics[i] = topic
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return topics, nil
}

// contribution records what one topic gave to a generated test
type contribution struct {
	TopicID       string
	QuestionQuota int
	GroupQuota    int
	Questions     int
	Groups        int
}

// plan records the decisions taken while assembling one test
type plan struct {
	Ranges          Ranges
	Profile         Profile
	TargetQuestions int
	TargetGroups    int
	Contributions   []contribution
}

// assemble samples the loaded topics into one composite test without identity
func assemble(rnd *rand.Rand, topics []*models.Topic) (*models.Topic, plan) {
	p := plan{Ranges: CalculateRanges(topics)}

	p.Profile = QuestionHeavy
	if boundedInt(rnd, 2, 0) != 0 {
		p.Profile = GroupHeavy
	}
	p.TargetQuestions, p.TargetGroups = p.Profile.Targets(p.Ranges)

	test := &models.Topic{
		SingleQuestions: []models.Question{},
		QuestionGroups:  []models.QuestionGroup{},
	}

	var names []string
	selectedQuestions, selectedGroups := 0, 0

	for _, topic := range topics {
		missingQuestions := max(p.TargetQuestions-selectedQuestions, 0)
		missingGroups := max(p.TargetGroups-selectedGroups, 0)

		questionUpper := min(missingQuestions, p.Ranges.MinSingleQuestions)
		groupUpper := min(missingGroups, p.Ranges.MinQuestionGroups)

		questionQuota := boundedInt(rnd, questionUpper, float64(questionUpper)/3)
		groupQuota := boundedInt(rnd, groupUpper, float64(groupUpper)/3)

		sampled := Sample(rnd, topic, questionQuota, groupQuota)

		if sampled.Contributed() {
			names = append(names, displayName(topic))
		}

		test.SingleQuestions = append(test.SingleQuestions, sampled.Questions...)
		test.QuestionGroups = append(test.QuestionGroups, sampled.Groups...)

		selectedQuestions += len(sampled.Questions)
		selectedGroups += len(sampled.Groups)

		p.Contributions = append(p.Contributions, contribution{
			TopicID:       topic.ID,
			QuestionQuota: questionQuota,
			GroupQuota:    groupQuota,
			Questions:     len(sampled.Questions),
			Groups:        len(sampled.Groups),
		})
	}

	test.Description = FallbackDescription
	if len(names) > 0 {
		test.Description = strings.Join(names, ", ")
	}

	return test, p
}

func displayName(t *models.Topic) string {
	if t.Topic != "" {
		return t.Topic
	}
	return t.ID
}

// applyIdentity names a generated test after its ordinal
func applyIdentity(test *models.Topic, ordinal int) {
	test.Topic = Title(ordinal)
	test.ID = Slug(test.Topic)
}

// Title returns the display name of the n-th generated test
func Title(n int) string {
	return fmt.Sprintf("%s%d", titlePrefix, n)
}

// Slug derives a generated test id from its display name
func Slug(title string) string {
	id := strings.Replace(title, "#", "", 1)
	id = strings.ReplaceAll(id, " ", "-")
	return strings.ToLower(id)
}
