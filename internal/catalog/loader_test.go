package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataTypesJSON = `{
  "id": "data-types",
  "topic": "Data Types",
  "description": "Primitive and composite types",
  "singleQuestions": [
    {"title": "Q1", "answerVariants": [{"id": "a", "value": "1"}], "correctAnswerIds": "a"},
    {"title": "Q2", "answerVariants": [{"id": "a", "value": "2"}], "correctAnswerIds": "a", "explanation": "because"}
  ],
  "questionGroups": [
    {"groupTitle": "G1", "questions": [{"title": "G1Q1", "answerVariants": [], "correctAnswerIds": ""}]}
  ]
}`

const loopsYAML = `
id: loops
topic: Loops
singleQuestions:
  - title: For loop
    answerVariants:
      - id: a
        value: yes
    correctAnswerIds: a
questionGroups: []
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newCatalogDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "data-types.json", dataTypesJSON)
	writeFile(t, dir, "loops.yaml", loopsYAML)
	writeFile(t, dir, "broken.json", `{"id": "broken", "topic": `)
	writeFile(t, dir, "array.json", `[1, 2, 3]`)
	writeFile(t, dir, "notes.txt", "not a topic")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))
	return dir
}

func TestInitializeBuildsCatalog(t *testing.T) {
	loader := NewLoader(newCatalogDir(t))
	assert.False(t, loader.IsReady())

	require.NoError(t, loader.Initialize(context.Background()))
	assert.True(t, loader.IsReady())

	assert.Equal(t, []string{"data-types", "loops"}, loader.TopicIDs())

	dt := loader.Get("data-types")
	require.NotNil(t, dt)
	assert.Equal(t, "Data Types", dt.Name)
	assert.Equal(t, 2, dt.QuestionsNumber)
	assert.Equal(t, 1, dt.GroupsNumber)

	loops := loader.Get("loops")
	require.NotNil(t, loops)
	assert.Equal(t, 1, loops.QuestionsNumber)
	assert.Equal(t, 0, loops.GroupsNumber)

	assert.Nil(t, loader.Get("broken"))
	assert.Len(t, loader.List(), 2)
}

func TestInitializeIsBuiltOnce(t *testing.T) {
	dir := newCatalogDir(t)
	loader := NewLoader(dir)
	require.NoError(t, loader.Initialize(context.Background()))

	writeFile(t, dir, "late.json", `{"id": "late", "topic": "Late"}`)
	require.NoError(t, loader.Initialize(context.Background()))

	assert.NotContains(t, loader.TopicIDs(), "late")
}

func TestInitializeMissingDirectoryFails(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing"))
	err := loader.Initialize(context.Background())
	require.Error(t, err)
	assert.False(t, loader.IsReady())
}

func TestInitializeEmptyDirectory(t *testing.T) {
	loader := NewLoader(t.TempDir())
	require.NoError(t, loader.Initialize(context.Background()))
	assert.True(t, loader.IsReady())
	assert.Empty(t, loader.TopicIDs())
}

func TestReadTopic(t *testing.T) {
	loader := NewLoader(newCatalogDir(t))
	ctx := context.Background()

	topic, err := loader.ReadTopic(ctx, "data-types")
	require.NoError(t, err)
	assert.Equal(t, "Data Types", topic.Topic)
	require.Len(t, topic.SingleQuestions, 2)
	assert.Equal(t, "because", topic.SingleQuestions[1].Explanation)
	assert.Equal(t, "G1", topic.QuestionGroups[0].GroupTitle)

	topic, err = loader.ReadTopic(ctx, "loops")
	require.NoError(t, err)
	assert.Equal(t, "Loops", topic.Topic)
	assert.Equal(t, "a", topic.SingleQuestions[0].CorrectAnswerIDs)
}

func TestReadTopicErrors(t *testing.T) {
	loader := NewLoader(newCatalogDir(t))
	ctx := context.Background()

	_, err := loader.ReadTopic(ctx, "missing")
	assert.ErrorIs(t, err, ErrTopicNotFound)

	_, err = loader.ReadTopic(ctx, "../data-types")
	assert.ErrorIs(t, err, ErrTopicNotFound)

	_, err = loader.ReadTopic(ctx, "broken")
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = loader.ReadTopic(ctx, "array")
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestReadTopicFillsMissingID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "anonymous.json", `{"topic": "Anonymous"}`)

	topic, err := NewLoader(dir).ReadTopic(context.Background(), "anonymous")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", topic.ID)
	assert.True(t, topic.IsEmpty())
}

func TestSanitizeID(t *testing.T) {
	tests := map[string]string{
		"  data-types ": "data-types",
		"a/b\\c":        "abc",
		"hello world!":  "helloworld",
		"under_score":   "under_score",
		"***":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeID(in), "input %q", in)
	}
}

func TestEveryCatalogIDLoads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data types.json", `{"topic": "Data Types", "singleQuestions": [{"title": "Q1"}]}`)
	writeFile(t, dir, "Loops.JSON", `{"topic": "Loops", "questionGroups": [{"groupTitle": "G1"}]}`)
	writeFile(t, dir, "arrays.yml", "topic: Arrays\nsingleQuestions:\n  - title: Q1\n")

	loader := NewLoader(dir)
	require.NoError(t, loader.Initialize(context.Background()))

	ids := loader.TopicIDs()
	assert.Equal(t, []string{"Loops", "arrays", "datatypes"}, ids)

	for _, id := range ids {
		topic, err := loader.ReadTopic(context.Background(), id)
		require.NoError(t, err, "catalog id %q", id)
		assert.Equal(t, loader.Get(id).QuestionsNumber, topic.QuestionsCount())
		assert.Equal(t, loader.Get(id).GroupsNumber, topic.GroupsCount())
	}
}

func TestReadTopicCatalogFileRemoved(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Loops.JSON", `{"topic": "Loops"}`)

	loader := NewLoader(dir)
	require.NoError(t, loader.Initialize(context.Background()))
	require.NoError(t, os.Remove(filepath.Join(dir, "Loops.JSON")))

	_, err := loader.ReadTopic(context.Background(), "Loops")
	assert.ErrorIs(t, err, ErrTopicNotFound)
}
