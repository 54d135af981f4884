package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

// Common errors
var (
	ErrTopicNotFound = errors.New("topic not found")
	ErrInvalidTopic  = errors.New("invalid topic definition")
)

// extensions lists supported definition formats in lookup priority order
var extensions = []string{".json", ".yaml", ".yml"}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Loader owns the topic catalog built from a definitions directory.
// The catalog is built once by Initialize and is read-only afterwards;
// full topics are always read fresh from disk.
type Loader struct {
	dir string

	mu     sync.RWMutex
	ready  bool
	ids    []string
	params map[string]*models.TopicParameters
	paths  map[string]string // catalog id -> definition file
}

// NewLoader creates a catalog loader for the given definitions directory
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:    dir,
		params: make(map[string]*models.TopicParameters),
		paths:  make(map[string]string),
	}
}

// Initialize scans the definitions directory and builds the catalog.
// Broken topic files are logged and skipped; an unreadable directory fails.
// Calling Initialize on a ready catalog is a no-op.
func (l *Loader) Initialize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready {
		return nil
	}

	slog.Info("loading topic catalog", "dir", l.dir)

	files, err := l.scan()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(files))
	params := make(map[string]*models.TopicParameters, len(files))
	paths := make(map[string]string, len(files))

	for _, id := range sortedKeys(files) {
		if err := ctx.Err(); err != nil {
			return err
		}

		topic, err := readTopicFile(files[id])
		if err != nil {
			slog.Warn("skipping topic definition", "file", files[id], "error", err)
			continue
		}

		if topic.ID != "" && topic.ID != id {
			slog.Warn("topic id differs from file name, using file name",
				"file", files[id], "content_id", topic.ID)
		}

		ids = append(ids, id)
		paths[id] = files[id]
		params[id] = &models.TopicParameters{
			ID:              id,
			Name:            topic.Topic,
			Description:     topic.Description,
			QuestionsNumber: topic.QuestionsCount(),
			GroupsNumber:    topic.GroupsCount(),
		}
	}

	l.ids = ids
	l.params = params
	l.paths = paths
	l.ready = true

	slog.Info("topic catalog loaded", "count", len(ids), "total_files", len(files))
	return nil
}

// IsReady reports whether Initialize has completed
func (l *Loader) IsReady() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

// TopicIDs returns the ids of all catalog topics in a stable order
func (l *Loader) TopicIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, len(l.ids))
	copy(ids, l.ids)
	return ids
}

// Get returns the catalog entry of a topic, or nil
func (l *Loader) Get(id string) *models.TopicParameters {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.params[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// List returns all catalog entries
func (l *Loader) List() []models.TopicParameters {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.TopicParameters, 0, len(l.ids))
	for _, id := range l.ids {
		result = append(result, *l.params[id])
	}
	return result
}

// ReadTopic loads the full content of one topic from disk.
// Catalog ids resolve to the file they were built from; other ids are
// looked up as <dir>/<id><ext>.
func (l *Loader) ReadTopic(ctx context.Context, id string) (*models.Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	safeID := SanitizeID(id)
	if safeID == "" || safeID != id {
		return nil, fmt.Errorf("%w: %q", ErrTopicNotFound, id)
	}

	l.mu.RLock()
	path, ok := l.paths[safeID]
	l.mu.RUnlock()

	if ok {
		topic, err := readTopicFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %q", ErrTopicNotFound, id)
			}
			return nil, fmt.Errorf("topic %s: %w", safeID, err)
		}
		return topic, nil
	}

	for _, ext := range extensions {
		path := filepath.Join(l.dir, safeID+ext)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to stat topic file: %w", err)
		}

		topic, err := readTopicFile(path)
		if err != nil {
			return nil, fmt.Errorf("topic %s: %w", safeID, err)
		}
		return topic, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrTopicNotFound, id)
}

// SanitizeID trims an id and strips everything outside [a-zA-Z0-9_-]
func SanitizeID(id string) string {
	return unsafeIDChars.ReplaceAllString(strings.TrimSpace(id), "")
}

// scan maps topic ids to their definition files
func (l *Loader) scan() (map[string]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions directory: %w", err)
	}

	files := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if extPriority(ext) < 0 {
			continue
		}

		id := SanitizeID(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if id == "" {
			slog.Warn("skipping topic file with empty id", "file", entry.Name())
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		if existing, ok := files[id]; ok {
			if extPriority(strings.ToLower(filepath.Ext(existing))) <= extPriority(ext) {
				slog.Warn("duplicate topic id, keeping first", "id", id, "kept", existing, "ignored", path)
				continue
			}
		}
		files[id] = path
	}

	return files, nil
}

// readTopicFile parses a JSON or YAML topic definition
func readTopicFile(path string) (*models.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var topic models.Topic
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidTopic)
		}
		if err := json.Unmarshal(trimmed, &topic); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
		}
	default:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
		}
		if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: expected a YAML mapping", ErrInvalidTopic)
		}
		if err := doc.Content[0].Decode(&topic); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
		}
	}

	if topic.ID == "" {
		base := filepath.Base(path)
		topic.ID = SanitizeID(strings.TrimSuffix(base, filepath.Ext(base)))
	}

	return &topic, nil
}

func extPriority(ext string) int {
	for i, e := range extensions {
		if e == ext {
			return i
		}
	}
	return -1
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
