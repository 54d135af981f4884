package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

// FileRepository stores each generated test as a pretty-printed JSON file
type FileRepository struct {
	dir string
}

// NewFileRepository creates a repository rooted at dir.
// The directory is created on first save.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

// Count returns the number of .json files in the directory.
// A missing directory counts as zero.
func (r *FileRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	names, err := r.jsonFiles()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Save writes the test to <dir>/<id>.json, overwriting an existing file
func (r *FileRepository) Save(ctx context.Context, test *models.Topic) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.path(test.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(test, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal test: %w", err)
	}

	// write to a temp name first so readers never see a partial document
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write test file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write test file: %w", err)
	}

	slog.Info("generated test file written", "path", path)
	return nil
}

// Get reads one generated test
func (r *FileRepository) Get(ctx context.Context, id string) (*models.Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.path(id)
	if err != nil {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read test file: %w", err)
	}

	var test models.Topic
	if err := json.Unmarshal(data, &test); err != nil {
		return nil, fmt.Errorf("failed to parse test file %s: %w", path, err)
	}
	return &test, nil
}

// List returns summaries of all generated tests, oldest first
func (r *FileRepository) List(ctx context.Context) ([]models.GeneratedTestSummary, error) {
	names, err := r.jsonFiles()
	if err != nil {
		return nil, err
	}

	result := make([]models.GeneratedTestSummary, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(r.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("failed to stat generated test", "file", path, "error", err)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read generated test", "file", path, "error", err)
			continue
		}

		var test models.Topic
		if err := json.Unmarshal(data, &test); err != nil {
			slog.Warn("skipping invalid generated test", "file", path, "error", err)
			continue
		}

		result = append(result, models.Summarize(&test, info.ModTime().UTC()))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Ping checks that the directory exists or can be created
func (r *FileRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(r.dir, 0o755)
}

// Close is a no-op for files
func (r *FileRepository) Close() error {
	return nil
}

func (r *FileRepository) jsonFiles() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read generated tests directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) == ".json" {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (r *FileRepository) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid generated test id: %q", id)
	}
	return filepath.Join(r.dir, id+".json"), nil
}
