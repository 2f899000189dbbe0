package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/maheshrc27/postpilot/internal/models"
)

const (
	filePermission = 0600
	dirPermission  = 0755
)

// filePreferenceRepository keeps every viewer's records in one JSON document
// of the form {"<user id>": {"<key>": "<serialized value>"}}.
type filePreferenceRepository struct {
	path string
	mu   sync.Mutex
}

var _ PreferenceRepository = (*filePreferenceRepository)(nil)

func NewFilePreferenceRepository(path string) PreferenceRepository {
	return &filePreferenceRepository{path: path}
}

func (r *filePreferenceRepository) Get(ctx context.Context, userID, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return "", false, err
	}

	value, ok := doc[userID][key]
	return value, ok, nil
}

func (r *filePreferenceRepository) Put(ctx context.Context, userID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		slog.Warn("discarding unreadable preferences file", slog.String("path", r.path), slog.Any("error", err))
		doc = map[string]map[string]string{}
	}

	if doc[userID] == nil {
		doc[userID] = map[string]string{}
	}
	doc[userID][key] = value

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), dirPermission); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	if err := atomicWriteFile(r.path, data, filePermission); err != nil {
		return fmt.Errorf("write preferences file: %w", err)
	}

	slog.Debug("saved preference", slog.String("user_id", userID), slog.String("key", key), slog.String("path", r.path))
	return nil
}

func (r *filePreferenceRepository) load() (map[string]map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]map[string]string{}, nil
		}
		return nil, fmt.Errorf("read preferences file: %w", err)
	}

	doc := map[string]map[string]string{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrCorruptPreferences, r.path, err)
	}
	return doc, nil
}

// atomicWriteFile writes data next to path and renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
