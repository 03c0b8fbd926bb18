package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fakegate/fakegate/pkg/rule"
)

// Current on-disk format version.
const fileVersion = 1

// fileData is the persisted rule list. Order in the file is match
// precedence.
type fileData struct {
	Version int          `json:"version"`
	Rules   []*rule.Rule `json:"rules"`
}

// FileStore is a MemoryStore that persists the whole rule list to a JSON
// file after every successful mutation. The file is loaded wholesale at
// Open and rewritten wholesale on change, via a temp file and atomic
// rename. A failed save is logged and does not roll back the in-memory
// mutation.
type FileStore struct {
	*MemoryStore
	path string
	log  *slog.Logger

	// saveMu serializes snapshot+write+rename. Without it, two concurrent
	// mutations could rename an older snapshot into place last and drop a
	// committed rule from disk.
	saveMu sync.Mutex
}

// NewFileStore creates a FileStore backed by the given path. Call Open
// before use.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{
		MemoryStore: NewMemoryStore(),
		path:        path,
		log:         log,
	}
}

// Open loads the rule list from disk. A missing file is an empty store,
// not an error.
func (s *FileStore) Open() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading rules file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var parsed fileData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parsing rules file %s: %w", s.path, err)
	}
	s.MemoryStore.load(parsed.Rules)
	s.log.Info("loaded rules", "file", s.path, "count", len(parsed.Rules))
	return nil
}

// Add stores the rule and persists the new list.
func (s *FileStore) Add(r *rule.Rule) error {
	if err := s.MemoryStore.Add(r); err != nil {
		return err
	}
	s.save()
	return nil
}

// Update replaces the rule and persists the new list.
func (s *FileStore) Update(r *rule.Rule) error {
	if err := s.MemoryStore.Update(r); err != nil {
		return err
	}
	s.save()
	return nil
}

// Delete removes the rule and persists the new list.
func (s *FileStore) Delete(ruleID string) bool {
	if !s.MemoryStore.Delete(ruleID) {
		return false
	}
	s.save()
	return true
}

// ActivateResponse switches the active variant and persists the new list.
func (s *FileStore) ActivateResponse(ruleID, name string) (*rule.Rule, error) {
	updated, err := s.MemoryStore.ActivateResponse(ruleID, name)
	if err != nil {
		return nil, err
	}
	s.save()
	return updated, nil
}

func (s *FileStore) save() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	data, err := json.MarshalIndent(fileData{Version: fileVersion, Rules: s.MemoryStore.List()}, "", "  ")
	if err != nil {
		s.log.Error("failed to encode rules", "error", err)
		return
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.log.Error("failed to create rules directory", "dir", dir, "error", err)
		return
	}

	tmp, err := os.CreateTemp(dir, ".rules-*.json")
	if err != nil {
		s.log.Error("failed to create temp rules file", "error", err)
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		s.log.Error("failed to write rules file", "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		s.log.Error("failed to close rules file", "error", err)
		return
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		s.log.Warn("failed to set rules file permissions", "error", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		s.log.Error("failed to replace rules file", "file", s.path, "error", err)
	}
}

var _ RuleStore = (*FileStore)(nil)
