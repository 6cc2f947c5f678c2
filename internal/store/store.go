package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/verifai/automcp/internal/model/expert"
	"github.com/verifai/automcp/internal/model/history"
)

// Document file names inside the assistant directory.
const (
	ExpertsFile = "experts.json"
	HistoryFile = "history.json"
)

// Store reads and writes the assistant's JSON documents. Every call re-reads
// from disk; nothing is cached, so external edits are visible on the next
// call. The zero-value directory is legal and makes every access fail with
// ErrConfigurationMissing.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. An empty dir is accepted.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the configured assistant directory. Empty when unset.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) (string, error) {
	if s.dir == "" {
		return "", ErrConfigurationMissing
	}
	return filepath.Join(s.dir, name), nil
}

// LoadExperts reads experts.json as a flat array of experts.
func (s *Store) LoadExperts() ([]expert.Expert, error) {
	var experts []expert.Expert
	if err := s.load(ExpertsFile, &experts); err != nil {
		return nil, err
	}
	return experts, nil
}

// LoadHistory reads history.json as the {folders, chats} document.
func (s *Store) LoadHistory() (*history.Document, error) {
	var doc history.Document
	if err := s.load(HistoryFile, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveExperts persists next over experts.json, writing a timestamped backup
// of prev first.
func (s *Store) SaveExperts(prev, next []expert.Expert) (string, error) {
	return s.persist(ExpertsFile, prev, next)
}

// SaveHistory persists next over history.json, writing a timestamped backup
// of prev first.
func (s *Store) SaveHistory(prev, next *history.Document) (string, error) {
	return s.persist(HistoryFile, prev, next)
}

func (s *Store) load(name string, v any) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrDocumentNotFound, "%s in %s", name, s.dir)
		}
		return errors.Wrapf(err, "read %s", name)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(ErrDocumentCorrupt, "%s: %v", name, err)
	}
	return nil
}

// marshalDocument renders a document the way the assistant app does:
// two-space indentation, trailing newline, HTML left unescaped.
func marshalDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
