package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifai/automcp/internal/model/expert"
	"github.com/verifai/automcp/internal/model/history"
	"github.com/verifai/automcp/internal/store"
)

func writeExperts(t *testing.T, dir string, experts []expert.Expert) {
	t.Helper()
	data, err := json.Marshal(experts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.ExpertsFile), data, 0o644))
}

func TestLoadExpertsMissingDir(t *testing.T) {
	s := store.New("")
	_, err := s.LoadExperts()
	require.ErrorIs(t, err, store.ErrConfigurationMissing)
}

func TestLoadExpertsNotFound(t *testing.T) {
	s := store.New(t.TempDir())
	_, err := s.LoadExperts()
	require.ErrorIs(t, err, store.ErrDocumentNotFound)
	assert.Contains(t, err.Error(), store.ExpertsFile)
}

func TestLoadExpertsCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.ExpertsFile), []byte("{not json"), 0o644))

	_, err := store.New(dir).LoadExperts()
	require.ErrorIs(t, err, store.ErrDocumentCorrupt)
}

func TestLoadExpertsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := []expert.Expert{expert.New("Alice", "Be concise."), expert.New("Bob", "Be thorough.")}
	writeExperts(t, dir, want)

	got, err := store.New(dir).LoadExperts()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, "Alice", got[0].Name)
}

func TestSaveExpertsWritesBackupOfPreviousState(t *testing.T) {
	dir := t.TempDir()
	prev := []expert.Expert{expert.New("Alice", "p1")}
	writeExperts(t, dir, prev)
	s := store.New(dir)

	next := append(append([]expert.Expert(nil), prev...), expert.New("Bob", "p2"))
	backup, err := s.SaveExperts(prev, next)
	require.NoError(t, err)
	require.NotEmpty(t, backup)

	// The newest backup must deserialize to the pre-mutation document.
	data, err := os.ReadFile(filepath.Join(dir, backup))
	require.NoError(t, err)
	var fromBackup []expert.Expert
	require.NoError(t, json.Unmarshal(data, &fromBackup))
	require.Len(t, fromBackup, 1)
	assert.Equal(t, prev[0].ID, fromBackup[0].ID)

	// The target must hold the post-mutation document.
	got, err := s.LoadExperts()
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestSaveExpertsNoTempLeftBehindOnSuccess(t *testing.T) {
	dir := t.TempDir()
	prev := []expert.Expert{}
	writeExperts(t, dir, prev)
	s := store.New(dir)

	_, err := s.SaveExperts(prev, []expert.Expert{expert.New("Alice", "p")})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, n := range names {
		assert.NotEqual(t, store.ExpertsFile+".tmp", n)
	}
}

func TestSaveHistoryFailureLeavesTargetIntact(t *testing.T) {
	dir := t.TempDir()
	doc := &history.Document{Folders: []history.Folder{}, Chats: []history.Chat{}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	target := filepath.Join(dir, store.HistoryFile)
	require.NoError(t, os.WriteFile(target, data, 0o644))
	before, err := os.ReadFile(target)
	require.NoError(t, err)

	// An unmarshalable value fails at the serialize step, before any file
	// is touched.
	s := store.New(dir)
	_, err = s.SaveHistory(doc, &history.Document{
		Chats: []history.Chat{{Tools: []any{func() {}}}},
	})
	require.ErrorIs(t, err, store.ErrWriteError)

	after, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, before, after, "target must be byte-identical after a failed persist")
}

func TestSaveHistoryDirMissing(t *testing.T) {
	s := store.New("")
	_, err := s.SaveHistory(&history.Document{}, &history.Document{})
	require.ErrorIs(t, err, store.ErrConfigurationMissing)
}
