package expert_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	expertModel "github.com/verifai/automcp/internal/model/expert"
	expertservice "github.com/verifai/automcp/internal/service/expert"
	"github.com/verifai/automcp/internal/store"
)

func newService(t *testing.T, seed []expertModel.Expert) (*expertservice.Service, string) {
	t.Helper()
	dir := t.TempDir()
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, store.ExpertsFile), data, 0o644))
	return expertservice.NewService(store.New(dir)), dir
}

func readExperts(t *testing.T, dir string) []expertModel.Expert {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, store.ExpertsFile))
	require.NoError(t, err)
	var experts []expertModel.Expert
	require.NoError(t, json.Unmarshal(data, &experts))
	return experts
}

func TestCreatePreviewDoesNotWrite(t *testing.T) {
	svc, dir := newService(t, []expertModel.Expert{})
	before, err := os.ReadFile(filepath.Join(dir, store.ExpertsFile))
	require.NoError(t, err)

	res, err := svc.Create(expertservice.CreateInput{Name: "Alice", Prompt: "Be kind."})
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.NotEmpty(t, res.Expert.ID)
	assert.Equal(t, expertModel.StateEnabled, res.Expert.State)

	after, err := os.ReadFile(filepath.Join(dir, store.ExpertsFile))
	require.NoError(t, err)
	assert.Equal(t, before, after, "preview must never touch the document")
}

func TestCreateConfirmPersists(t *testing.T) {
	svc, dir := newService(t, []expertModel.Expert{})

	res, err := svc.Create(expertservice.CreateInput{Name: "Alice", Prompt: "Be kind.", Confirm: true})
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.NotEmpty(t, res.BackupFile)

	experts := readExperts(t, dir)
	require.Len(t, experts, 1)
	assert.Equal(t, "Alice", experts[0].Name)
	assert.Equal(t, expertModel.TypeUser, experts[0].Type)

	// Backup was written alongside the document.
	_, err = os.Stat(filepath.Join(dir, res.BackupFile))
	require.NoError(t, err)
}

func TestCreateReportsMissingFields(t *testing.T) {
	svc, _ := newService(t, []expertModel.Expert{})

	res, err := svc.Create(expertservice.CreateInput{Prompt: "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "prompt"}, res.Missing)
	assert.False(t, res.Persisted)
}

func TestCreateDuplicateNameIsWarningOnly(t *testing.T) {
	svc, dir := newService(t, []expertModel.Expert{expertModel.New("Alice", "old")})

	res, err := svc.Create(expertservice.CreateInput{Name: "Alice", Prompt: "new", Confirm: true})
	require.NoError(t, err)
	assert.True(t, res.DuplicateName)
	assert.True(t, res.Persisted)
	assert.Len(t, readExperts(t, dir), 2)
}

func TestUpdateByIDConfirm(t *testing.T) {
	seed := []expertModel.Expert{expertModel.New("Alice", "old prompt")}
	svc, dir := newService(t, seed)

	newPrompt := "new prompt"
	res, err := svc.Update(expertservice.UpdateInput{ID: seed[0].ID, NewPrompt: &newPrompt, Confirm: true})
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Equal(t, "old prompt", res.Old.Prompt)
	assert.Equal(t, "new prompt", res.New.Prompt)

	experts := readExperts(t, dir)
	require.Len(t, experts, 1)
	assert.Equal(t, "new prompt", experts[0].Prompt)
}

func TestUpdateByUniqueName(t *testing.T) {
	seed := []expertModel.Expert{expertModel.New("Alice", "p"), expertModel.New("Bob", "p")}
	svc, _ := newService(t, seed)

	state := expertModel.StateDisabled
	res, err := svc.Update(expertservice.UpdateInput{Name: "Bob", NewState: &state})
	require.NoError(t, err)
	assert.False(t, res.Persisted)
	assert.Equal(t, expertModel.StateDisabled, res.New.State)
	assert.Equal(t, seed[1].ID, res.Old.ID)
}

func TestUpdateAmbiguousName(t *testing.T) {
	seed := []expertModel.Expert{expertModel.New("Alice", "p1"), expertModel.New("Alice", "p2")}
	svc, _ := newService(t, seed)

	newName := "Alicia"
	res, err := svc.Update(expertservice.UpdateInput{Name: "Alice", NewName: &newName})
	require.ErrorIs(t, err, expertservice.ErrAmbiguous)
	assert.Len(t, res.Candidates, 2)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newService(t, []expertModel.Expert{})

	newName := "x"
	_, err := svc.Update(expertservice.UpdateInput{Name: "Ghost", NewName: &newName})
	require.ErrorIs(t, err, expertservice.ErrNotFound)
}

func TestUpdateInvalidStateLeavesDocumentUnchanged(t *testing.T) {
	seed := []expertModel.Expert{expertModel.New("Alice", "p")}
	svc, dir := newService(t, seed)
	before, err := os.ReadFile(filepath.Join(dir, store.ExpertsFile))
	require.NoError(t, err)

	state := "archived"
	_, err = svc.Update(expertservice.UpdateInput{Name: "Alice", NewState: &state, Confirm: true})
	var verr *expertservice.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "archived")

	after, err := os.ReadFile(filepath.Join(dir, store.ExpertsFile))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateNoChanges(t *testing.T) {
	seed := []expertModel.Expert{expertModel.New("Alice", "p")}
	svc, _ := newService(t, seed)

	_, err := svc.Update(expertservice.UpdateInput{ID: seed[0].ID})
	require.ErrorIs(t, err, expertservice.ErrNoChanges)
}
