package expert

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/verifai/automcp/internal/model/expert"
	"github.com/verifai/automcp/internal/store"
)

// Typed target-resolution outcomes for updates. Both are reported to the
// caller as guidance, never as process failures, and stay distinguishable
// from each other.
var (
	ErrNotFound  = errors.New("no expert matches the given criteria")
	ErrAmbiguous = errors.New("multiple experts match this name, specify id")
)

// ErrNoChanges means an update carried no new_* fields.
var ErrNoChanges = errors.New("no changes supplied: provide new_name, new_prompt or new_state")

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Service implements the expert operations: list, two-phase create, and
// two-phase update. Persisting always reloads the document fresh; a preview
// returned earlier is never reused across the confirm boundary.
type Service struct {
	store *store.Store
}

// NewService binds the expert operations to a document store.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// List returns all experts from experts.json.
func (s *Service) List() ([]expert.Expert, error) {
	return s.store.LoadExperts()
}

// CreateInput carries create_expert arguments.
type CreateInput struct {
	Name    string
	Prompt  string
	Confirm bool
}

// CreateResult describes either a preview (Persisted false) or a committed
// create (Persisted true, BackupFile set).
type CreateResult struct {
	Expert        expert.Expert
	DuplicateName bool
	Persisted     bool
	BackupFile    string
	Missing       []string
}

// Create validates input, builds the candidate expert and either previews
// or persists it. Missing name/prompt is reported through Missing rather
// than an error so the caller can ask the user for the gaps.
func (s *Service) Create(in CreateInput) (CreateResult, error) {
	name := strings.TrimSpace(in.Name)
	prompt := strings.TrimSpace(in.Prompt)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if prompt == "" {
		missing = append(missing, "prompt")
	}
	if len(missing) > 0 {
		// Touch the store anyway so configuration problems surface first.
		if _, err := s.store.LoadExperts(); err != nil {
			return CreateResult{}, err
		}
		return CreateResult{Missing: missing}, nil
	}

	current, err := s.store.LoadExperts()
	if err != nil {
		return CreateResult{}, err
	}

	candidate := expert.New(name, prompt)
	result := CreateResult{
		Expert:        candidate,
		DuplicateName: hasName(current, name),
	}
	if !in.Confirm {
		return result, nil
	}

	// Reload before committing: preview and confirm arrive as separate
	// calls and the document may have moved in between.
	current, err = s.store.LoadExperts()
	if err != nil {
		return CreateResult{}, err
	}
	next := append(append([]expert.Expert(nil), current...), candidate)
	backup, err := s.store.SaveExperts(current, next)
	if err != nil {
		return CreateResult{}, err
	}
	result.Persisted = true
	result.BackupFile = backup
	return result, nil
}

// UpdateInput carries update_expert arguments. ID is preferred over Name for
// target resolution; Name only resolves when it matches exactly one record.
type UpdateInput struct {
	ID        string
	Name      string
	NewName   *string
	NewPrompt *string
	NewState  *string
	Confirm   bool
}

// UpdateResult holds the resolved old record and the candidate new one.
type UpdateResult struct {
	Old        expert.Expert
	New        expert.Expert
	Persisted  bool
	BackupFile string
	// Candidates lists id/name pairs when resolution was ambiguous.
	Candidates []expert.Expert
}

// Update resolves the target, applies the requested field changes and either
// previews or persists. Returns ErrNotFound / ErrAmbiguous (with Candidates)
// for resolution problems and *ValidationError for bad input.
func (s *Service) Update(in UpdateInput) (UpdateResult, error) {
	if strings.TrimSpace(in.ID) == "" && strings.TrimSpace(in.Name) == "" {
		return UpdateResult{}, &ValidationError{Msg: "provide 'id' or 'name' of the expert to update"}
	}
	if in.NewName == nil && in.NewPrompt == nil && in.NewState == nil {
		return UpdateResult{}, ErrNoChanges
	}
	if in.NewState != nil && !expert.ValidState(*in.NewState) {
		return UpdateResult{}, &ValidationError{
			Msg: "invalid new_state '" + *in.NewState + "': use 'enabled' or 'disabled'",
		}
	}

	current, err := s.store.LoadExperts()
	if err != nil {
		return UpdateResult{}, err
	}

	idx, candidates, err := resolve(current, in.ID, in.Name)
	if err != nil {
		return UpdateResult{Candidates: candidates}, err
	}

	old := current[idx]
	updated := applyChanges(old, in)
	result := UpdateResult{Old: old, New: updated}
	if !in.Confirm {
		return result, nil
	}

	current, err = s.store.LoadExperts()
	if err != nil {
		return UpdateResult{}, err
	}
	idx, candidates, err = resolve(current, in.ID, in.Name)
	if err != nil {
		return UpdateResult{Candidates: candidates}, err
	}
	result.Old = current[idx]
	result.New = applyChanges(current[idx], in)

	next := append([]expert.Expert(nil), current...)
	next[idx] = result.New
	backup, err := s.store.SaveExperts(current, next)
	if err != nil {
		return UpdateResult{}, err
	}
	result.Persisted = true
	result.BackupFile = backup
	return result, nil
}

func applyChanges(e expert.Expert, in UpdateInput) expert.Expert {
	if in.NewName != nil {
		e.Name = *in.NewName
	}
	if in.NewPrompt != nil {
		e.Prompt = *in.NewPrompt
	}
	if in.NewState != nil {
		e.State = *in.NewState
	}
	return e
}

// resolve finds exactly one target index by id (preferred) or by name.
func resolve(experts []expert.Expert, id, name string) (int, []expert.Expert, error) {
	var matches []int
	if strings.TrimSpace(id) != "" {
		for i := range experts {
			if experts[i].ID == id {
				matches = append(matches, i)
			}
		}
	} else {
		for i := range experts {
			if experts[i].Name == name {
				matches = append(matches, i)
			}
		}
	}

	switch len(matches) {
	case 0:
		return -1, nil, ErrNotFound
	case 1:
		return matches[0], nil, nil
	default:
		candidates := make([]expert.Expert, 0, len(matches))
		for _, i := range matches {
			candidates = append(candidates, experts[i])
		}
		return -1, candidates, ErrAmbiguous
	}
}

func hasName(experts []expert.Expert, name string) bool {
	for i := range experts {
		if experts[i].Name == name {
			return true
		}
	}
	return false
}
