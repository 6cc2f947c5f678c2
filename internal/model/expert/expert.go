package expert

import "github.com/google/uuid"

// States an expert can be in. The set is closed; anything else is rejected
// by validation.
const (
	StateEnabled  = "enabled"
	StateDisabled = "disabled"
)

// TypeUser marks experts created through this server, as opposed to the
// assistant's built-in system experts.
const TypeUser = "user"

// Expert is a reusable system-prompt profile stored in experts.json.
// Identity is the id; name is only a soft-unique hint.
type Expert struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	State       string `json:"state"`
	Name        string `json:"name,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	TriggerApps []any  `json:"triggerApps"`
}

// New builds a user expert with a fresh identifier and default state.
func New(name, prompt string) Expert {
	return Expert{
		ID:          uuid.NewString(),
		Type:        TypeUser,
		State:       StateEnabled,
		Name:        name,
		Prompt:      prompt,
		TriggerApps: []any{},
	}
}

// ValidState reports whether s belongs to the closed state set.
func ValidState(s string) bool {
	return s == StateEnabled || s == StateDisabled
}
