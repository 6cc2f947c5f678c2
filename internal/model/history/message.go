package history

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/verifai/automcp/pkg/utils"
)

// Roles form a closed set; validation rejects anything else.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Rune limits for the displayable text derived from a message body.
const (
	SnippetTextRunes       = 200
	SnippetStructuredRunes = 2000
)

// Message is a single turn inside a chat. Text and Content stay raw JSON so
// non-textual bodies (attachments, tool transcripts) survive a round trip
// untouched.
type Message struct {
	Role         string          `json:"role"`
	Type         string          `json:"type,omitempty"`
	Attachments  []any           `json:"attachments"`
	UUID         string          `json:"uuid"`
	Engine       string          `json:"engine,omitempty"`
	Model        string          `json:"model,omitempty"`
	CreatedAt    int64           `json:"createdAt"`
	Expert       json.RawMessage `json:"expert,omitempty"`
	DeepResearch bool            `json:"deepResearch"`
	ToolCalls    []any           `json:"toolCalls"`
	Usage        json.RawMessage `json:"usage,omitempty"`
	Transient    bool            `json:"transient"`
	UIOnly       bool            `json:"uiOnly"`
	Text         json.RawMessage `json:"text,omitempty"`
	Content      json.RawMessage `json:"content,omitempty"`
}

// NewMessage builds a plain-text message turn.
func NewMessage(role, content string, nowMillis int64) Message {
	raw, _ := json.Marshal(content)
	return Message{
		Role:        role,
		Type:        "text",
		Attachments: []any{},
		UUID:        uuid.NewString(),
		CreatedAt:   nowMillis,
		ToolCalls:   []any{},
		Content:     raw,
	}
}

// ValidRole reports whether r belongs to the closed role set.
func ValidRole(r string) bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}

// DisplayText derives the text shown for a message: the text field when it
// is a JSON string, else the content field when it is a JSON string, else a
// compact rendering of content capped at SnippetStructuredRunes, else "".
func (m Message) DisplayText() string {
	if s, ok := asString(m.Text); ok {
		return s
	}
	if s, ok := asString(m.Content); ok {
		return s
	}
	if len(m.Content) > 0 {
		var buf any
		if err := json.Unmarshal(m.Content, &buf); err == nil {
			compact, err := json.Marshal(buf)
			if err == nil {
				return utils.TruncateRunes(string(compact), SnippetStructuredRunes)
			}
		}
	}
	return ""
}

// Textual reports whether the message body is a plain JSON string.
func (m Message) Textual() bool {
	if _, ok := asString(m.Text); ok {
		return true
	}
	_, ok := asString(m.Content)
	return ok
}

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
