package history_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifai/automcp/internal/model/history"
)

func TestDisplayTextPrefersTextField(t *testing.T) {
	m := history.Message{
		Text:    json.RawMessage(`"from text"`),
		Content: json.RawMessage(`"from content"`),
	}
	assert.Equal(t, "from text", m.DisplayText())
}

func TestDisplayTextFallsBackToContent(t *testing.T) {
	m := history.Message{Content: json.RawMessage(`"hello there"`)}
	assert.Equal(t, "hello there", m.DisplayText())
	assert.True(t, m.Textual())
}

func TestDisplayTextStructuredContent(t *testing.T) {
	m := history.Message{Content: json.RawMessage(`{"parts": ["a", "b"]}`)}
	got := m.DisplayText()
	assert.Equal(t, `{"parts":["a","b"]}`, got)
	assert.False(t, m.Textual())
}

func TestDisplayTextStructuredTruncation(t *testing.T) {
	big := strings.Repeat("x", 3000)
	raw, err := json.Marshal(map[string]string{"blob": big})
	require.NoError(t, err)

	m := history.Message{Content: raw}
	got := m.DisplayText()
	assert.Len(t, []rune(got), history.SnippetStructuredRunes)
}

func TestDisplayTextEmpty(t *testing.T) {
	assert.Equal(t, "", history.Message{}.DisplayText())
}

func TestNewMessageRoundTrip(t *testing.T) {
	m := history.NewMessage(history.RoleUser, "hi", 1700000000000)
	require.NotEmpty(t, m.UUID)
	assert.Equal(t, int64(1700000000000), m.CreatedAt)
	assert.Equal(t, "hi", m.DisplayText())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	var back history.Message
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "hi", back.DisplayText())
}
