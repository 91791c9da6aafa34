package jsonutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	TemplateID string `json:"template-id"`
	Host       string `json:"host"`
	Info       struct {
		Name     string `json:"name"`
		Severity string `json:"severity"`
	} `json:"info"`
}

func TestUnmarshal_IgnoresUnknownMembers(t *testing.T) {
	t.Parallel()

	line := `{"template-id":"tech-detect","host":"a.example.com","curl-command":"curl ...","info":{"name":"Tech","severity":"info","tags":["tech"]}}`
	var r record
	require.NoError(t, Unmarshal([]byte(line), &r))
	assert.Equal(t, "tech-detect", r.TemplateID)
	assert.Equal(t, "a.example.com", r.Host)
	assert.Equal(t, "info", r.Info.Severity)
}

func TestUnmarshal_Malformed(t *testing.T) {
	t.Parallel()

	var r record
	assert.Error(t, Unmarshal([]byte(`{"template-id":`), &r))
	assert.Error(t, Unmarshal([]byte(`[INF] Using Nuclei Engine 2.7.7`), &r))
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid([]byte(`{"a":1}`)))
	assert.False(t, Valid([]byte(`{"a":`)))
}

func TestMarshalIndent(t *testing.T) {
	t.Parallel()

	data, err := MarshalIndent(map[string]int{"a": 1}, "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"a\"")
}

func TestLineEncoder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewLineEncoder(&buf)
	require.NoError(t, enc.Encode(map[string]string{"k": "v1"}))
	require.NoError(t, enc.Encode(map[string]string{"k": "v2"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"k":"v1"}`, lines[0])
	assert.Equal(t, `{"k":"v2"}`, lines[1])
}
