package scan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Mode
	}{
		{"technology", ModeTechnology},
		{"severe", ModeSevere},
		{"manual", ModeManual},
		{"budget", ModeBudget},
		{" Budget ", ModeBudget},
		{"SEVERE", ModeSevere},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseMode_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "fast", "budgets"} {
		_, err := ParseMode(in)
		assert.True(t, errors.Is(err, ErrInvalidMode), "%q", in)
	}
}

func TestMode_Banner(t *testing.T) {
	t.Parallel()

	for _, m := range Modes {
		assert.Contains(t, m.Banner(), "mode", m)
	}
	assert.Contains(t, ModeSevere.Banner(), "IGNORED")
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "configuring", StateConfiguring.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateInvoking.Active())
	assert.False(t, StateCompleted.Active())
}
