package runner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/whodunit/pkg/runner"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := runner.DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"under limit", limit - 1, false},
		{"exact limit", limit, false},
		{"over limit", limit + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.SanitizeInput(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, runner.ErrInputTooLarge)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Where were you at ten?", "Where were you at ten?"},
		{"safe controls", "Line1\nLine2\tTabbed\r", "Line1\nLine2\tTabbed\r"},
		{"ansi escape", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"null byte", "Null\x00Byte", "NullByte"},
		{"bell", "Ding\x07", "Ding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runner.SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizer_Limit(t *testing.T) {
	s := runner.NewSanitizer(10)
	assert.Equal(t, 10, s.Limit())

	_, err := s.Clean("12345678901")
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)

	got, err := s.Clean("12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", got)
}

func TestSanitizer_NonPositiveLimitUsesDefault(t *testing.T) {
	for _, size := range []int{0, -3} {
		s := runner.NewSanitizer(size)
		assert.Equal(t, runner.DefaultMaxInputSize, s.Limit())
		_, err := s.Clean(strings.Repeat("a", runner.DefaultMaxInputSize))
		assert.NoError(t, err)
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := runner.SanitizeInput("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, runner.ErrInvalidUTF8)
}
