package domain

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrConfig", ErrConfig},
		{"ErrIO", ErrIO},
		{"ErrParse", ErrParse},
		{"ErrNetwork", ErrNetwork},
		{"ErrRemoteRejected", ErrRemoteRejected},
		{"ErrSyncFailed", ErrSyncFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestItemError_UnwrapsKindAndCause(t *testing.T) {
	err := NewIOError("gpt/a.md", os.ErrNotExist)

	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "gpt/a.md")
}

func TestItemError_ParseKind(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewParseError("claude/b.md", cause)

	var itemErr *ItemError
	assert.True(t, errors.As(err, &itemErr))
	assert.Equal(t, ErrParse, itemErr.Kind)
	assert.True(t, errors.Is(err, cause))
}

func TestIsConfigError(t *testing.T) {
	assert.True(t, IsConfigError(ErrConfig))
	assert.True(t, IsConfigError(errors.Join(errors.New("x"), ErrConfig)))
	assert.False(t, IsConfigError(ErrIO))
	assert.False(t, IsConfigError(nil))
}
