package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "code only",
			err:      &Error{Code: CyclicIRIMapping},
			expected: "cyclic IRI mapping",
		},
		{
			name:     "code with detail",
			err:      New(InvalidContainerMapping, "@list cannot combine with @set"),
			expected: "invalid container mapping: @list cannot combine with @set",
		},
		{
			name:     "code with term",
			err:      NewTerm(ProtectedTermRedefinition, "name", "definition differs"),
			expected: `protected term redefinition (term "name"): definition differs`,
		},
		{
			name:     "code with cause",
			err:      Wrap(LoadingRemoteContextFailed, fmt.Errorf("dial tcp: refused"), "fetching %s", "http://example.org/ctx").(*Error),
			expected: "loading remote context failed: fetching http://example.org/ctx: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(LoadingRemoteContextFailed, nil, "fetching"))
}

func TestCodeMatching(t *testing.T) {
	err := NewTerm(ProtectedTermRedefinition, "name", "definition differs")

	assert.Equal(t, ProtectedTermRedefinition, CodeOf(err))
	assert.True(t, IsCode(err, ProtectedTermRedefinition))
	assert.False(t, IsCode(err, CyclicIRIMapping))

	// errors.Is matches on code through wrapping
	wrapped := fmt.Errorf("parse failed: %w", err)
	assert.True(t, stderrors.Is(wrapped, &Error{Code: ProtectedTermRedefinition}))
	assert.False(t, stderrors.Is(wrapped, &Error{Code: KeywordRedefinition}))
	assert.Equal(t, ProtectedTermRedefinition, CodeOf(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(LoadingRemoteContextFailed, cause, "fetching context")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, cause))
}

func TestClassification(t *testing.T) {
	loading := New(LoadingRemoteContextFailed, "timeout")
	invalid := New(InvalidIRIMapping, "not an IRI")

	assert.True(t, IsTransient(loading))
	assert.False(t, IsInvalid(loading))

	assert.False(t, IsTransient(invalid))
	assert.True(t, IsInvalid(invalid))

	// Non-JSON-LD errors classify as neither
	plain := fmt.Errorf("boom")
	assert.False(t, IsTransient(plain))
	assert.False(t, IsInvalid(plain))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(fmt.Errorf("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
}
