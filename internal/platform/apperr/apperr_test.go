package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHasNoCause(t *testing.T) {
	err := New(NotFound, "node missing")
	assert.Equal(t, NotFound, err.Kind)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "not_found: node missing", err.Error())
}

func TestWrapIncludesCauseInMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(StoreUnavailable, "dial graph store", cause)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "dial graph store")
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Internal, "x", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestKindOfDefaultsToInternalForPlainErrors(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
}

func TestKindOfUnwrapsThroughFmtErrorf(t *testing.T) {
	err := New(Transient, "retry me")
	wrapped := fmt.Errorf("outer context: %w", err)
	assert.Equal(t, Transient, KindOf(wrapped))
}

func TestIsMatchesOnlyItsOwnKind(t *testing.T) {
	err := New(SyntaxRejected, "bad cypher")
	assert.True(t, Is(err, SyntaxRejected))
	assert.False(t, Is(err, ParseFailed))
}
