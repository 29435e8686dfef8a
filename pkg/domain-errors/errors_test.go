package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("cause")

func TestWrapPreservesCause(t *testing.T) {
	err := Wrap(errCause, CodeConflict, "offer rejected")
	require.Error(t, err)
	assert.ErrorIs(t, err, errCause)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.Equal(t, "offer rejected", Message(err))
	assert.Equal(t, "offer rejected: cause", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := New(CodeNotFound, "missing")
	outer := Wrap(fmt.Errorf("load: %w", inner), CodeInternal, "failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeForbidden))
	assert.True(t, Is(outer, CodeNotFound))
}

func TestCodeOfUncoded(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errCause))
	assert.Equal(t, "internal error", Message(errCause))
}
