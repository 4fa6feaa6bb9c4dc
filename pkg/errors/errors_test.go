package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New(ErrCodeInvalidAtom, "atom index 12 out of range")
	assert.Equal(t, "[MOL_002] atom index 12 out of range", e.Error())

	withDetail := e.WithDetail("molecule has 5 atoms")
	assert.Equal(t, "[MOL_002] atom index 12 out of range: molecule has 5 atoms", withDetail.Error())

	// WithDetail must not mutate the receiver.
	assert.Empty(t, e.Detail)
}

func TestAppError_NilReceivers(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.WithDetail("x"))
	assert.Nil(t, e.WithCause(stderrors.New("y")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeAlphabetLoad, "unused"))

	cause := stderrors.New("unexpected EOF")
	e := Wrap(cause, ErrCodeAlphabetLoad, "corrupt header")
	require.NotNil(t, e)
	assert.Equal(t, ErrCodeAlphabetLoad, e.Code)
	assert.ErrorIs(t, e, cause)
}

func TestWrap_PreservesDomainCode(t *testing.T) {
	inner := New(ErrCodeMalformedSignature, "missing bracket")
	outer := Wrap(inner, ErrCodeInternal, "parse failed")
	assert.Equal(t, ErrCodeMalformedSignature, outer.Code)
}

func TestIsCode(t *testing.T) {
	e := New(ErrCodeIncompatibleAlphabet, "radius 2 vs 3")
	wrapped := fmt.Errorf("merge: %w", e)

	assert.True(t, IsCode(wrapped, ErrCodeIncompatibleAlphabet))
	assert.False(t, IsCode(wrapped, ErrCodeAlphabetLoad))
	assert.False(t, IsCode(nil, ErrCodeAlphabetLoad))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(nil))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeNeighborsNotComputed, GetCode(New(ErrCodeNeighborsNotComputed, "x")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "SIG", ModuleForCode(ErrCodeMalformedSignature))
	assert.Equal(t, "ALP", ModuleForCode(ErrCodeAlphabetLoad))
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "alphabet configurations differ", DefaultMessageForCode(ErrCodeIncompatibleAlphabet))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}
