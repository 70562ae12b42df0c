package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pqerrors "github.com/pqreactor/pqreactor/go/pqreactor/errors"
)

func TestNewOKIsNil(t *testing.T) {
	require.NoError(t, pqerrors.New(pqerrors.OK, nil))
}

func TestNewWrapsCauseAndCode(t *testing.T) {
	cause := errors.New("connection refused")
	err := pqerrors.New(pqerrors.ConnFailed, cause)
	require.Error(t, err)

	code, ok := pqerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, pqerrors.ConnFailed, code)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "CONN_FAILED")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsOnNilAndForeignErrors(t *testing.T) {
	_, ok := pqerrors.As(nil)
	assert.False(t, ok)

	_, ok = pqerrors.As(errors.New("not ours"))
	assert.False(t, ok)
}

func TestIs(t *testing.T) {
	err := pqerrors.New(pqerrors.ResultFatalError, nil)
	assert.True(t, pqerrors.Is(err, pqerrors.ResultFatalError))
	assert.False(t, pqerrors.Is(err, pqerrors.ResultBadResponse))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "RESULT_BAD_RESPONSE", pqerrors.ResultBadResponse.String())
	assert.Contains(t, pqerrors.Code(999).String(), "Code(999)")
}
