package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_WrapsRawErrors(t *testing.T) {
	raw := errors.New("connection reset")
	err := Persistence(raw)

	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, raw)
}

func TestPersistence_KeepsDomainKind(t *testing.T) {
	err := Persistence(NotFound("order %s", "x"))

	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrPersistence))
	assert.Equal(t, "not found: order x", err.Error())
}

func TestPersistence_Nil(t *testing.T) {
	assert.NoError(t, Persistence(nil))
}
