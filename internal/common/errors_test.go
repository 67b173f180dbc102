package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("could not open the database", cause)

	require.ErrorIs(t, err, cause)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "could not open the database", userErr.UserMessage)
	assert.Equal(t, "could not open the database: disk full", err.Error())
}

func TestUserErrorWithoutCause(t *testing.T) {
	err := &UserError{UserMessage: "nothing to resume"}
	assert.Equal(t, "nothing to resume", err.Error())
	assert.Nil(t, err.Unwrap())
}
