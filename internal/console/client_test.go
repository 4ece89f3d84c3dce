package console

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gorcon/rcon"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDialErrorAuthFailure(t *testing.T) {
	err := classifyDialError(fmt.Errorf("dial 10.0.0.1:25575: %w", rcon.ErrAuthFailed))
	assert.ErrorIs(t, err, ErrAuth)
	assert.NotErrorIs(t, err, ErrConnection)
}

func TestClassifyDialErrorTransportFailure(t *testing.T) {
	err := classifyDialError(errors.New("dial tcp 10.0.0.1:25575: connection refused"))
	assert.ErrorIs(t, err, ErrConnection)
	assert.NotErrorIs(t, err, ErrAuth)
}
