package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind(t *testing.T) {
	err := &APIError{Kind: KindPermission, StatusCode: 403, Message: "not your deal"}

	assert.True(t, IsKind(err, KindPermission))
	assert.False(t, IsKind(err, KindAuth))
	assert.False(t, IsKind(errors.New("plain"), KindPermission))
	assert.False(t, IsKind(nil, KindPermission))
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	inner := &APIError{Kind: KindServer, StatusCode: 503}
	wrapped := fmt.Errorf("Transition: accept: %w", inner)

	assert.True(t, IsKind(wrapped, KindServer))
}

func TestAPIError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &APIError{Kind: KindNetwork, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "network")
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Kind: KindValidation, StatusCode: 422, Message: "quantity exceeds listing"}
	assert.Contains(t, err.Error(), "quantity exceeds listing")
	assert.Contains(t, err.Error(), "422")
}
