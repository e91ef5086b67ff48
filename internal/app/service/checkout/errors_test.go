package checkout

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure_IsWrapFriendly(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Failure{Kind: ErrSubscriptionCreationFailed, Details: "db down"})
	require.True(t, errors.Is(err, ErrSubscriptionCreationFailed))
	assert.False(t, errors.Is(err, ErrPlanNotFound))
	assert.Equal(t, "wrapped: Failed to create subscription: db down", err.Error())
}

func TestDescribe(t *testing.T) {
	status, body := Describe(fmt.Errorf("load: %w", ErrUserMismatch))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "User ID mismatch", body.Error)

	status, body = Describe(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", body.Error)
	assert.Empty(t, body.Details)
}
