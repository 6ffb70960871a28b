package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUpstreamError_MapsStatus(t *testing.T) {
	err := NewUpstreamError(http.StatusUnauthorized, "Invalid credentials")
	de := ToDomainError(err)

	assert.Equal(t, "UNAUTHORIZED", de.Code)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
	assert.Equal(t, "Invalid credentials", de.Message)
	assert.True(t, IsUnauthorized(err))
}

func TestNewUpstreamError_ServerFailureBecomesBadGateway(t *testing.T) {
	de := ToDomainError(NewUpstreamError(http.StatusInternalServerError, ""))

	assert.Equal(t, "UPSTREAM_ERROR", de.Code)
	assert.Equal(t, http.StatusBadGateway, de.HTTPStatus)
	assert.Equal(t, "Request failed", de.Message)
}

func TestNewUnavailable_Timeout(t *testing.T) {
	err := NewUnavailable(fmt.Errorf("get /auth/me: %w", context.DeadlineExceeded))

	de := ToDomainError(err)
	assert.Equal(t, "backend timed out", de.Message)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, IsUnauthorized(err))
}

func TestToDomainError_WrapsUnknown(t *testing.T) {
	de := ToDomainError(errors.New("boom"))

	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
}
