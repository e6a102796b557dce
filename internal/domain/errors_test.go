package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/trina/internal/domain"
)

func TestStorageError(t *testing.T) {
	cause := errors.New("connection refused")
	err := domain.StorageError("append turn", cause)

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "append turn")
}

func TestStorageErrorKeepsClassifiedErrors(t *testing.T) {
	notFound := fmt.Errorf("conversation abc: %w", domain.ErrNotFound)
	assert.Same(t, notFound, domain.StorageError("get", notFound))
	assert.NoError(t, domain.StorageError("get", nil))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, domain.RoleUser.Valid())
	assert.True(t, domain.RoleAssistant.Valid())
	assert.False(t, domain.Role("system").Valid())
	assert.False(t, domain.Role("agent").Valid())
}
