package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardledger/cardledger/pkg/models"
	"github.com/cardledger/cardledger/pkg/testutils"
)

func TestSuperuserStoreDAO(t *testing.T) {
	skipIfNoDB(t)

	ctx := context.Background()

	username, err := testutils.GenerateRandomString(16)
	assert.NoError(t, err, "GenerateRandomString should not return an error")

	superuserStore := NewSuperuserStoreDAO(testDB)

	request := &models.CreateSuperuserRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse battery staple",
	}

	t.Run("Create", func(t *testing.T) {
		created, err := superuserStore.Create(ctx, request)
		assert.NoError(t, err)
		assert.Equal(t, request.Username, created.Username)
		assert.True(t, created.IsActive)
	})

	t.Run("Create duplicate should result in BadRequestError", func(t *testing.T) {
		_, err := superuserStore.Create(ctx, request)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("Create with empty username should result in BadRequestError", func(t *testing.T) {
		_, err := superuserStore.Create(ctx, &models.CreateSuperuserRequest{
			Password: "password",
		})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("Create with empty password should result in BadRequestError", func(t *testing.T) {
		_, err := superuserStore.Create(ctx, &models.CreateSuperuserRequest{
			Username: "no-password",
		})
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("Get", func(t *testing.T) {
		retrieved, err := superuserStore.Get(ctx, request.Username)
		assert.NoError(t, err)
		assert.Equal(t, request.Username, retrieved.Username)
		assert.Equal(t, request.Email, retrieved.Email)
	})

	t.Run("Get non-existent superuser should result in NotFoundError", func(t *testing.T) {
		_, err := superuserStore.Get(ctx, "non-existent-superuser")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Authenticate", func(t *testing.T) {
		authed, err := superuserStore.Authenticate(ctx, request.Username, request.Password)
		assert.NoError(t, err)
		assert.Equal(t, request.Username, authed.Username)
	})

	t.Run("Authenticate with wrong password should result in UnauthorizedError", func(t *testing.T) {
		_, err := superuserStore.Authenticate(ctx, request.Username, "wrong password")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}
