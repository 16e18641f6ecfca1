package users

import (
	"context"
	"testing"
	"time"

	"github.com/asookemart/asooke-backend/pkg/db/dbtest"
	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNormalisesIdentity(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Email: " Ada@Example.COM ", FirstName: "aDA", LastName: "lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
	assert.Equal(t, enums.RoleCustomer, user.Role)
	assert.False(t, user.IsActive)

	found, err := repo.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestCreateRiderAssignsSequentialNumbers(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	first, err := repo.CreateRider(ctx, CreateUserDTO{Email: "r1@asooke.ng", FirstName: "Tunde", LastName: "Bello", IsActive: true})
	require.NoError(t, err)
	second, err := repo.CreateRider(ctx, CreateUserDTO{Email: "r2@asooke.ng", FirstName: "Kemi", LastName: "Ade", IsActive: true})
	require.NoError(t, err)

	require.NotNil(t, first.RiderNumber)
	assert.Equal(t, "A0-DR-0001", *first.RiderNumber)
	assert.Equal(t, "A0-DR-0002", *second.RiderNumber)
	assert.Equal(t, enums.RoleRider, second.Role)

	reloaded, err := repo.FindByEmail(ctx, "R2@ASOOKE.NG")
	require.NoError(t, err)
	assert.Equal(t, second.ID, reloaded.ID)
}

func TestActivateAndLastLogin(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	user, err := repo.Create(ctx, CreateUserDTO{Email: "b@x.ng", FirstName: "b", LastName: "c"})
	require.NoError(t, err)

	require.NoError(t, repo.Activate(ctx, user.ID))
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, now))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsActive)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(now))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Ọlá", Capitalize("ọLÁ"))
	assert.Equal(t, "", Capitalize("  "))
}
