package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ciaranmckenna/book-club/internal/apperrors"
	"github.com/ciaranmckenna/book-club/internal/database"
	"github.com/ciaranmckenna/book-club/internal/entities"
)

func TestRegister(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)

	user, err := svc.Register(RegistrationInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "password123",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.Enabled)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, user.HasRole(entities.RoleUser))
	assert.False(t, user.IsAdmin())
}

func TestRegisterValidation(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)

	cases := []struct {
		name  string
		input RegistrationInput
	}{
		{"short username", RegistrationInput{Username: "ab", Email: "a@b.com", Password: "password123"}},
		{"bad email", RegistrationInput{Username: "alice", Email: "not-an-email", Password: "password123"}},
		{"short password", RegistrationInput{Username: "alice", Email: "a@b.com", Password: "short"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(tc.input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestRegisterUniqueness(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	createTestUser(t, db, "alice")

	_, err := svc.Register(RegistrationInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Register(RegistrationInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthenticate(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	createTestUser(t, db, "alice")

	user, err := svc.Authenticate("alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Email works as the identifier too.
	user, err = svc.Authenticate("alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Authenticate("alice", "wrong-password")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	// Unknown users fail the same way as bad passwords.
	_, err = svc.Authenticate("nobody", "password123")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	user := createTestUser(t, db, "alice")

	require.NoError(t, svc.SetEnabled(user.ID, false))

	_, err := svc.Authenticate("alice", "password123")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	require.NoError(t, svc.SetEnabled(user.ID, true))
	_, err = svc.Authenticate("alice", "password123")
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	user := createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")

	updated, err := svc.UpdateProfile(user.ID, ProfileInput{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, "Smith", updated.LastName)

	// Claiming another user's email is rejected.
	_, err = svc.UpdateProfile(user.ID, ProfileInput{Email: "bob@example.com"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestChangePassword(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	user := createTestUser(t, db, "alice")

	err := svc.ChangePassword(user.ID, "wrong-password", "newpassword456")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	err = svc.ChangePassword(user.ID, "password123", "short")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, svc.ChangePassword(user.ID, "password123", "newpassword456"))

	_, err = svc.Authenticate("alice", "newpassword456")
	require.NoError(t, err)
	_, err = svc.Authenticate("alice", "password123")
	require.Error(t, err)
}

func TestGrantAndRevokeRole(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	user := createTestUser(t, db, "alice")

	require.NoError(t, svc.GrantRole(user.ID, entities.RoleAdmin))
	// Granting a held role is a no-op.
	require.NoError(t, svc.GrantRole(user.ID, entities.RoleAdmin))

	reloaded, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin())

	require.NoError(t, svc.RevokeRole(user.ID, entities.RoleAdmin))
	// Revoking an absent role is a no-op.
	require.NoError(t, svc.RevokeRole(user.ID, entities.RoleAdmin))

	reloaded, err = svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsAdmin())
	assert.True(t, reloaded.HasRole(entities.RoleUser))

	err = svc.GrantRole(user.ID, "ROLE_WIZARD")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestIsUsernameAndEmailAvailable(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	createTestUser(t, db, "alice")

	available, err := svc.IsUsernameAvailable("alice")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = svc.IsUsernameAvailable("bob")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = svc.IsEmailAvailable("alice@example.com")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestDeleteUser(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	user := createTestUser(t, db, "alice")

	require.NoError(t, svc.DeleteUser(user.ID))

	_, err := svc.GetUserByID(user.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = svc.DeleteUser(999)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetAllUsersPaged(t *testing.T) {
	db, cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewUserService(db, bcrypt.MinCost)
	for _, name := range []string{"alice", "bob", "carol"} {
		createTestUser(t, db, name)
	}

	page, err := svc.GetAllUsers(database.NewPagination(0, 2, "", false))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)

	// Default ordering is by username, with roles loaded.
	assert.Equal(t, "alice", page.Items[0].Username)
	assert.True(t, page.Items[0].HasRole(entities.RoleUser))

	page, err = svc.GetAllUsers(database.NewPagination(1, 2, "", false))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "carol", page.Items[0].Username)
}
