package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (AuthService, *fakeRefereeRepo, *models.Referee) {
	t.Helper()
	repo := newFakeRefereeRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.Referee{
		DiscordID:          1,
		GuildID:            1,
		Username:           "admin",
		IsActive:           true,
		IsAdmin:            true,
		CanResolveDisputes: true,
		PasswordHash:       string(hash),
	}
	require.NoError(t, repo.Create(context.Background(), admin))
	return svc, repo, admin
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc, _, admin := newAuthFixture(t)

	token, referee, err := svc.Login(context.Background(), 1, "admin", "admin-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, admin.ID, referee.ID)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.RefereeID)
	assert.Equal(t, int64(1), claims.GuildID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "admin", claims.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, 1, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, 1, "nobody", "admin-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveReferee(t *testing.T) {
	svc, repo, admin := newAuthFixture(t)
	ctx := context.Background()

	admin.IsActive = false
	require.NoError(t, repo.Update(ctx, admin))

	_, _, err := svc.Login(ctx, 1, "admin", "admin-pass")
	assert.ErrorIs(t, err, ErrRefereeInactive)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	token, _, err := svc.Login(context.Background(), 1, "admin", "admin-pass")
	require.NoError(t, err)

	_, err = svc.ParseToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other := NewAuthService(newFakeRefereeRepo(), "different-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRefereeRequiresAdmin(t *testing.T) {
	svc, _, admin := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.RegisterReferee(ctx, RegisterRefereeParams{
		ActorID:            admin.ID,
		DiscordID:          2,
		GuildID:            1,
		Username:           "junior",
		Password:           "secret",
		CanResolveDisputes: true,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsAdmin)

	// The new non-admin referee cannot register others.
	_, err = svc.RegisterReferee(ctx, RegisterRefereeParams{
		ActorID:   created.ID,
		DiscordID: 3,
		GuildID:   1,
		Username:  "another",
		Password:  "secret",
	})
	assert.ErrorIs(t, err, ErrAdminOnly)

	// Duplicate username within the guild is rejected.
	_, err = svc.RegisterReferee(ctx, RegisterRefereeParams{
		ActorID:   admin.ID,
		DiscordID: 4,
		GuildID:   1,
		Username:  "junior",
		Password:  "secret",
	})
	assert.ErrorIs(t, err, repositories.ErrRefereeAlreadyExists)
}

func TestListRefereesAdminOnly(t *testing.T) {
	svc, _, admin := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.RegisterReferee(ctx, RegisterRefereeParams{
		ActorID:   admin.ID,
		DiscordID: 2,
		GuildID:   1,
		Username:  "junior",
		Password:  "secret",
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, admin.ID, created.ID, false))

	all, err := svc.ListReferees(ctx, admin.ID, 1, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListReferees(ctx, admin.ID, 1, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = svc.ListReferees(ctx, created.ID, 1, false)
	assert.ErrorIs(t, err, ErrAdminOnly)
}

func TestSetActiveTogglesLogin(t *testing.T) {
	svc, _, admin := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.RegisterReferee(ctx, RegisterRefereeParams{
		ActorID:   admin.ID,
		DiscordID: 2,
		GuildID:   1,
		Username:  "junior",
		Password:  "secret",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, admin.ID, created.ID, false))
	_, _, err = svc.Login(ctx, 1, "junior", "secret")
	assert.ErrorIs(t, err, ErrRefereeInactive)

	require.NoError(t, svc.SetActive(ctx, admin.ID, created.ID, true))
	_, _, err = svc.Login(ctx, 1, "junior", "secret")
	assert.NoError(t, err)
}
