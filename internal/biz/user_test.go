package biz

import (
	"context"
	"testing"
	"time"

	"moviecatalog/internal/conf"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserUseCase(f *fixture) *UserUseCase {
	tokens := NewTokenIssuer(&conf.Auth{JwtSecret: "test-secret", TokenTtl: conf.NewDuration(time.Hour)})
	return NewUserUseCase(f.users, f.comments, tokens, log.DefaultLogger)
}

func parseClaims(t *testing.T, uc *UserUseCase, token string) *Claims {
	t.Helper()
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, uc.tokens.Keyfunc)
	require.NoError(t, err)
	return claims
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture()
	uc := newTestUserUseCase(f)
	ctx := context.Background()

	user, token, err := uc.Signup(ctx, " alice ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.NotEmpty(t, token)

	claims := parseClaims(t, uc, token)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, _, err = uc.Signup(ctx, "alice", "another1")
	assert.True(t, errors.Is(err, ErrUsernameTaken))

	logged, token, err := uc.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)

	_, _, err = uc.Login(ctx, "alice", "wrong-password")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, _, err = uc.Login(ctx, "nobody", "secret123")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestSignupValidation(t *testing.T) {
	uc := newTestUserUseCase(newFixture())
	ctx := context.Background()

	_, _, err := uc.Signup(ctx, "  ", "secret123")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, _, err = uc.Signup(ctx, "bob", "short")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestVerify(t *testing.T) {
	f := newFixture()
	uc := newTestUserUseCase(f)
	ctx := context.Background()

	user, token, err := uc.Signup(ctx, "alice", "secret123")
	require.NoError(t, err)

	got, err := uc.Verify(ctx, parseClaims(t, uc, token))
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = uc.Verify(ctx, &Claims{UserID: 999, Username: "ghost"})
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = uc.Verify(ctx, nil)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestUpdateUsername(t *testing.T) {
	f := newFixture()
	uc := newTestUserUseCase(f)
	ctx := context.Background()

	alice, _, err := uc.Signup(ctx, "alice", "secret123")
	require.NoError(t, err)
	_, _, err = uc.Signup(ctx, "bob", "secret123")
	require.NoError(t, err)

	_, _, err = uc.UpdateUsername(ctx, alice.ID, "bob")
	assert.True(t, errors.Is(err, ErrUsernameTaken))

	renamed, token, err := uc.UpdateUsername(ctx, alice.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", renamed.Username)
	assert.Equal(t, "carol", parseClaims(t, uc, token).Username)

	_, _, err = uc.Login(ctx, "carol", "secret123")
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	f := newFixture()
	f.addFightClub()
	uc := newTestUserUseCase(f)
	ctx := context.Background()

	user, _, err := uc.Signup(ctx, "alice", "secret123")
	require.NoError(t, err)
	_, err = f.favoriteUC.ToggleFavorite(ctx, user.ID, 550, true)
	require.NoError(t, err)
	_, err = f.commentUC.AddComment(ctx, user.ID, 550, "great")
	require.NoError(t, err)

	profile, err := uc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.User.Username)
	require.Len(t, profile.Favorites, 1)
	assert.Equal(t, int64(550), profile.Favorites[0].ID)
	assert.Equal(t, 1999, profile.Favorites[0].Year)
	require.Len(t, profile.Comments, 1)
	assert.Equal(t, "great", profile.Comments[0].Content)
}

func TestReleaseYear(t *testing.T) {
	assert.Equal(t, 1999, releaseYear("1999-10-15"))
	assert.Equal(t, 0, releaseYear(""))
	assert.Equal(t, 0, releaseYear("n/a"))
}

func TestUpdateUsernameToCurrentName(t *testing.T) {
	f := newFixture()
	uc := newTestUserUseCase(f)
	ctx := context.Background()

	alice, _, err := uc.Signup(ctx, "alice", "secret123")
	require.NoError(t, err)

	same, token, err := uc.UpdateUsername(ctx, alice.ID, " alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", same.Username)
	assert.Equal(t, alice.ID, parseClaims(t, uc, token).UserID)

	_, _, err = uc.UpdateUsername(ctx, 999, "ghost")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}
