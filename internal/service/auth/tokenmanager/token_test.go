package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/internal/models"
)

func newTestManager(t *testing.T, cfg Config) *TokenManager {
	t.Helper()

	if cfg.AccessSecret == "" {
		cfg.AccessSecret = "access-secret"
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = "refresh-secret"
	}

	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

func TestTokenManager_New(t *testing.T) {
	t.Parallel()

	t.Run("defaults applied", func(t *testing.T) {
		m := newTestManager(t, Config{})

		assert.Equal(t, 15*time.Minute, m.accessTTL)
		assert.Equal(t, 7*24*time.Hour, m.refreshTTL)
		assert.Equal(t, "HS256", m.alg.Alg())
	})

	t.Run("empty secrets rejected", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "", RefreshSecret: "refresh-secret"})
		assert.Error(t, err)

		_, err = New(Config{AccessSecret: "access-secret", RefreshSecret: ""})
		assert.Error(t, err)
	})

	t.Run("equal secrets rejected", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "same", RefreshSecret: "same"})

		assert.Error(t, err, "one key for both token kinds defeats having two")
	})

	t.Run("unknown signing method rejected", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "access-secret", RefreshSecret: "refresh-secret", Alg: "NOPE"})

		assert.Error(t, err)
	})
}

func TestTokenManager_GeneratePair(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{AccessTTL: time.Minute, RefreshTTL: time.Hour})
	user := models.User{ID: uuid.New()}

	pair, err := m.GeneratePair(user)
	require.NoError(t, err)

	assert.NotEmpty(t, pair.Access.Value)
	assert.NotEmpty(t, pair.Refresh.Value)
	assert.NotEqual(t, pair.Access.Value, pair.Refresh.Value)
	assert.WithinDuration(t, time.Now().Add(time.Minute), pair.Access.ExpiresAt, 2*time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.Refresh.ExpiresAt, 2*time.Second)
}

func TestTokenManager_Parse(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, Config{})
	user := models.User{ID: uuid.New()}

	pair, err := m.GeneratePair(user)
	require.NoError(t, err)

	t.Run("access round trip", func(t *testing.T) {
		userID, err := m.ParseAccess(pair.Access.Value)

		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
	})

	t.Run("refresh round trip", func(t *testing.T) {
		userID, err := m.ParseRefresh(pair.Refresh.Value)

		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
	})

	t.Run("token kinds are not interchangeable", func(t *testing.T) {
		// A refresh token must never pass as an access token, even though
		// both are well formed JWTs signed by the same manager
		_, err := m.ParseAccess(pair.Refresh.Value)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

		_, err = m.ParseRefresh(pair.Access.Value)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("foreign key rejected", func(t *testing.T) {
		other := newTestManager(t, Config{AccessSecret: "other-access", RefreshSecret: "other-refresh"})

		_, err := other.ParseAccess(pair.Access.Value)

		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		// Negative TTL issues tokens that are already expired
		expired := newTestManager(t, Config{AccessTTL: -time.Minute, RefreshTTL: -time.Minute})

		pair, err := expired.GeneratePair(user)
		require.NoError(t, err)

		_, err = m.ParseAccess(pair.Access.Value)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)

		_, err = m.ParseRefresh(pair.Refresh.Value)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := m.ParseAccess("not.a.token")

		assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
	})
}
