package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/services"
	"github.com/JAGANADITHYA/walk1/internal/storage"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]models.UserSession
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]models.UserSession)}
}

func (m *memorySessions) StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID+"/"+session.SessionID] = *session
	return nil
}

func (m *memorySessions) GetUserSession(ctx context.Context, userID, sessionID string) (*models.UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID+"/"+sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session not found", services.ErrUnauthorized)
	}
	return &s, nil
}

func (m *memorySessions) DeleteUserSession(ctx context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID+"/"+sessionID)
	return nil
}

func TestLoginUpsertsUserAndSession(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sessions := newMemorySessions()
	jwtService := services.NewJWTService(testConfig())
	auth := services.NewAuthService(store, sessions, jwtService, testLogger())

	idToken := signIdentity(t, "identity-secret", services.IdentityClaims{
		Email:    "walker@example.com",
		LastName: "Rao",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-7",
		},
	})

	res, err := auth.Login(ctx, idToken)
	require.NoError(t, err)
	assert.Equal(t, "user-7", res.User.ID)
	assert.True(t, res.User.Balance.IsZero())

	claims, err := jwtService.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)

	session, err := sessions.GetUserSession(ctx, claims.UserID, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "walker@example.com", session.Identity.Email)

	// A later login refreshes the profile and keeps the balance.
	u := mustUser(t, store, "user-7")
	u.Balance = models.NumericFromInt(12)
	store.PutUser(*u)

	res, err = auth.Login(ctx, idToken)
	require.NoError(t, err)
	assert.Equal(t, "12.00", res.User.Balance.String())

	require.NoError(t, auth.Logout(ctx, claims.UserID, claims.SessionID))
	_, err = sessions.GetUserSession(ctx, claims.UserID, claims.SessionID)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestLoginRejectsBadIdentity(t *testing.T) {
	auth := services.NewAuthService(storage.NewMemoryStore(), newMemorySessions(),
		services.NewJWTService(testConfig()), testLogger())

	_, err := auth.Login(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	_, err = auth.CurrentUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
