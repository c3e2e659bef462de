package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/storage"
)

type SessionStore interface {
	StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error
	GetUserSession(ctx context.Context, userID, sessionID string) (*models.UserSession, error)
	DeleteUserSession(ctx context.Context, userID, sessionID string) error
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// AuthService exchanges identity provider tokens for access tokens.
type AuthService struct {
	store    storage.Store
	sessions SessionStore
	jwt      *JWTService
	log      *logrus.Entry
}

func NewAuthService(store storage.Store, sessions SessionStore, jwtService *JWTService, log *logrus.Entry) *AuthService {
	return &AuthService{
		store:    store,
		sessions: sessions,
		jwt:      jwtService,
		log:      log.WithField("component", "auth"),
	}
}

func (a *AuthService) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	identity, err := a.jwt.VerifyIdentityToken(idToken)
	if err != nil {
		return nil, err
	}

	user, err := a.store.UpsertUserIdentity(ctx, models.NewUserFromIdentity(*identity))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	now := time.Now()
	session := &models.UserSession{
		UserID:       user.ID,
		SessionID:    models.GenerateID(),
		Identity:     *identity,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := a.sessions.StoreUserSession(ctx, session, TTLUserSession); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, expiresAt, err := a.jwt.GenerateToken(user.ID, session.SessionID)
	if err != nil {
		return nil, err
	}

	a.log.WithField("user_id", user.ID).Info("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (a *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	if err := a.sessions.DeleteUserSession(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	a.log.WithField("user_id", userID).Info("user logged out")
	return nil
}

func (a *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}
