package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/models"
)

// RedisService holds login sessions, rate limit counters and the per-user
// ledger event channels.
type RedisService struct {
	client *redis.Client
	log    *logrus.Entry
}

func NewRedisService(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{
		client: client,
		log:    log.WithField("component", "redis"),
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisService) StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyUserSession, session.UserID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, expiry).Err()
}

// GetUserSession loads a session and slides its expiry.
func (s *RedisService) GetUserSession(ctx context.Context, userID, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: session not found", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.LastAccessed = time.Now()
	if updated, err := json.Marshal(session); err == nil {
		if err := s.client.Set(ctx, key, updated, TTLUserSession).Err(); err != nil {
			s.log.WithError(err).Warn("failed to refresh session")
		}
	}

	return &session, nil
}

func (s *RedisService) DeleteUserSession(ctx context.Context, userID, sessionID string) error {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)
	return s.client.Del(ctx, key).Err()
}

// CheckRateLimit counts hits per subject and action in a fixed window.
func (s *RedisService) CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, subject, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, subject, action string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, subject, action)).Err()
}

func (s *RedisService) PublishLedgerEvent(ctx context.Context, event *models.LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}
	return s.client.Publish(ctx, fmt.Sprintf(KeyUserEvents, event.UserID), data).Err()
}

// SubscribeLedgerEvents streams the user's ledger events until ctx is done.
// The returned channel is closed when the subscription ends.
func (s *RedisService) SubscribeLedgerEvents(ctx context.Context, userID string) (<-chan *models.LedgerEvent, error) {
	sub := s.client.Subscribe(ctx, fmt.Sprintf(KeyUserEvents, userID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to ledger events: %w", err)
	}

	out := make(chan *models.LedgerEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event models.LedgerEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.log.WithError(err).Warn("dropping malformed ledger event")
					continue
				}
				select {
				case out <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
