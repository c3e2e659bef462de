package services_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/storage"
	"github.com/JAGANADITHYA/walk1/internal/util"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// clock is a settable time source shared by the services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock {
	return &clock{now: t}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*models.LedgerEvent
}

func (r *recordingBroadcaster) PublishLedgerEvent(ctx context.Context, event *models.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingBroadcaster) Events() []*models.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.LedgerEvent(nil), r.events...)
}

func morning() time.Time {
	return time.Date(2026, time.March, 10, 8, 0, 0, 0, util.Location())
}

func seedUser(t *testing.T, store *storage.MemoryStore, id, balance string) {
	t.Helper()
	store.PutUser(models.User{ID: id, Balance: models.MustNumeric(balance)})
}

func mustUser(t *testing.T, store storage.Store, id string) *models.User {
	t.Helper()
	u, err := store.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load user %s: %v", id, err)
	}
	return u
}
