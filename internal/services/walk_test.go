package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/services"
	"github.com/JAGANADITHYA/walk1/internal/storage"
)

func newTracker(store storage.Store, rules services.WalkRules) (*services.WalkTracker, *clock, *recordingBroadcaster) {
	clk := newClock(morning())
	events := &recordingBroadcaster{}
	tracker := services.NewWalkTracker(store, events, rules, testLogger())
	tracker.SetClock(clk.Now)
	return tracker, clk, events
}

func completeReq(steps int64, distance string) *models.CompleteWalkRequest {
	return &models.CompleteWalkRequest{Steps: &steps, Distance: models.MustNumeric(distance)}
}

func TestCompleteWalkCreditsEarnings(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedUser(t, store, "u1", "0")
	tracker, clk, events := newTracker(store, services.WalkRules{StreakPolicy: config.StreakPolicyIncrement})

	session, err := tracker.StartSession(ctx, "u1", &models.StartWalkRequest{})
	require.NoError(t, err)
	assert.False(t, session.Completed)
	assert.Equal(t, morning(), session.StartTime)

	clk.Advance(30 * time.Minute)
	done, err := tracker.CompleteSession(ctx, "u1", session.ID, completeReq(1000, "0.80"))
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.Duration)
	assert.Equal(t, 30, *done.Duration)
	assert.Equal(t, "15.00", done.Earnings.String())

	user := mustUser(t, store, "u1")
	assert.Equal(t, "15.00", user.Balance.String())
	assert.Equal(t, "15.00", user.TotalEarnings.String())
	assert.Equal(t, int64(1000), user.TotalSteps)
	assert.Equal(t, "0.80", user.TotalDistance.String())
	assert.Equal(t, 1, user.DailyStreak)
	require.NotNil(t, user.LastWalkDate)

	txs, err := store.ListTransactions(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeEarning, txs[0].Type)
	assert.Equal(t, "15.00", txs[0].Amount.String())
	assert.Equal(t, "15.00", txs[0].BalanceAfter.String())
	require.NotNil(t, txs[0].RelatedWalkID)
	assert.Equal(t, session.ID, *txs[0].RelatedWalkID)

	published := events.Events()
	require.Len(t, published, 1)
	assert.Equal(t, models.EventBalanceUpdate, published[0].Type)
	assert.Equal(t, "15.00", published[0].Balance.String())
}

func TestCompleteShortWalkHasNoDurationBonus(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedUser(t, store, "u1", "1.00")
	tracker, clk, _ := newTracker(store, services.WalkRules{})

	session, err := tracker.StartSession(ctx, "u1", nil)
	require.NoError(t, err)

	clk.Advance(29*time.Minute + 59*time.Second)
	done, err := tracker.CompleteSession(ctx, "u1", session.ID, completeReq(250, "0.20"))
	require.NoError(t, err)
	assert.Equal(t, 29, *done.Duration)
	assert.Equal(t, "2.50", done.Earnings.String())
	assert.Equal(t, "3.50", mustUser(t, store, "u1").Balance.String())
}

func TestCompleteWalkErrors(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedUser(t, store, "u1", "0")
	seedUser(t, store, "u2", "0")
	tracker, _, _ := newTracker(store, services.WalkRules{})

	session, err := tracker.StartSession(ctx, "u1", nil)
	require.NoError(t, err)

	_, err = tracker.CompleteSession(ctx, "u2", session.ID, completeReq(10, "0"))
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = tracker.CompleteSession(ctx, "u1", "missing", completeReq(10, "0"))
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = tracker.CompleteSession(ctx, "u1", session.ID, completeReq(-1, "0"))
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = tracker.CompleteSession(ctx, "u1", session.ID, completeReq(10, "-0.5"))
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = tracker.StartSession(ctx, "nobody", nil)
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.Equal(t, "0.00", mustUser(t, store, "u1").Balance.String())
}

func TestRecompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("credits again by default", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seedUser(t, store, "u1", "0")
		tracker, _, _ := newTracker(store, services.WalkRules{})

		session, err := tracker.StartSession(ctx, "u1", nil)
		require.NoError(t, err)
		for i := 0; i < 2; i++ {
			_, err = tracker.CompleteSession(ctx, "u1", session.ID, completeReq(100, "0.10"))
			require.NoError(t, err)
		}
		assert.Equal(t, "2.00", mustUser(t, store, "u1").Balance.String())
	})

	t.Run("rejected when configured", func(t *testing.T) {
		store := storage.NewMemoryStore()
		seedUser(t, store, "u1", "0")
		tracker, _, _ := newTracker(store, services.WalkRules{RejectRecompletion: true})

		session, err := tracker.StartSession(ctx, "u1", nil)
		require.NoError(t, err)
		_, err = tracker.CompleteSession(ctx, "u1", session.ID, completeReq(100, "0.10"))
		require.NoError(t, err)

		_, err = tracker.CompleteSession(ctx, "u1", session.ID, completeReq(100, "0.10"))
		assert.ErrorIs(t, err, services.ErrConflict)
		assert.Equal(t, "1.00", mustUser(t, store, "u1").Balance.String())

		txs, err := store.ListTransactions(ctx, "u1", 10)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	})
}

// sessionLockSpy counts how walk sessions are read inside transactions.
type sessionLockSpy struct {
	storage.Store
	mu            sync.Mutex
	lockedReads   int
	unlockedReads int
}

func (s *sessionLockSpy) WithTx(ctx context.Context, fn func(tx storage.Store) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Store) error {
		return fn(&sessionLockSpyTx{Store: tx, spy: s})
	})
}

type sessionLockSpyTx struct {
	storage.Store
	spy *sessionLockSpy
}

func (tx *sessionLockSpyTx) GetWalkSession(ctx context.Context, id string) (*models.WalkSession, error) {
	tx.spy.mu.Lock()
	tx.spy.unlockedReads++
	tx.spy.mu.Unlock()
	return tx.Store.GetWalkSession(ctx, id)
}

func (tx *sessionLockSpyTx) GetWalkSessionForUpdate(ctx context.Context, id string) (*models.WalkSession, error) {
	tx.spy.mu.Lock()
	tx.spy.lockedReads++
	tx.spy.mu.Unlock()
	return tx.Store.GetWalkSessionForUpdate(ctx, id)
}

func TestCompleteWalkLocksSessionRow(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	seedUser(t, mem, "u1", "0")
	spy := &sessionLockSpy{Store: mem}
	tracker, _, _ := newTracker(spy, services.WalkRules{RejectRecompletion: true})

	session, err := tracker.StartSession(ctx, "u1", nil)
	require.NoError(t, err)
	_, err = tracker.CompleteSession(ctx, "u1", session.ID, completeReq(100, "0.10"))
	require.NoError(t, err)

	assert.Equal(t, 1, spy.lockedReads)
	assert.Equal(t, 0, spy.unlockedReads)
}

func TestConcurrentRecompletionCreditsOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedUser(t, store, "u1", "0")
	tracker, _, _ := newTracker(store, services.WalkRules{RejectRecompletion: true})

	session, err := tracker.StartSession(ctx, "u1", nil)
	require.NoError(t, err)

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.CompleteSession(ctx, "u1", session.ID, completeReq(100, "0.10"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, services.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, "1.00", mustUser(t, store, "u1").Balance.String())

	txs, err := store.ListTransactions(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestNextStreak(t *testing.T) {
	today := morning()
	sameDay := today.Add(-2 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)
	lastWeek := today.AddDate(0, 0, -7)

	tests := []struct {
		name    string
		policy  string
		current int
		last    *time.Time
		want    int
	}{
		{"increment first walk", config.StreakPolicyIncrement, 0, nil, 1},
		{"increment ignores gaps", config.StreakPolicyIncrement, 4, &lastWeek, 5},
		{"increment same day", config.StreakPolicyIncrement, 4, &sameDay, 5},
		{"consecutive first walk", config.StreakPolicyConsecutive, 0, nil, 1},
		{"consecutive same day", config.StreakPolicyConsecutive, 3, &sameDay, 3},
		{"consecutive next day", config.StreakPolicyConsecutive, 3, &yesterday, 4},
		{"consecutive missed day", config.StreakPolicyConsecutive, 3, &lastWeek, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.NextStreak(tt.policy, tt.current, tt.last, today))
		})
	}
}

func TestCalculateEarnings(t *testing.T) {
	assert.Equal(t, "15.00", services.CalculateEarnings(1000, 30).String())
	assert.Equal(t, "10.00", services.CalculateEarnings(1000, 29).String())
	assert.Equal(t, "5.00", services.CalculateEarnings(0, 45).String())
	assert.Equal(t, "0.07", services.CalculateEarnings(7, 0).String())
}

func TestClaimStreakBonus(t *testing.T) {
	ctx := context.Background()

	walkToday := func(t *testing.T, rules services.WalkRules) (*storage.MemoryStore, *services.WalkTracker, *clock) {
		store := storage.NewMemoryStore()
		seedUser(t, store, "u1", "0")
		tracker, clk, _ := newTracker(store, rules)

		res, err := tracker.ClaimStreakBonus(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, services.BonusUnavailableMessage, res.Message)
		assert.Nil(t, res.Amount)

		session, err := tracker.StartSession(ctx, "u1", nil)
		require.NoError(t, err)
		clk.Advance(10 * time.Minute)
		_, err = tracker.CompleteSession(ctx, "u1", session.ID, completeReq(100, "0.10"))
		require.NoError(t, err)
		return store, tracker, clk
	}

	t.Run("repeat claims re-award by default", func(t *testing.T) {
		store, tracker, _ := walkToday(t, services.WalkRules{})

		for i := 0; i < 2; i++ {
			res, err := tracker.ClaimStreakBonus(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, services.BonusAwardedMessage, res.Message)
			require.NotNil(t, res.Amount)
			assert.Equal(t, "5.00", res.Amount.String())
		}
		assert.Equal(t, "11.00", mustUser(t, store, "u1").Balance.String())
	})

	t.Run("once per day when configured", func(t *testing.T) {
		store, tracker, _ := walkToday(t, services.WalkRules{BonusOncePerDay: true})

		res, err := tracker.ClaimStreakBonus(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, services.BonusAwardedMessage, res.Message)

		res, err = tracker.ClaimStreakBonus(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, services.BonusUnavailableMessage, res.Message)
		assert.Equal(t, "6.00", mustUser(t, store, "u1").Balance.String())

		txs, err := store.ListTransactions(ctx, "u1", 10)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, models.TransactionTypeBonus, txs[0].Type)
		assert.Equal(t, services.StreakBonusReason, txs[0].Description)
	})

	t.Run("no bonus the next day", func(t *testing.T) {
		store, tracker, clk := walkToday(t, services.WalkRules{})

		clk.Advance(24 * time.Hour)
		res, err := tracker.ClaimStreakBonus(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, services.BonusUnavailableMessage, res.Message)
		assert.Equal(t, "1.00", mustUser(t, store, "u1").Balance.String())
	})

	t.Run("unknown user", func(t *testing.T) {
		tracker, _, _ := newTracker(storage.NewMemoryStore(), services.WalkRules{})
		_, err := tracker.ClaimStreakBonus(ctx, "ghost")
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	seedUser(t, store, "u1", "0")
	tracker, clk, _ := newTracker(store, services.WalkRules{})

	var last string
	for i := 0; i < 12; i++ {
		s, err := tracker.StartSession(ctx, "u1", nil)
		require.NoError(t, err)
		last = s.ID
		clk.Advance(time.Minute)
	}

	sessions, err := tracker.ListSessions(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, sessions, services.DefaultWalkLimit)
	assert.Equal(t, last, sessions[0].ID)

	sessions, err = tracker.ListSessions(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	sessions, err = tracker.ListSessions(ctx, "u2", 0)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}
