package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/metrics"
	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/storage"
	"github.com/JAGANADITHYA/walk1/internal/util"
)

const (
	LongWalkMinutes   = 30
	DefaultWalkLimit  = 10
	MaxListLimit      = 100
	StreakBonusReason = "Daily Streak Bonus"

	BonusAwardedMessage     = "Daily streak bonus awarded"
	BonusUnavailableMessage = "No bonus available today"
)

var (
	earningPerStep    = decimal.New(1, -2)
	longWalkBonus     = models.NumericFromInt(5)
	StreakBonusAmount = models.NumericFromInt(5)
)

type WalkRules struct {
	StreakPolicy       string
	BonusOncePerDay    bool
	RejectRecompletion bool
}

func WalkRulesFromConfig(r config.Rules) WalkRules {
	return WalkRules{
		StreakPolicy:       r.StreakPolicy,
		BonusOncePerDay:    r.StreakBonusOncePerDay,
		RejectRecompletion: r.RejectWalkRecompletion,
	}
}

type BonusResult struct {
	Message string          `json:"message"`
	Amount  *models.Numeric `json:"amount,omitempty"`
	Balance *models.Numeric `json:"balance,omitempty"`
}

// WalkTracker owns the walk session lifecycle and the streak bonus.
type WalkTracker struct {
	store       storage.Store
	broadcaster Broadcaster
	rules       WalkRules
	log         *logrus.Entry
	now         func() time.Time
}

func NewWalkTracker(store storage.Store, broadcaster Broadcaster, rules WalkRules, log *logrus.Entry) *WalkTracker {
	return &WalkTracker{
		store:       store,
		broadcaster: broadcaster,
		rules:       rules,
		log:         log.WithField("component", "walk_tracker"),
		now:         util.Now,
	}
}

func (w *WalkTracker) SetClock(now func() time.Time) {
	w.now = now
}

// CalculateEarnings pays 0.01 per step plus a flat 5 for walks of 30 minutes or more.
func CalculateEarnings(steps int64, minutes int) models.Numeric {
	earnings := models.NewNumeric(decimal.NewFromInt(steps).Mul(earningPerStep))
	if minutes >= LongWalkMinutes {
		earnings = earnings.Add(longWalkBonus)
	}
	return earnings
}

// NextStreak applies the streak policy to a walk completed at the given time.
func NextStreak(policy string, current int, lastWalk *time.Time, at time.Time) int {
	if policy != config.StreakPolicyConsecutive {
		return current + 1
	}
	if lastWalk == nil {
		return 1
	}
	switch util.DaysBetween(*lastWalk, at) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

func (w *WalkTracker) StartSession(ctx context.Context, userID string, req *models.StartWalkRequest) (*models.WalkSession, error) {
	if _, err := w.store.GetUser(ctx, userID); err != nil {
		return nil, notFoundOr(err, "user")
	}

	now := w.now()
	session := &models.WalkSession{
		ID:        models.GenerateID(),
		UserID:    userID,
		StartTime: now,
		CreatedAt: now,
	}
	if req != nil {
		session.StartLocation = req.StartLocation
	}

	if err := w.store.CreateWalkSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create walk session: %w", err)
	}

	w.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": session.ID,
	}).Info("walk started")

	return session, nil
}

// CompleteSession finalizes a walk, credits its earnings and records the
// ledger entry in one transaction.
func (w *WalkTracker) CompleteSession(ctx context.Context, userID, sessionID string, req *models.CompleteWalkRequest) (*models.WalkSession, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var (
		session *models.WalkSession
		user    *models.User
		entry   *models.Transaction
	)

	err := w.store.WithTx(ctx, func(tx storage.Store) error {
		var err error
		session, err = tx.GetWalkSessionForUpdate(ctx, sessionID)
		if err != nil {
			return notFoundOr(err, "walk session")
		}
		if session.UserID != userID {
			return fmt.Errorf("%w: walk session", ErrNotFound)
		}
		if session.Completed && w.rules.RejectRecompletion {
			return fmt.Errorf("%w: walk session already completed", ErrConflict)
		}

		user, err = tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user")
		}

		end := w.now()
		minutes := int(end.Sub(session.StartTime) / time.Minute)
		if minutes < 0 {
			minutes = 0
		}
		steps := *req.Steps
		earnings := CalculateEarnings(steps, minutes)

		session.EndTime = &end
		session.Duration = &minutes
		session.Steps = steps
		session.Distance = req.Distance
		session.Earnings = earnings
		session.Completed = true
		session.EndLocation = req.EndLocation
		if err := tx.SaveWalkSession(ctx, session); err != nil {
			return fmt.Errorf("save walk session: %w", err)
		}

		user.Balance = user.Balance.Add(earnings)
		user.TotalEarnings = user.TotalEarnings.Add(earnings)
		user.TotalSteps += steps
		user.TotalDistance = user.TotalDistance.Add(req.Distance)
		user.DailyStreak = NextStreak(w.rules.StreakPolicy, user.DailyStreak, user.LastWalkDate, end)
		user.LastWalkDate = &end
		user.UpdatedAt = end

		entry = &models.Transaction{
			ID:            models.GenerateID(),
			UserID:        userID,
			Type:          models.TransactionTypeEarning,
			Amount:        earnings,
			BalanceAfter:  user.Balance,
			Description:   fmt.Sprintf("Walk reward - %d steps in %d min", steps, minutes),
			RelatedWalkID: &session.ID,
			CreatedAt:     end,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.WalksCompleted.Inc()
	metrics.CoinsCredited.WithLabelValues(string(models.TransactionTypeEarning)).Add(entry.Amount.InexactFloat64())
	w.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": sessionID,
		"steps":      session.Steps,
		"earnings":   session.Earnings.String(),
	}).Info("walk completed")

	publishLedger(ctx, w.broadcaster, w.log, user, entry)
	return session, nil
}

// ClaimStreakBonus credits the daily bonus when the user walked today.
func (w *WalkTracker) ClaimStreakBonus(ctx context.Context, userID string) (*BonusResult, error) {
	var (
		user    *models.User
		entry   *models.Transaction
		awarded bool
	)

	err := w.store.WithTx(ctx, func(tx storage.Store) error {
		var err error
		user, err = tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user")
		}

		now := w.now()
		if user.LastWalkDate == nil || !util.SameDay(*user.LastWalkDate, now) {
			return nil
		}

		if w.rules.BonusOncePerDay {
			from, to := util.DayRange(now)
			n, err := tx.CountTransactions(ctx, userID, models.TransactionTypeBonus, from, to)
			if err != nil {
				return fmt.Errorf("count bonuses: %w", err)
			}
			if n > 0 {
				return nil
			}
		}

		user.Balance = user.Balance.Add(StreakBonusAmount)
		user.UpdatedAt = now
		entry = &models.Transaction{
			ID:           models.GenerateID(),
			UserID:       userID,
			Type:         models.TransactionTypeBonus,
			Amount:       StreakBonusAmount,
			BalanceAfter: user.Balance,
			Description:  StreakBonusReason,
			CreatedAt:    now,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		awarded = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !awarded {
		return &BonusResult{Message: BonusUnavailableMessage}, nil
	}

	metrics.CoinsCredited.WithLabelValues(string(models.TransactionTypeBonus)).Add(StreakBonusAmount.InexactFloat64())
	w.log.WithField("user_id", userID).Info("streak bonus awarded")
	publishLedger(ctx, w.broadcaster, w.log, user, entry)

	amount := StreakBonusAmount
	balance := user.Balance
	return &BonusResult{Message: BonusAwardedMessage, Amount: &amount, Balance: &balance}, nil
}

func (w *WalkTracker) ListSessions(ctx context.Context, userID string, limit int) ([]models.WalkSession, error) {
	sessions, err := w.store.ListWalkSessions(ctx, userID, models.ClampLimit(limit, DefaultWalkLimit, MaxListLimit))
	if err != nil {
		return nil, fmt.Errorf("list walk sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.WalkSession{}
	}
	return sessions, nil
}
