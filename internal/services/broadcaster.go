package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/metrics"
	"github.com/JAGANADITHYA/walk1/internal/models"
)

// Broadcaster fans committed ledger changes out to connected clients.
type Broadcaster interface {
	PublishLedgerEvent(ctx context.Context, event *models.LedgerEvent) error
}

// publishLedger is called after commit. A failed publish is logged only.
func publishLedger(ctx context.Context, b Broadcaster, log *logrus.Entry, user *models.User, tx *models.Transaction) {
	if b == nil {
		return
	}

	event := &models.LedgerEvent{
		Type:        models.EventBalanceUpdate,
		UserID:      user.ID,
		Balance:     user.Balance,
		Transaction: tx,
		At:          time.Now(),
	}
	if err := b.PublishLedgerEvent(ctx, event); err != nil {
		metrics.LedgerEventFailures.Inc()
		log.WithError(err).WithField("user_id", user.ID).Warn("failed to publish ledger event")
	}
}
