// Package storage persists users, walk sessions, the transaction ledger,
// metro tickets, reward redemptions and branding records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/JAGANADITHYA/walk1/internal/models"
)

var ErrNotFound = errors.New("record not found")

// WalkTotals sums completed walk sessions in a time window.
type WalkTotals struct {
	Steps    int64
	Distance models.Numeric
	Earnings models.Numeric
}

// Store is the ledger store. WithTx runs fn against a store bound to a single
// database transaction; fn's error rolls everything back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUserForUpdate reads the user row and holds a write lock on it until
	// the surrounding transaction ends.
	GetUserForUpdate(ctx context.Context, id string) (*models.User, error)
	UpsertUserIdentity(ctx context.Context, user *models.User) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error

	CreateWalkSession(ctx context.Context, session *models.WalkSession) error
	GetWalkSession(ctx context.Context, id string) (*models.WalkSession, error)
	// GetWalkSessionForUpdate is GetWalkSession holding a write lock on the
	// session row until the surrounding transaction ends.
	GetWalkSessionForUpdate(ctx context.Context, id string) (*models.WalkSession, error)
	SaveWalkSession(ctx context.Context, session *models.WalkSession) error
	ListWalkSessions(ctx context.Context, userID string, limit int) ([]models.WalkSession, error)
	SumCompletedWalks(ctx context.Context, userID string, from, to time.Time) (WalkTotals, error)

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	SumTransactions(ctx context.Context, userID string, txType models.TransactionType, from, to time.Time) (models.Numeric, error)
	CountTransactions(ctx context.Context, userID string, txType models.TransactionType, from, to time.Time) (int64, error)

	CreateMetroTicket(ctx context.Context, ticket *models.MetroTicket) error
	ListMetroTickets(ctx context.Context, userID string) ([]models.MetroTicket, error)

	CreateRewardRedemption(ctx context.Context, redemption *models.RewardRedemption) error
	ListRewardRedemptions(ctx context.Context, userID string) ([]models.RewardRedemption, error)

	ActiveBrandConfig(ctx context.Context) (*models.BrandConfig, error)
	ListAdPlacements(ctx context.Context, brandConfigID string) ([]models.AdPlacement, error)
}

// Models lists every persisted type, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.WalkSession{},
		&models.Transaction{},
		&models.MetroTicket{},
		&models.RewardRedemption{},
		&models.BrandConfig{},
		&models.AdPlacement{},
	}
}
