package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewPostgresStore(gdb, logrus.NewEntry(logrus.New())), mock
}

func TestPostgresWithTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.WithTx(context.Background(), func(tx Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}))

	_, err := store.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetUserForUpdateLocksRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "daily_streak", "total_steps"}).
			AddRow("u1", "50.00", 2, 1000))

	u, err := store.GetUserForUpdate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "50.00", u.Balance.String())
	assert.Equal(t, 2, u.DailyStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetWalkSessionForUpdateLocksRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "walk_sessions" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "steps", "completed"}).
			AddRow("w1", "u1", 1200, true))

	ws, err := store.GetWalkSessionForUpdate(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, "u1", ws.UserID)
	assert.True(t, ws.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSumCompletedWalks(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(steps\), 0\) AS steps.*FROM "walk_sessions"`).
		WithArgs("u1", true, from, from.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{"steps", "distance", "earnings"}).
			AddRow(int64(1500), "1.20", "20.00"))

	totals, err := store.SumCompletedWalks(context.Background(), "u1", from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), totals.Steps)
	assert.Equal(t, "1.20", totals.Distance.String())
	assert.Equal(t, "20.00", totals.Earnings.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSumTransactions(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "transactions"`).
		WithArgs("u1", models.TransactionTypeEarning, from, from.AddDate(0, 1, 0)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("42.50"))

	total, err := store.SumTransactions(context.Background(), "u1", models.TransactionTypeEarning, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "42.50", total.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	log := logrus.NewEntry(logrus.New())
	db, err := OpenPostgres(ctx, config.Database{
		DatabaseURL:     dsn,
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnectAttempts: 1,
	}, log)
	require.NoError(t, err)

	store := NewPostgresStore(db, log)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	user, err := store.UpsertUserIdentity(ctx, models.NewUserFromIdentity(models.Identity{Subject: models.GenerateID()}))
	require.NoError(t, err)
	assert.True(t, user.Balance.IsZero())

	err = store.WithTx(ctx, func(tx Store) error {
		locked, err := tx.GetUserForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		locked.Balance = locked.Balance.Add(models.NumericFromInt(5))
		if err := tx.SaveUser(ctx, locked); err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, &models.Transaction{
			ID:           models.GenerateID(),
			UserID:       user.ID,
			Type:         models.TransactionTypeBonus,
			Amount:       models.NumericFromInt(5),
			BalanceAfter: locked.Balance,
			Description:  "Daily Streak Bonus",
		})
	})
	require.NoError(t, err)

	txs, err := store.ListTransactions(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "5.00", txs[0].Amount.String())
}
