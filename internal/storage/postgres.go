package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/models"
)

type PostgresStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

// OpenPostgres connects to Postgres, retrying transient failures at startup.
func OpenPostgres(ctx context.Context, cfg config.Database, log *logrus.Entry) (*gorm.DB, error) {
	gormLogger := logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	var db *gorm.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
				Logger:                 gormLogger,
				SkipDefaultTransaction: true,
			})
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(cfg.ConnectDelay),
		retry.MaxDelay(cfg.ConnectMaxDelay),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithField("attempt", n+1).Warn("database not ready, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func NewPostgresStore(db *gorm.DB, log *logrus.Entry) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStore{db: tx, log: s.log})
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserForUpdate(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *PostgresStore) UpsertUserIdentity(ctx context.Context, user *models.User) (*models.User, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUser(ctx, user.ID)
}

func (s *PostgresStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *PostgresStore) CreateWalkSession(ctx context.Context, session *models.WalkSession) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
}

func (s *PostgresStore) GetWalkSession(ctx context.Context, id string) (*models.WalkSession, error) {
	var ws models.WalkSession
	if err := s.db.WithContext(ctx).First(&ws, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

func (s *PostgresStore) GetWalkSessionForUpdate(ctx context.Context, id string) (*models.WalkSession, error) {
	var ws models.WalkSession
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ws, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

func (s *PostgresStore) SaveWalkSession(ctx context.Context, session *models.WalkSession) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(session).Error
}

func (s *PostgresStore) ListWalkSessions(ctx context.Context, userID string, limit int) ([]models.WalkSession, error) {
	var out []models.WalkSession
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *PostgresStore) SumCompletedWalks(ctx context.Context, userID string, from, to time.Time) (WalkTotals, error) {
	var row struct {
		Steps    int64
		Distance models.Numeric
		Earnings models.Numeric
	}
	err := s.db.WithContext(ctx).
		Model(&models.WalkSession{}).
		Select("COALESCE(SUM(steps), 0) AS steps, COALESCE(SUM(distance), 0) AS distance, COALESCE(SUM(earnings), 0) AS earnings").
		Where("user_id = ? AND completed = ? AND created_at >= ? AND created_at < ?", userID, true, from, to).
		Scan(&row).Error
	if err != nil {
		return WalkTotals{}, err
	}
	return WalkTotals{Steps: row.Steps, Distance: row.Distance, Earnings: row.Earnings}, nil
}

func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(tx).Error
}

func (s *PostgresStore) ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *PostgresStore) SumTransactions(ctx context.Context, userID string, txType models.TransactionType, from, to time.Time) (models.Numeric, error) {
	var row struct {
		Total models.Numeric
	}
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ? AND created_at >= ? AND created_at < ?", userID, txType, from, to).
		Scan(&row).Error
	return row.Total, err
}

func (s *PostgresStore) CountTransactions(ctx context.Context, userID string, txType models.TransactionType, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND created_at >= ? AND created_at < ?", userID, txType, from, to).
		Count(&n).Error
	return n, err
}

func (s *PostgresStore) CreateMetroTicket(ctx context.Context, ticket *models.MetroTicket) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(ticket).Error
}

func (s *PostgresStore) ListMetroTickets(ctx context.Context, userID string) ([]models.MetroTicket, error) {
	var out []models.MetroTicket
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *PostgresStore) CreateRewardRedemption(ctx context.Context, redemption *models.RewardRedemption) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(redemption).Error
}

func (s *PostgresStore) ListRewardRedemptions(ctx context.Context, userID string) ([]models.RewardRedemption, error) {
	var out []models.RewardRedemption
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *PostgresStore) ActiveBrandConfig(ctx context.Context) (*models.BrandConfig, error) {
	var bc models.BrandConfig
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("updated_at DESC").First(&bc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &bc, nil
}

func (s *PostgresStore) ListAdPlacements(ctx context.Context, brandConfigID string) ([]models.AdPlacement, error) {
	var out []models.AdPlacement
	err := s.db.WithContext(ctx).
		Where("brand_config_id = ? AND is_active = ?", brandConfigID, true).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
