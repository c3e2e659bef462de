package services

import (
	"context"
	"fmt"
	"time"

	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/storage"
	"github.com/JAGANADITHYA/walk1/internal/util"
)

type Dashboard struct {
	User            *models.User   `json:"user"`
	TodaySteps      int64          `json:"todaySteps"`
	TodayDistance   models.Numeric `json:"todayDistance"`
	TodayEarnings   models.Numeric `json:"todayEarnings"`
	MonthlyEarnings models.Numeric `json:"monthlyEarnings"`
}

// DashboardService computes the user's day and month rollups on every call.
type DashboardService struct {
	store storage.Store
	now   func() time.Time
}

func NewDashboardService(store storage.Store) *DashboardService {
	return &DashboardService{store: store, now: util.Now}
}

func (d *DashboardService) SetClock(now func() time.Time) {
	d.now = now
}

func (d *DashboardService) Get(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}

	now := d.now()
	dayStart, dayEnd := util.DayRange(now)
	today, err := d.store.SumCompletedWalks(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("sum today's walks: %w", err)
	}

	monthStart, monthEnd := util.MonthRange(now)
	monthly, err := d.store.SumTransactions(ctx, userID, models.TransactionTypeEarning, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("sum monthly earnings: %w", err)
	}

	return &Dashboard{
		User:            user,
		TodaySteps:      today.Steps,
		TodayDistance:   today.Distance,
		TodayEarnings:   today.Earnings,
		MonthlyEarnings: monthly,
	}, nil
}
