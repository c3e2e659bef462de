package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/metrics"
	"github.com/JAGANADITHYA/walk1/internal/models"
	"github.com/JAGANADITHYA/walk1/internal/storage"
	"github.com/JAGANADITHYA/walk1/internal/util"
)

const DefaultTransactionLimit = 20

type AccountingRules struct {
	TicketTTL time.Duration
}

func AccountingRulesFromConfig(r config.Rules) AccountingRules {
	return AccountingRules{TicketTTL: r.MetroTicketTTL}
}

// Accounting debits the balance for metro tickets and reward redemptions.
// Prices always come from the Catalog; submitted prices are only checked.
type Accounting struct {
	store       storage.Store
	catalog     *Catalog
	broadcaster Broadcaster
	rules       AccountingRules
	log         *logrus.Entry
	now         func() time.Time
}

func NewAccounting(store storage.Store, catalog *Catalog, broadcaster Broadcaster, rules AccountingRules, log *logrus.Entry) *Accounting {
	return &Accounting{
		store:       store,
		catalog:     catalog,
		broadcaster: broadcaster,
		rules:       rules,
		log:         log.WithField("component", "accounting"),
		now:         util.Now,
	}
}

func (a *Accounting) SetClock(now func() time.Time) {
	a.now = now
}

func (a *Accounting) Catalog() *Catalog {
	return a.catalog
}

func (a *Accounting) PurchaseMetroTicket(ctx context.Context, userID string, req *models.MetroPurchaseRequest) (*models.MetroTicket, error) {
	if err := req.Validate(); err != nil {
		a.rejected("metro", "invalid_request")
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	quote, err := a.catalog.Quote(req.FromStation, req.ToStation, req.TicketType)
	if err != nil {
		a.rejected("metro", "invalid_request")
		return nil, err
	}
	total := quote.TotalAmount
	coins := *req.CoinsUsed

	if req.TotalAmount != nil && !req.TotalAmount.Equal(total) {
		a.rejected("metro", "price_mismatch")
		return nil, validationErr("totalAmount %s does not match fare %s", req.TotalAmount, total)
	}
	if !coins.Equal(models.NewNumeric(coins.Decimal)) {
		a.rejected("metro", "invalid_request")
		return nil, validationErr("coinsUsed must have at most two decimal places")
	}
	if coins.GreaterThan(total) {
		a.rejected("metro", "coins_exceed_fare")
		return nil, validationErr("coinsUsed %s exceeds fare %s", coins, total)
	}
	if coins.GreaterThan(quote.MaxCoinsUsed) {
		a.rejected("metro", "coins_exceed_fare")
		return nil, validationErr("coinsUsed %s exceeds the coin limit %s for this fare", coins, quote.MaxCoinsUsed)
	}

	var (
		ticket *models.MetroTicket
		user   *models.User
		entry  *models.Transaction
	)

	err = a.store.WithTx(ctx, func(tx storage.Store) error {
		var err error
		user, err = tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user")
		}
		if user.Balance.LessThan(coins) {
			return fmt.Errorf("%w: balance %s, need %s", ErrInsufficientBalance, user.Balance, coins)
		}

		now := a.now()
		expires := now.Add(a.rules.TicketTTL)
		ticket = &models.MetroTicket{
			ID:          models.GenerateID(),
			UserID:      userID,
			FromStation: req.FromStation,
			ToStation:   req.ToStation,
			TicketType:  req.TicketType,
			TotalAmount: total,
			CoinsUsed:   coins,
			CashAmount:  total.Sub(coins),
			Status:      models.TicketStatusActive,
			QRCode:      models.GenerateCode(models.CodePrefixMetro, now),
			ExpiresAt:   &expires,
			CreatedAt:   now,
		}
		if err := tx.CreateMetroTicket(ctx, ticket); err != nil {
			return fmt.Errorf("create metro ticket: %w", err)
		}

		user.Balance = user.Balance.Sub(coins)
		user.UpdatedAt = now
		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}

		meta, err := metadataJSON(map[string]interface{}{
			"ticketId":   ticket.ID,
			"ticketType": ticket.TicketType,
		})
		if err != nil {
			return err
		}
		entry = &models.Transaction{
			ID:           models.GenerateID(),
			UserID:       userID,
			Type:         models.TransactionTypeMetroPayment,
			Amount:       coins.Neg(),
			BalanceAfter: user.Balance,
			Description:  fmt.Sprintf("Metro ticket: %s → %s", ticket.FromStation, ticket.ToStation),
			Metadata:     meta,
			CreatedAt:    now,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			a.rejected("metro", "insufficient_balance")
		}
		return nil, err
	}

	metrics.CoinsDebited.WithLabelValues(string(models.TransactionTypeMetroPayment)).Add(coins.InexactFloat64())
	a.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"ticket_id":  ticket.ID,
		"total":      total.String(),
		"coins_used": coins.String(),
	}).Info("metro ticket purchased")

	publishLedger(ctx, a.broadcaster, a.log, user, entry)
	return ticket, nil
}

// RedeemReward resolves an offer from the catalog and spends its coin price.
func (a *Accounting) RedeemReward(ctx context.Context, userID string, req *models.RedeemRewardRequest) (*models.RewardRedemption, error) {
	if err := req.Validate(); err != nil {
		a.rejected("reward", "invalid_request")
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	offer, err := a.resolveOffer(req)
	if err != nil {
		a.rejected("reward", "invalid_request")
		return nil, err
	}
	if err := checkSubmittedPrices(req, offer); err != nil {
		a.rejected("reward", "price_mismatch")
		return nil, err
	}

	meta, err := redemptionMetadata(req.Metadata, offer)
	if err != nil {
		a.rejected("reward", "invalid_request")
		return nil, err
	}

	coins := offer.CoinsRequired
	var (
		redemption *models.RewardRedemption
		user       *models.User
		entry      *models.Transaction
	)

	err = a.store.WithTx(ctx, func(tx storage.Store) error {
		var err error
		user, err = tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return notFoundOr(err, "user")
		}
		if user.Balance.LessThan(coins) {
			return fmt.Errorf("%w: balance %s, need %s", ErrInsufficientBalance, user.Balance, coins)
		}

		now := a.now()
		redemption = &models.RewardRedemption{
			ID:             models.GenerateID(),
			UserID:         userID,
			RewardType:     offer.Type,
			Provider:       offer.Provider,
			OriginalPrice:  offer.OriginalPrice,
			DiscountAmount: offer.DiscountAmount(),
			FinalPrice:     offer.FinalPrice(),
			CoinsUsed:      coins,
			Status:         models.RedemptionStatusPending,
			RedemptionCode: models.GenerateCode(models.CodePrefixReward, now),
			Metadata:       meta,
			CreatedAt:      now,
		}
		if err := tx.CreateRewardRedemption(ctx, redemption); err != nil {
			return fmt.Errorf("create reward redemption: %w", err)
		}

		user.Balance = user.Balance.Sub(coins)
		user.UpdatedAt = now
		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}

		txMeta, err := metadataJSON(map[string]interface{}{
			"redemptionId": redemption.ID,
			"provider":     redemption.Provider,
			"rewardType":   redemption.RewardType,
		})
		if err != nil {
			return err
		}
		entry = &models.Transaction{
			ID:           models.GenerateID(),
			UserID:       userID,
			Type:         models.TransactionTypeRewardRedemption,
			Amount:       coins.Neg(),
			BalanceAfter: user.Balance,
			Description:  fmt.Sprintf("Reward: %s %s", offer.Title, offer.Duration),
			Metadata:     txMeta,
			CreatedAt:    now,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			a.rejected("reward", "insufficient_balance")
		}
		return nil, err
	}

	metrics.CoinsDebited.WithLabelValues(string(models.TransactionTypeRewardRedemption)).Add(coins.InexactFloat64())
	a.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"redemption_id": redemption.ID,
		"offer":         offer.ID,
		"coins_used":    coins.String(),
	}).Info("reward redeemed")

	publishLedger(ctx, a.broadcaster, a.log, user, entry)
	return redemption, nil
}

func (a *Accounting) ListTickets(ctx context.Context, userID string) ([]models.MetroTicket, error) {
	tickets, err := a.store.ListMetroTickets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list metro tickets: %w", err)
	}
	if tickets == nil {
		tickets = []models.MetroTicket{}
	}
	return tickets, nil
}

func (a *Accounting) ListRedemptions(ctx context.Context, userID string) ([]models.RewardRedemption, error) {
	redemptions, err := a.store.ListRewardRedemptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reward redemptions: %w", err)
	}
	if redemptions == nil {
		redemptions = []models.RewardRedemption{}
	}
	return redemptions, nil
}

func (a *Accounting) ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	txs, err := a.store.ListTransactions(ctx, userID, models.ClampLimit(limit, DefaultTransactionLimit, MaxListLimit))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (a *Accounting) resolveOffer(req *models.RedeemRewardRequest) (models.RewardOffer, error) {
	if req.RewardID != "" {
		offer, ok := a.catalog.FindOffer(req.RewardID)
		if !ok {
			return models.RewardOffer{}, fmt.Errorf("%w: reward offer %q", ErrNotFound, req.RewardID)
		}
		if req.RewardType != "" && req.RewardType != offer.Type {
			return models.RewardOffer{}, validationErr("rewardType %q does not match offer %q", req.RewardType, offer.ID)
		}
		if req.Provider != "" && req.Provider != offer.Provider {
			return models.RewardOffer{}, validationErr("provider %q does not match offer %q", req.Provider, offer.ID)
		}
		return offer, nil
	}

	candidates := a.catalog.MatchOffers(req.RewardType, req.Provider)
	switch len(candidates) {
	case 0:
		return models.RewardOffer{}, fmt.Errorf("%w: reward offer %s/%s", ErrNotFound, req.RewardType, req.Provider)
	case 1:
		return candidates[0], nil
	}

	// A provider with several offers is disambiguated by the submitted prices.
	var matched []models.RewardOffer
	for _, o := range candidates {
		if checkSubmittedPrices(req, o) == nil {
			matched = append(matched, o)
		}
	}
	switch len(matched) {
	case 0:
		return models.RewardOffer{}, validationErr("submitted prices match no %s offer from %s", req.RewardType, req.Provider)
	case 1:
		return matched[0], nil
	default:
		return models.RewardOffer{}, validationErr("%d %s offers from %s match, rewardId is required", len(matched), req.RewardType, req.Provider)
	}
}

func checkSubmittedPrices(req *models.RedeemRewardRequest, offer models.RewardOffer) error {
	checks := []struct {
		name      string
		submitted *models.Numeric
		want      models.Numeric
	}{
		{"originalPrice", req.OriginalPrice, offer.OriginalPrice},
		{"discountAmount", req.DiscountAmount, offer.DiscountAmount()},
		{"finalPrice", req.FinalPrice, offer.FinalPrice()},
		{"coinsUsed", req.CoinsUsed, offer.CoinsRequired},
	}
	for _, c := range checks {
		if c.submitted != nil && !c.submitted.Equal(c.want) {
			return validationErr("%s %s does not match catalog price %s", c.name, c.submitted, c.want)
		}
	}
	return nil
}

// redemptionMetadata merges client metadata with the catalog description.
// Catalog keys win.
func redemptionMetadata(raw json.RawMessage, offer models.RewardOffer) (datatypes.JSON, error) {
	meta := map[string]interface{}{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, validationErr("metadata must be a JSON object")
		}
	}
	meta["offerId"] = offer.ID
	meta["title"] = offer.Title
	meta["duration"] = offer.Duration
	meta["description"] = offer.Description
	return metadataJSON(meta)
}

func metadataJSON(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return datatypes.JSON(data), nil
}

func (a *Accounting) rejected(kind, reason string) {
	metrics.PurchasesRejected.WithLabelValues(kind, reason).Inc()
}
