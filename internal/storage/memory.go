package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JAGANADITHYA/walk1/internal/models"
)

// MemoryStore is a process-local Store used by tests and STORAGE_DRIVER=memory.
// WithTx serializes writers and restores a snapshot when fn fails.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
	inTx bool
}

type memData struct {
	users       map[string]models.User
	walks       map[string]models.WalkSession
	walkOrder   []string
	txs         []models.Transaction
	tickets     []models.MetroTicket
	redemptions []models.RewardRedemption
	brands      []models.BrandConfig
	ads         []models.AdPlacement
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memData{
		users: make(map[string]models.User),
		walks: make(map[string]models.WalkSession),
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:       make(map[string]models.User, len(d.users)),
		walks:       make(map[string]models.WalkSession, len(d.walks)),
		walkOrder:   append([]string(nil), d.walkOrder...),
		txs:         append([]models.Transaction(nil), d.txs...),
		tickets:     append([]models.MetroTicket(nil), d.tickets...),
		redemptions: append([]models.RewardRedemption(nil), d.redemptions...),
		brands:      append([]models.BrandConfig(nil), d.brands...),
		ads:         append([]models.AdPlacement(nil), d.ads...),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.walks {
		c.walks[k] = v
	}
	return c
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemoryStore{data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// PutUser inserts or replaces a user record as-is.
func (s *MemoryStore) PutUser(u models.User) {
	defer s.lock()()
	s.data.users[u.ID] = u
}

func (s *MemoryStore) PutBrandConfig(bc models.BrandConfig, ads ...models.AdPlacement) {
	defer s.lock()()
	s.data.brands = append(s.data.brands, bc)
	s.data.ads = append(s.data.ads, ads...)
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer s.lock()()
	u, ok := s.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserForUpdate(ctx context.Context, id string) (*models.User, error) {
	return s.GetUser(ctx, id)
}

func (s *MemoryStore) UpsertUserIdentity(ctx context.Context, user *models.User) (*models.User, error) {
	defer s.lock()()
	now := time.Now()
	existing, ok := s.data.users[user.ID]
	if !ok {
		u := *user
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
		s.data.users[u.ID] = u
		return &u, nil
	}
	existing.Email = user.Email
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.ProfileImageURL = user.ProfileImageURL
	existing.UpdatedAt = now
	s.data.users[existing.ID] = existing
	return &existing, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	s.data.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) CreateWalkSession(ctx context.Context, session *models.WalkSession) error {
	defer s.lock()()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	s.data.walks[session.ID] = *session
	s.data.walkOrder = append(s.data.walkOrder, session.ID)
	return nil
}

func (s *MemoryStore) GetWalkSession(ctx context.Context, id string) (*models.WalkSession, error) {
	defer s.lock()()
	ws, ok := s.data.walks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ws, nil
}

// GetWalkSessionForUpdate needs no row lock; transactions are serialized.
func (s *MemoryStore) GetWalkSessionForUpdate(ctx context.Context, id string) (*models.WalkSession, error) {
	return s.GetWalkSession(ctx, id)
}

func (s *MemoryStore) SaveWalkSession(ctx context.Context, session *models.WalkSession) error {
	defer s.lock()()
	if _, ok := s.data.walks[session.ID]; !ok {
		s.data.walkOrder = append(s.data.walkOrder, session.ID)
	}
	s.data.walks[session.ID] = *session
	return nil
}

func (s *MemoryStore) ListWalkSessions(ctx context.Context, userID string, limit int) ([]models.WalkSession, error) {
	defer s.lock()()
	var out []models.WalkSession
	for _, id := range s.data.walkOrder {
		if ws := s.data.walks[id]; ws.UserID == userID {
			out = append(out, ws)
		}
	}
	newestFirst(out, func(i int) time.Time { return out[i].CreatedAt })
	return truncate(out, limit), nil
}

func (s *MemoryStore) SumCompletedWalks(ctx context.Context, userID string, from, to time.Time) (WalkTotals, error) {
	defer s.lock()()
	var totals WalkTotals
	for _, ws := range s.data.walks {
		if ws.UserID != userID || !ws.Completed || !within(ws.CreatedAt, from, to) {
			continue
		}
		totals.Steps += ws.Steps
		totals.Distance = totals.Distance.Add(ws.Distance)
		totals.Earnings = totals.Earnings.Add(ws.Earnings)
	}
	return totals, nil
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	defer s.lock()()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	s.data.txs = append(s.data.txs, *tx)
	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	defer s.lock()()
	var out []models.Transaction
	for _, tx := range s.data.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	newestFirst(out, func(i int) time.Time { return out[i].CreatedAt })
	return truncate(out, limit), nil
}

func (s *MemoryStore) SumTransactions(ctx context.Context, userID string, txType models.TransactionType, from, to time.Time) (models.Numeric, error) {
	defer s.lock()()
	var total models.Numeric
	for _, tx := range s.data.txs {
		if tx.UserID == userID && tx.Type == txType && within(tx.CreatedAt, from, to) {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (s *MemoryStore) CountTransactions(ctx context.Context, userID string, txType models.TransactionType, from, to time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for _, tx := range s.data.txs {
		if tx.UserID == userID && tx.Type == txType && within(tx.CreatedAt, from, to) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CreateMetroTicket(ctx context.Context, ticket *models.MetroTicket) error {
	defer s.lock()()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	s.data.tickets = append(s.data.tickets, *ticket)
	return nil
}

func (s *MemoryStore) ListMetroTickets(ctx context.Context, userID string) ([]models.MetroTicket, error) {
	defer s.lock()()
	var out []models.MetroTicket
	for _, t := range s.data.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	newestFirst(out, func(i int) time.Time { return out[i].CreatedAt })
	return out, nil
}

func (s *MemoryStore) CreateRewardRedemption(ctx context.Context, redemption *models.RewardRedemption) error {
	defer s.lock()()
	if redemption.CreatedAt.IsZero() {
		redemption.CreatedAt = time.Now()
	}
	s.data.redemptions = append(s.data.redemptions, *redemption)
	return nil
}

func (s *MemoryStore) ListRewardRedemptions(ctx context.Context, userID string) ([]models.RewardRedemption, error) {
	defer s.lock()()
	var out []models.RewardRedemption
	for _, r := range s.data.redemptions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	newestFirst(out, func(i int) time.Time { return out[i].CreatedAt })
	return out, nil
}

func (s *MemoryStore) ActiveBrandConfig(ctx context.Context) (*models.BrandConfig, error) {
	defer s.lock()()
	var found *models.BrandConfig
	for i := range s.data.brands {
		bc := s.data.brands[i]
		if bc.IsActive && (found == nil || bc.UpdatedAt.After(found.UpdatedAt)) {
			found = &bc
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *MemoryStore) ListAdPlacements(ctx context.Context, brandConfigID string) ([]models.AdPlacement, error) {
	defer s.lock()()
	var out []models.AdPlacement
	for _, ad := range s.data.ads {
		if ad.IsActive && ad.BrandConfigID != nil && *ad.BrandConfigID == brandConfigID {
			out = append(out, ad)
		}
	}
	return out, nil
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// newestFirst reverses insertion order, then stable-sorts by created time.
func newestFirst[T any](items []T, createdAt func(i int) time.Time) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(i).After(createdAt(j))
	})
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
