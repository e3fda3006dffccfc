package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lend_tracker/internal/models"
)

// Memory is an in-process Store with the same constraints as the Postgres
// schema: unique emails, unique (admin, number) pairs, unique tracking
// tokens and cascading friend deletes. Data is lost on restart.
type Memory struct {
	mu           sync.RWMutex
	nextID       uint
	users        map[uint]models.User
	friends      map[uint]models.Friend
	transactions map[uint]models.Transaction
	now          func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[uint]models.User),
		friends:      make(map[uint]models.Friend),
		transactions: make(map[uint]models.Transaction),
		now:          time.Now,
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFriend(f models.Friend) models.Friend {
	f.TrackingURL = cloneString(f.TrackingURL)
	f.TrackingCode = cloneString(f.TrackingCode)
	f.Transactions = nil
	return f
}

func cloneTransaction(tx models.Transaction) models.Transaction {
	tx.Description = cloneString(tx.Description)
	return tx
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: users.email", ErrUniqueViolation)
		}
	}
	u.ID = m.id()
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = models.RoleAdmin
	}
	if u.PreferredCurrency == "" {
		u.PreferredCurrency = "USD"
	}
	stored := *u
	stored.Friends = nil
	m.users[u.ID] = stored
	return nil
}

func (m *Memory) UserByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateUser(_ context.Context, id uint, patch UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.PreferredCurrency != nil {
		u.PreferredCurrency = *patch.PreferredCurrency
	}
	u.UpdatedAt = m.now()
	m.users[id] = u
	return &u, nil
}

// checkFriendUnique must be called with the lock held. self is skipped so
// a friend can be updated to its own current values.
func (m *Memory) checkFriendUnique(f models.Friend, self uint) error {
	for id, existing := range m.friends {
		if id == self {
			continue
		}
		if existing.AdminID == f.AdminID && existing.WhatsappNumber == f.WhatsappNumber {
			return fmt.Errorf("%w: idx_friends_admin_number", ErrUniqueViolation)
		}
		if f.TrackingURL != nil && existing.TrackingURL != nil && *existing.TrackingURL == *f.TrackingURL {
			return fmt.Errorf("%w: friends.tracking_url", ErrUniqueViolation)
		}
	}
	return nil
}

func (m *Memory) CreateFriend(_ context.Context, f *models.Friend) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[f.AdminID]; !ok {
		return fmt.Errorf("%w: admin %d", ErrNotFound, f.AdminID)
	}
	if err := m.checkFriendUnique(*f, 0); err != nil {
		return err
	}
	f.ID = m.id()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = m.now()
	}
	m.friends[f.ID] = cloneFriend(*f)
	return nil
}

func (m *Memory) FriendByID(_ context.Context, id uint) (*models.Friend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.friends[id]
	if !ok {
		return nil, ErrNotFound
	}
	f = cloneFriend(f)
	return &f, nil
}

func (m *Memory) FriendByTrackingURL(_ context.Context, token string) (*models.Friend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.friends {
		if f.TrackingURL != nil && *f.TrackingURL == token {
			f = cloneFriend(f)
			return &f, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FriendsByAdmin(_ context.Context, adminID uint) ([]models.Friend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Friend
	for _, f := range m.friends {
		if f.AdminID == adminID {
			out = append(out, cloneFriend(f))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateFriend(_ context.Context, id uint, patch FriendPatch) (*models.Friend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.friends[id]
	if !ok {
		return nil, ErrNotFound
	}
	f = cloneFriend(f)
	if patch.FullName != nil {
		f.FullName = *patch.FullName
	}
	if patch.WhatsappNumber != nil {
		f.WhatsappNumber = *patch.WhatsappNumber
	}
	if patch.TrackingURL != nil {
		f.TrackingURL = cloneString(patch.TrackingURL)
	}
	if patch.TrackingCode != nil {
		f.TrackingCode = cloneString(patch.TrackingCode)
	}
	if err := m.checkFriendUnique(f, id); err != nil {
		return nil, err
	}
	m.friends[id] = f
	out := cloneFriend(f)
	return &out, nil
}

func (m *Memory) DeleteFriend(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.friends[id]; !ok {
		return ErrNotFound
	}
	for txID, tx := range m.transactions {
		if tx.FriendID == id {
			delete(m.transactions, txID)
		}
	}
	delete(m.friends, id)
	return nil
}

func (m *Memory) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.friends[tx.FriendID]; !ok {
		return fmt.Errorf("%w: friend %d", ErrNotFound, tx.FriendID)
	}
	tx.ID = m.id()
	tx.CreatedAt = m.now()
	m.transactions[tx.ID] = cloneTransaction(*tx)
	return nil
}

func (m *Memory) TransactionsByFriend(_ context.Context, friendID uint) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range m.transactions {
		if tx.FriendID == friendID {
			out = append(out, cloneTransaction(tx))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *Memory) TransactionsByAdmin(_ context.Context, adminID uint) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range m.transactions {
		if f, ok := m.friends[tx.FriendID]; ok && f.AdminID == adminID {
			out = append(out, cloneTransaction(tx))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// sortNewestFirst gives map-backed results the same order the SQL queries use.
func sortNewestFirst(txs []models.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].TransactionDate.Equal(txs[j].TransactionDate) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].TransactionDate.After(txs[j].TransactionDate)
	})
}

var _ Store = (*Memory)(nil)
