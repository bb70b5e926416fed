package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"payway/internal/models"
	"payway/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memoryWallets is a transactional in-memory WalletRepository; the mutex
// held for the whole transaction stands in for the wallet row lock.
type memoryWallets struct {
	mu      *sync.Mutex
	wallets map[uint]models.Wallet
	entries []models.WalletTransaction
	nextID  uint
	// failInsert makes CreateTransaction fail after the balance update.
	failInsert error
}

func newMemoryWallets() *memoryWallets {
	return &memoryWallets{mu: &sync.Mutex{}, wallets: map[uint]models.Wallet{}, nextID: 1}
}

func (m *memoryWallets) Create(_ context.Context, w *models.Wallet) error {
	for _, existing := range m.wallets {
		if existing.UserID == w.UserID {
			return repositories.ErrDuplicate
		}
	}
	w.ID = m.nextID
	m.nextID++
	m.wallets[w.ID] = *w
	return nil
}

func (m *memoryWallets) GetByID(_ context.Context, id uint) (*models.Wallet, error) {
	w, ok := m.wallets[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &w, nil
}

func (m *memoryWallets) GetByUserID(_ context.Context, userID uint) (*models.Wallet, error) {
	for _, w := range m.wallets {
		if w.UserID == userID {
			return &w, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryWallets) GetByIDForUpdate(ctx context.Context, id uint) (*models.Wallet, error) {
	return m.GetByID(ctx, id)
}

func (m *memoryWallets) UpdateBalance(_ context.Context, id uint, balance decimal.Decimal, at time.Time) error {
	w, ok := m.wallets[id]
	if !ok {
		return repositories.ErrNotFound
	}
	w.Balance.Amount = balance
	w.LastUpdate = at
	m.wallets[id] = w
	return nil
}

func (m *memoryWallets) UpdateSettings(_ context.Context, id uint, use bool) error {
	w := m.wallets[id]
	w.IsUseWalletInPayment = use
	m.wallets[id] = w
	return nil
}

func (m *memoryWallets) CreateTransaction(_ context.Context, tx *models.WalletTransaction) error {
	if m.failInsert != nil {
		return m.failInsert
	}
	if tx.Reference != nil {
		for _, e := range m.entries {
			if e.Reference != nil && *e.Reference == *tx.Reference {
				return repositories.ErrDuplicate
			}
		}
	}
	tx.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *tx)
	return nil
}

func (m *memoryWallets) ListTransactions(_ context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	var out []models.WalletTransaction
	for _, e := range m.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memoryWallets) SumTransactions(_ context.Context, walletID uint) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.WalletID == walletID {
			sum = sum.Add(e.Amount.Amount)
		}
	}
	return sum, nil
}

func (m *memoryWallets) ExecuteInTransaction(_ context.Context, fn func(repositories.WalletRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryWallets{
		mu:         m.mu,
		wallets:    make(map[uint]models.Wallet, len(m.wallets)),
		entries:    append([]models.WalletTransaction(nil), m.entries...),
		nextID:     m.nextID,
		failInsert: m.failInsert,
	}
	for id, w := range m.wallets {
		tx.wallets[id] = w
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.wallets, m.entries, m.nextID = tx.wallets, tx.entries, tx.nextID
	return nil
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordLedgerEntry(txType, result string) {
	m.Called(txType, result)
}

func saudiUser(id uint, status string) *models.User {
	u := &models.User{
		FirstName: "Sara",
		Status:    status,
		Country:   &models.Country{Code: "SA", Currency: "SAR", DialCode: "+966"},
	}
	u.ID = id
	return u
}
