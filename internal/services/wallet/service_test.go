package wallet

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/models"
	"payway/internal/repositories"
	"payway/internal/repositories/cache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, policy NegativeBalancePolicy) (Service, *memoryWallets, *MockUsers) {
	t.Helper()
	repo := newMemoryWallets()
	users := new(MockUsers)
	users.On("GetByID", mock.Anything, uint(1)).Return(saudiUser(1, models.UserStatusActive), nil).Maybe()
	svc := NewService(repo, users, cache.NewMemoryStore(), Config{
		Policy:         policy,
		ReferralReward: decimal.NewFromInt(10),
	}, nil, nil)
	return svc, repo, users
}

func mustWallet(t *testing.T, svc Service, userID uint) *models.Wallet {
	t.Helper()
	w, err := svc.CreateWallet(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func TestWalletService_CreateWallet(t *testing.T) {
	svc, _, users := newTestService(t, AllowAll)
	users.On("GetByID", mock.Anything, uint(2)).Return(&models.User{}, nil)
	users.On("GetByID", mock.Anything, uint(3)).Return(nil, errors.New("db down"))

	w := mustWallet(t, svc, 1)
	assert.Equal(t, "SAR", w.Balance.Currency)
	assert.True(t, w.Balance.Amount.IsZero())

	_, err := svc.CreateWallet(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrWalletExists)

	_, err = svc.CreateWallet(context.Background(), 2)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCurrency)

	_, err = svc.CreateWallet(context.Background(), 3)
	assert.Error(t, err)
}

func TestWalletService_CreateTransaction(t *testing.T) {
	tests := []struct {
		name    string
		policy  NegativeBalancePolicy
		seed    string
		in      TransactionInput
		wantErr error
		want    string
	}{
		{
			name: "credit",
			seed: "0",
			in:   TransactionInput{Amount: decimal.RequireFromString("12.50"), Type: models.TransactionCharging},
			want: "12.5",
		},
		{
			name: "debit within balance",
			seed: "20",
			in:   TransactionInput{Amount: decimal.RequireFromString("-20"), Type: models.TransactionOrderPayment},
			want: "0",
		},
		{
			name:    "debit below zero rejected by default",
			seed:    "5",
			in:      TransactionInput{Amount: decimal.RequireFromString("-6"), Type: models.TransactionOrderPayment},
			wantErr: apperrors.ErrInsufficientBalance,
			want:    "5",
		},
		{
			name: "fine may go below zero by default",
			seed: "5",
			in:   TransactionInput{Amount: decimal.RequireFromString("-30"), Type: models.TransactionFine},
			want: "-25",
		},
		{
			name:    "fine rejected under reject_all",
			policy:  RejectAll,
			seed:    "5",
			in:      TransactionInput{Amount: decimal.RequireFromString("-30"), Type: models.TransactionFine},
			wantErr: apperrors.ErrInsufficientBalance,
			want:    "5",
		},
		{
			name:   "allow_all",
			policy: AllowAll,
			seed:   "0",
			in:     TransactionInput{Amount: decimal.RequireFromString("-1"), Type: models.TransactionPayout},
			want:   "-1",
		},
		{
			name:    "zero amount",
			seed:    "0",
			in:      TransactionInput{Amount: decimal.Zero, Type: models.TransactionCharging},
			wantErr: apperrors.ErrInvalidAmount,
			want:    "0",
		},
		{
			name:    "unknown type",
			seed:    "0",
			in:      TransactionInput{Amount: decimal.NewFromInt(1), Type: "GIFT"},
			wantErr: apperrors.ErrInvalidTransactionType,
			want:    "0",
		},
		{
			name:    "more decimals than the currency has",
			seed:    "0",
			in:      TransactionInput{Amount: decimal.RequireFromString("10.005"), Type: models.TransactionCharging},
			wantErr: apperrors.ErrInvalidAmount,
			want:    "0",
		},
		{
			name: "trailing zeros are not extra precision",
			seed: "0",
			in:   TransactionInput{Amount: decimal.RequireFromString("10.500"), Type: models.TransactionCharging},
			want: "10.5",
		},
		{
			name:    "currency mismatch",
			seed:    "0",
			in:      TransactionInput{Amount: decimal.NewFromInt(1), Currency: "USD", Type: models.TransactionCharging},
			wantErr: apperrors.ErrCurrencyMismatch,
			want:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := tt.policy
			if policy == "" {
				policy = DebitFloorZeroExceptFines
			}
			svc, _, _ := newTestService(t, policy)
			ctx := context.Background()
			w := mustWallet(t, svc, 1)

			if seed := decimal.RequireFromString(tt.seed); !seed.IsZero() {
				_, err := svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: seed, Type: models.TransactionCharging})
				require.NoError(t, err)
			}

			entry, err := svc.CreateTransaction(ctx, w.ID, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, entry)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.in.Type, entry.Type)
				assert.True(t, entry.Amount.Amount.Equal(tt.in.Amount))
				assert.Equal(t, "SAR", entry.Amount.Currency)
			}

			got, err := svc.GetWallet(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Balance.Amount.String())

			replayed, err := svc.ReplayBalance(ctx, w.ID)
			require.NoError(t, err)
			assert.True(t, replayed.Equal(got.Balance.Amount), "balance %s, ledger %s", got.Balance.Amount, replayed)
		})
	}
}

func TestWalletService_LedgerReplayMatchesBalance(t *testing.T) {
	svc, _, _ := newTestService(t, AllowAll)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	rng := rand.New(rand.NewSource(42))
	types := []models.TransactionType{
		models.TransactionCharging, models.TransactionRefund, models.TransactionFine,
		models.TransactionOrderPayment, models.TransactionPayout, models.TransactionShare,
	}
	sum := decimal.Zero
	for i := 0; i < 200; i++ {
		cents := rng.Int63n(200000) - 100000
		if cents == 0 {
			cents = 1
		}
		amount := decimal.New(cents, -2)
		_, err := svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: amount, Type: types[rng.Intn(len(types))]})
		require.NoError(t, err)
		sum = sum.Add(amount)
	}

	got, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Balance.Amount.Equal(sum))

	replayed, err := svc.ReplayBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, replayed.Equal(sum))
}

func TestWalletService_ConcurrentCreditsAreSerialized(t *testing.T) {
	svc, _, _ := newTestService(t, DebitFloorZeroExceptFines)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: decimal.NewFromInt(1), Type: models.TransactionCharging})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	replayed, err := svc.ReplayBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "50", replayed.String())

	got, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "50", got.Balance.Amount.String())
}

func TestWalletService_FailedInsertLeavesBalanceUntouched(t *testing.T) {
	svc, repo, _ := newTestService(t, AllowAll)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	repo.failInsert = errors.New("insert failed")
	_, err := svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: decimal.NewFromInt(5), Type: models.TransactionCharging})
	assert.Error(t, err)

	stored, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Amount.IsZero())
	assert.Empty(t, repo.entries)
}

func TestWalletService_DuplicateReference(t *testing.T) {
	svc, _, _ := newTestService(t, AllowAll)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	ref := "admin:7f1c"
	in := TransactionInput{Amount: decimal.NewFromInt(5), Type: models.TransactionCharging, Reference: &ref}
	_, err := svc.CreateTransaction(ctx, w.ID, in)
	require.NoError(t, err)

	_, err = svc.CreateTransaction(ctx, w.ID, in)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateTransaction)

	got, _ := svc.GetWallet(ctx, 1)
	assert.Equal(t, "5", got.Balance.Amount.String())
}

func TestWalletService_CreditReferral(t *testing.T) {
	svc, _, users := newTestService(t, DebitFloorZeroExceptFines)
	users.On("GetByID", mock.Anything, uint(4)).Return(saudiUser(4, models.UserStatusSuspended), nil)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	entry, err := svc.CreditReferral(ctx, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionReferral, entry.Type)
	require.NotNil(t, entry.Reference)
	assert.Equal(t, "referral:9", *entry.Reference)

	_, err = svc.CreditReferral(ctx, 1, 9)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateTransaction)

	_, err = svc.CreditReferral(ctx, 1, 1)
	assert.ErrorIs(t, err, apperrors.ErrReferralNotEligible)

	_, err = svc.CreditReferral(ctx, 4, 9)
	assert.ErrorIs(t, err, apperrors.ErrReferralNotEligible)

	replayed, err := svc.ReplayBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", replayed.String())
}

func TestWalletService_GetWalletUsesCache(t *testing.T) {
	svc, repo, _ := newTestService(t, AllowAll)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	_, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)

	// a write outside the service is not visible until the entry expires
	require.NoError(t, repo.UpdateSettings(ctx, w.ID, true))
	cached, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cached.IsUseWalletInPayment)

	updated, err := svc.SetUseWalletInPayment(ctx, 1, true)
	require.NoError(t, err)
	assert.True(t, updated.IsUseWalletInPayment)

	fresh, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, fresh.IsUseWalletInPayment)

	_, err = svc.GetWallet(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
}

func TestWalletService_ListTransactionsClampsPaging(t *testing.T) {
	svc, _, _ := newTestService(t, AllowAll)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: decimal.NewFromInt(1), Type: models.TransactionCharging})
		require.NoError(t, err)
	}

	rows, total, err := svc.ListTransactions(ctx, w.ID, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 3)

	rows, _, err = svc.ListTransactions(ctx, w.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWalletService_RecordsLedgerMetrics(t *testing.T) {
	repo := newMemoryWallets()
	users := new(MockUsers)
	users.On("GetByID", mock.Anything, uint(1)).Return(saudiUser(1, models.UserStatusActive), nil)
	metrics := new(MockMetrics)
	metrics.On("RecordLedgerEntry", "CHARGING", "ok").Once()
	metrics.On("RecordLedgerEntry", "ORDER_PAYMENT", "rejected").Once()
	metrics.On("RecordLedgerEntry", "invalid", "rejected").Once()

	svc := NewService(repo, users, nil, Config{}, metrics, nil)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	_, err := svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: decimal.NewFromInt(1), Type: models.TransactionCharging})
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: decimal.NewFromInt(-2), Type: models.TransactionOrderPayment})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	_, err = svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: decimal.NewFromInt(1), Type: "x-123456789"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransactionType)

	metrics.AssertExpectations(t)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DebitFloorZeroExceptFines, p)

	p, err = ParsePolicy(" Allow_All ")
	require.NoError(t, err)
	assert.Equal(t, AllowAll, p)

	_, err = ParsePolicy("sometimes")
	assert.Error(t, err)
}

func TestWalletService_AuditIgnoresCachedBalance(t *testing.T) {
	svc, repo, _ := newTestService(t, AllowAll)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	_, err := svc.CreateTransaction(ctx, w.ID, TransactionInput{Amount: decimal.NewFromInt(40), Type: models.TransactionCharging})
	require.NoError(t, err)

	// cache the balance, then commit an entry whose invalidation is lost
	cached, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		if err := tx.UpdateBalance(ctx, w.ID, decimal.NewFromInt(30), time.Now()); err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, &models.WalletTransaction{
			WalletID: w.ID,
			Amount:   models.NewMoney(decimal.NewFromInt(-10), "SAR"),
			Type:     models.TransactionPayout,
		})
	}))
	stale, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	require.True(t, stale.Balance.Amount.Equal(cached.Balance.Amount), "cache still serves the old balance")

	audit, err := svc.AuditWallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, w.ID, audit.WalletID)
	assert.Equal(t, "30", audit.Balance.String())
	assert.Equal(t, "30", audit.LedgerSum.String())
	assert.True(t, audit.Consistent)

	// a balance written without a ledger entry is caught
	require.NoError(t, repo.UpdateBalance(ctx, w.ID, decimal.NewFromInt(31), time.Now()))
	audit, err = svc.AuditWallet(ctx, 1)
	require.NoError(t, err)
	assert.False(t, audit.Consistent)

	_, err = svc.AuditWallet(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
}

func TestWalletService_CreateTransactionForUser(t *testing.T) {
	svc, _, _ := newTestService(t, DebitFloorZeroExceptFines)
	ctx := context.Background()
	w := mustWallet(t, svc, 1)

	entry, err := svc.CreateTransactionForUser(ctx, 1, TransactionInput{Amount: decimal.NewFromInt(7), Type: models.TransactionCharging})
	require.NoError(t, err)
	assert.Equal(t, w.ID, entry.WalletID)

	got, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "7", got.Balance.Amount.String())

	_, err = svc.CreateTransactionForUser(ctx, 42, TransactionInput{Amount: decimal.NewFromInt(7), Type: models.TransactionCharging})
	assert.ErrorIs(t, err, apperrors.ErrWalletNotFound)
}
