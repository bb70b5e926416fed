package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/models"
	"payway/internal/repositories"
	"payway/internal/repositories/cache"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	repo    repositories.WalletRepository
	users   UserLookup
	cache   cache.Store
	config  Config
	metrics MetricsCollector
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates a new wallet service. store may be nil to disable
// wallet caching.
func NewService(
	repo repositories.WalletRepository,
	users UserLookup,
	store cache.Store,
	config Config,
	metrics MetricsCollector,
	log *zap.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if users == nil {
		panic("user lookup is required")
	}

	if config.Policy == "" {
		config.Policy = DebitFloorZeroExceptFines
	}
	if config.CacheDuration == 0 {
		config.CacheDuration = CacheDuration
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &service{
		repo:    repo,
		users:   users,
		cache:   store,
		config:  config,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

func (s *service) CreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Country == nil || user.Country.Currency == "" {
		return nil, apperrors.ErrUnsupportedCurrency
	}

	now := s.now()
	w := &models.Wallet{
		UserID:     userID,
		Balance:    models.NewMoney(decimal.Zero, user.Country.Currency),
		LastUpdate: now,
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrWalletExists
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	s.log.Info("wallet created",
		zap.Uint("user_id", userID),
		zap.Uint("wallet_id", w.ID),
		zap.String("currency", w.Balance.Currency),
	)
	return w, nil
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	if w, ok := s.cachedWallet(ctx, userID); ok {
		return w, nil
	}

	w, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	s.cacheWallet(ctx, w)
	return w, nil
}

func (s *service) SetUseWalletInPayment(ctx context.Context, userID uint, use bool) (*models.Wallet, error) {
	w, err := s.walletOf(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSettings(ctx, w.ID, use); err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	w.IsUseWalletInPayment = use

	s.invalidateWallet(ctx, userID)
	return w, nil
}

func (s *service) CreateTransaction(ctx context.Context, walletID uint, in TransactionInput) (*models.WalletTransaction, error) {
	if !in.Type.Valid() {
		s.metrics.RecordLedgerEntry(invalidTypeLabel, "rejected")
		return nil, apperrors.ErrInvalidTransactionType
	}
	if in.Amount.IsZero() {
		s.metrics.RecordLedgerEntry(string(in.Type), "rejected")
		return nil, apperrors.ErrInvalidAmount
	}

	var (
		entry  *models.WalletTransaction
		userID uint
	)
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		w, err := tx.GetByIDForUpdate(ctx, walletID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrWalletNotFound
			}
			return err
		}
		userID = w.UserID

		if in.Currency != "" && !strings.EqualFold(in.Currency, w.Balance.Currency) {
			return apperrors.ErrCurrencyMismatch
		}
		if !types.FitsCurrency(in.Amount, w.Balance.Currency) {
			return apperrors.ErrInvalidAmount
		}
		if !s.config.Policy.Allows(w.Balance.Amount, in.Amount, in.Type) {
			return apperrors.ErrInsufficientBalance
		}

		now := s.now()
		if err := tx.UpdateBalance(ctx, w.ID, w.Balance.Amount.Add(in.Amount), now); err != nil {
			return err
		}

		entry = &models.WalletTransaction{
			WalletID:   w.ID,
			Amount:     models.NewMoney(in.Amount, w.Balance.Currency),
			Type:       in.Type,
			ActionByID: in.ActionByID,
			Note:       in.Note,
			Attachment: in.Attachment,
			Reference:  in.Reference,
			CreatedAt:  now,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return apperrors.ErrDuplicateTransaction
			}
			return err
		}
		return nil
	})
	if err != nil {
		result := "error"
		if _, ok := apperrors.As(err); ok {
			result = "rejected"
		}
		s.metrics.RecordLedgerEntry(string(in.Type), result)
		return nil, err
	}

	s.metrics.RecordLedgerEntry(string(in.Type), "ok")
	s.invalidateWallet(ctx, userID)
	s.log.Info("wallet ledger entry created",
		zap.Uint("wallet_id", walletID),
		zap.Uint("entry_id", entry.ID),
		zap.String("type", string(entry.Type)),
		zap.String("amount", entry.Amount.Amount.String()),
	)
	return entry, nil
}

func (s *service) ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, int64, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, walletID, limit, offset)
}

func (s *service) ReplayBalance(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	if _, err := s.repo.GetByID(ctx, walletID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return decimal.Zero, apperrors.ErrWalletNotFound
		}
		return decimal.Zero, err
	}
	return s.repo.SumTransactions(ctx, walletID)
}

func (s *service) CreateTransactionForUser(ctx context.Context, userID uint, in TransactionInput) (*models.WalletTransaction, error) {
	w, err := s.walletOf(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return s.CreateTransaction(ctx, w.ID, in)
}

func (s *service) AuditWallet(ctx context.Context, userID uint) (*Audit, error) {
	var audit *Audit
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.WalletRepository) error {
		w, err := s.walletOf(ctx, tx, userID)
		if err != nil {
			return err
		}
		// the lock keeps a concurrent entry from landing between the reads
		w, err = tx.GetByIDForUpdate(ctx, w.ID)
		if err != nil {
			return err
		}
		sum, err := tx.SumTransactions(ctx, w.ID)
		if err != nil {
			return err
		}
		audit = &Audit{
			WalletID:   w.ID,
			Balance:    w.Balance.Amount,
			LedgerSum:  sum,
			Consistent: sum.Equal(w.Balance.Amount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !audit.Consistent {
		s.log.Error("wallet balance does not match ledger",
			zap.Uint("user_id", userID),
			zap.Uint("wallet_id", audit.WalletID),
			zap.String("balance", audit.Balance.String()),
			zap.String("ledger_sum", audit.LedgerSum.String()),
		)
	}
	return audit, nil
}

func (s *service) walletOf(ctx context.Context, repo repositories.WalletRepository, userID uint) (*models.Wallet, error) {
	w, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (s *service) CreditReferral(ctx context.Context, referrerID, refereeID uint) (*models.WalletTransaction, error) {
	if referrerID == 0 || referrerID == refereeID {
		return nil, apperrors.ErrReferralNotEligible
	}
	if !s.config.ReferralReward.IsPositive() {
		return nil, apperrors.ErrReferralNotEligible
	}

	referrer, err := s.users.GetByID(ctx, referrerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load referrer: %w", err)
	}
	if !referrer.IsActive() {
		return nil, apperrors.ErrReferralNotEligible
	}

	w, err := s.repo.GetByUserID(ctx, referrerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	ref := ReferralReferencePrefix + strconv.FormatUint(uint64(refereeID), 10)
	return s.CreateTransaction(ctx, w.ID, TransactionInput{
		Amount:    s.config.ReferralReward,
		Type:      models.TransactionReferral,
		Note:      fmt.Sprintf("referral reward for user %d", refereeID),
		Reference: &ref,
	})
}
