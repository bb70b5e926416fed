package wallet

import (
	"context"

	"payway/internal/models"
	"payway/internal/repositories/cache"

	"go.uber.org/zap"
)

func walletKey(userID uint) string {
	return cache.GenerateKey(cache.EntityWallet, userID)
}

func (s *service) cachedWallet(ctx context.Context, userID uint) (*models.Wallet, bool) {
	if s.cache == nil {
		return nil, false
	}
	var w models.Wallet
	found, err := s.cache.Get(ctx, walletKey(userID), &w)
	if err != nil {
		s.log.Warn("wallet cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &w, true
}

func (s *service) cacheWallet(ctx context.Context, w *models.Wallet) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, walletKey(w.UserID), w, s.config.CacheDuration); err != nil {
		s.log.Warn("wallet cache write failed", zap.Uint("user_id", w.UserID), zap.Error(err))
	}
}

// invalidateWallet drops the cached copy after a write. A failure leaves a
// stale entry for at most CacheDuration.
func (s *service) invalidateWallet(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, walletKey(userID)); err != nil {
		s.log.Warn("wallet cache invalidation failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}
