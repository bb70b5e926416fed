// Package otp issues and verifies short lived numeric codes sent by SMS.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/repositories/cache"
	"payway/internal/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Purpose string

const (
	PurposeLogin          Purpose = "login"
	PurposeRegister       Purpose = "register"
	PurposeResetPassword  Purpose = "reset_password"
	PurposeWalletWithdraw Purpose = "wallet_withdraw"
	PurposeChangePhone    Purpose = "change_phone"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeLogin, PurposeRegister, PurposeResetPassword, PurposeWalletWithdraw, PurposeChangePhone:
		return true
	}
	return false
}

const messageFormat = "Your verification code is %s"

type Config struct {
	CodeLength  int
	TTL         time.Duration
	MaxAttempts int
	HourlyLimit int
	// Window is the length of the fixed rate-limit window, counted from
	// the first send.
	Window   time.Duration
	HashCost int
}

func DefaultConfig() Config {
	return Config{
		CodeLength:  4,
		TTL:         10 * time.Minute,
		MaxAttempts: 5,
		HourlyLimit: 5,
		Window:      time.Hour,
		HashCost:    bcrypt.DefaultCost,
	}
}

type MetricsCollector interface {
	RecordOTP(action, result string)
}

type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOTP(string, string) {}

// record is the pending code. ID scopes the attempt counter and the
// one-shot claim to this code, so a resend starts from zero attempts.
type record struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Limiter owns the code, attempt and rate-limit entries in the store. All
// counters go through Store.Incr.
type Limiter struct {
	store   cache.Store
	sender  notification.Sender
	cfg     Config
	metrics MetricsCollector
	log     *zap.Logger
	now     func() time.Time
	random  io.Reader
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithRandom replaces crypto/rand as the source of codes.
func WithRandom(r io.Reader) Option {
	return func(l *Limiter) { l.random = r }
}

func WithMetrics(m MetricsCollector) Option {
	return func(l *Limiter) { l.metrics = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

func NewLimiter(store cache.Store, sender notification.Sender, cfg Config, opts ...Option) *Limiter {
	def := DefaultConfig()
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = def.CodeLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.HourlyLimit <= 0 {
		cfg.HourlyLimit = def.HourlyLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = def.HashCost
	}

	l := &Limiter{
		store:   store,
		sender:  sender,
		cfg:     cfg,
		metrics: NoopMetricsCollector{},
		log:     zap.NewNop(),
		now:     time.Now,
		random:  rand.Reader,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func codeKey(phone string, purpose Purpose) string {
	return cache.GenerateKey(cache.EntityOTP, phone, purpose)
}

func rateKey(phone string) string {
	return cache.GenerateKey(cache.EntityRateLimit, phone)
}

func attemptsKey(phone string, purpose Purpose, id string) string {
	return cache.GenerateKey(cache.EntityOTPAttempts, phone, purpose, id)
}

func claimKey(phone string, purpose Purpose, id string) string {
	return cache.GenerateKey(cache.EntityOTPClaim, phone, purpose, id)
}

// Send issues a new code for phone and purpose, replacing any pending one.
func (l *Limiter) Send(ctx context.Context, phone string, purpose Purpose) error {
	if !purpose.Valid() {
		return apperrors.ErrInvalidPurpose
	}
	if err := l.consumeQuota(ctx, phone); err != nil {
		l.metrics.RecordOTP("send", "rate_limited")
		return err
	}

	code, err := l.generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), l.cfg.HashCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	now := l.now()
	key := codeKey(phone, purpose)
	rec := record{ID: uuid.NewString(), Hash: string(hash), ExpiresAt: now.Add(l.cfg.TTL)}
	if err := l.store.Set(ctx, key, rec, l.cfg.TTL); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if err := l.sender.SendBulk(ctx, []string{phone}, fmt.Sprintf(messageFormat, code)); err != nil {
		// the payer never saw this code
		if delErr := l.store.Delete(ctx, key); delErr != nil {
			l.log.Warn("failed to drop undelivered code", zap.Error(delErr))
		}
		l.metrics.RecordOTP("send", "sms_failed")
		l.log.Error("verification code delivery failed",
			zap.String("purpose", string(purpose)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", apperrors.ErrSMSDelivery, err)
	}

	l.metrics.RecordOTP("send", "ok")
	return nil
}

// consumeQuota counts one send against the fixed window that started with
// the first send. The window does not slide. Sends over the limit still
// increment the counter, which cannot extend the window.
func (l *Limiter) consumeQuota(ctx context.Context, phone string) error {
	n, err := l.store.Incr(ctx, rateKey(phone), l.cfg.Window)
	if err != nil {
		return fmt.Errorf("failed to update rate limit: %w", err)
	}
	if n > int64(l.cfg.HourlyLimit) {
		return apperrors.ErrRateLimitExceeded
	}
	return nil
}

// Verify checks code against the pending code for phone and purpose. A
// successful check consumes the code.
//
// Attempts are counted with an atomic increment before the code is
// compared, so at most MaxAttempts guesses are ever evaluated per code no
// matter how many requests race.
func (l *Limiter) Verify(ctx context.Context, phone string, purpose Purpose, code string) error {
	if !purpose.Valid() {
		return apperrors.ErrInvalidPurpose
	}

	now := l.now()
	key := codeKey(phone, purpose)

	var rec record
	found, err := l.store.Get(ctx, key, &rec)
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}
	remaining := rec.ExpiresAt.Sub(now)
	if !found || remaining <= 0 {
		l.metrics.RecordOTP("verify", "not_found")
		return apperrors.ErrOtpNotFound
	}

	attempt, err := l.store.Incr(ctx, attemptsKey(phone, purpose, rec.ID), remaining)
	if err != nil {
		return fmt.Errorf("failed to count attempt: %w", err)
	}
	if attempt > int64(l.cfg.MaxAttempts) {
		if err := l.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete code: %w", err)
		}
		l.metrics.RecordOTP("verify", "locked")
		return apperrors.ErrMaxAttemptsExceeded
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(code)) != nil {
		l.metrics.RecordOTP("verify", "invalid")
		return apperrors.ErrInvalidCode
	}

	// only one of several concurrent correct submissions wins
	claim, err := l.store.Incr(ctx, claimKey(phone, purpose, rec.ID), remaining)
	if err != nil {
		return fmt.Errorf("failed to claim code: %w", err)
	}
	if claim > 1 {
		l.metrics.RecordOTP("verify", "not_found")
		return apperrors.ErrOtpNotFound
	}

	if err := l.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	l.metrics.RecordOTP("verify", "ok")
	return nil
}

func (l *Limiter) generateCode() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(l.cfg.CodeLength)), nil)
	n, err := rand.Int(l.random, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", l.cfg.CodeLength, n), nil
}
