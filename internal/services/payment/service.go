package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "payway/internal/errors"
	"payway/internal/models"
	"payway/internal/repositories"
	"payway/internal/services/gateway"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	payments repositories.PaymentRepository
	users    UserLookup
	factory  GatewayFactory
	cfg      Config
	metrics  MetricsCollector
	log      *zap.Logger
}

// NewService creates a new payment service
func NewService(
	payments repositories.PaymentRepository,
	users UserLookup,
	factory GatewayFactory,
	cfg Config,
	metrics MetricsCollector,
	log *zap.Logger,
) Service {
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		payments: payments,
		users:    users,
		factory:  factory,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
	}
}

func (s *service) CreatePayment(ctx context.Context, in CreatePaymentInput) (*models.Payment, error) {
	if !in.PriceAfterDiscount.IsPositive() || in.PriceAfterDiscount.GreaterThan(in.PriceBeforeDiscount) {
		return nil, apperrors.ErrInvalidPrice
	}
	if in.PaymentType == "" {
		in.PaymentType = models.PaymentTypeOnline
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		user, err := s.users.GetByID(ctx, in.CustomerID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, apperrors.ErrUserNotFound
			}
			return nil, err
		}
		if user.Country == nil {
			return nil, apperrors.ErrUnsupportedCurrency
		}
		currency = user.Country.Currency
	}
	if !types.FitsCurrency(in.PriceBeforeDiscount, currency) || !types.FitsCurrency(in.PriceAfterDiscount, currency) {
		return nil, apperrors.ErrInvalidPrice
	}

	p := &models.Payment{
		UserID:              in.CustomerID,
		PriceBeforeDiscount: models.NewMoney(in.PriceBeforeDiscount, currency),
		PriceAfterDiscount:  models.NewMoney(in.PriceAfterDiscount, currency),
		PaymentType:         in.PaymentType,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.ErrPaymentNotFound
	}
	return p, err
}

func (s *service) InitializeOnlinePayment(ctx context.Context, paymentID uint) (string, error) {
	var paymentURL string
	err := s.payments.ExecuteInTransaction(ctx, func(tx repositories.PaymentRepository) error {
		p, err := tx.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrPaymentNotFound
			}
			return err
		}
		if p.IsPaid {
			return apperrors.ErrPaymentAlreadyPaid
		}
		if p.PaymentType != models.PaymentTypeOnline {
			return apperrors.ErrNotOnlinePayment
		}

		adapter, err := s.adapterFor(p)
		if err != nil {
			return err
		}

		if p.PaymentChargeID != nil {
			paymentURL, err = s.existingCharge(ctx, adapter, *p.PaymentChargeID)
			return err
		}

		user, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			return fmt.Errorf("failed to load customer: %w", err)
		}
		req := types.ChargeRequest{
			Amount:      p.PriceAfterDiscount.Amount,
			Currency:    p.PriceAfterDiscount.Currency,
			PhoneNumber: user.Phone,
			OrderID:     strconv.FormatUint(uint64(p.ID), 10),
			CallbackURL: s.cfg.CallbackURL,
			RedirectURL: s.cfg.RedirectURL,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
		}
		if user.Country != nil {
			req.PhoneCountryCode = strings.TrimPrefix(user.Country.DialCode, "+")
		}

		charge, err := adapter.CreateCharge(ctx, req)
		if err != nil {
			s.metrics.RecordCharge(string(adapter.Type()), "error")
			return err
		}
		s.metrics.RecordCharge(string(adapter.Type()), "created")

		if err := tx.SetCharge(ctx, p.ID, charge.PaymentID, string(adapter.Type())); err != nil {
			// the provider charge exists even though we could not record it
			s.log.Error("charge created but not persisted",
				zap.Uint("payment_id", p.ID),
				zap.String("gateway", string(adapter.Type())),
				zap.String("charge_id", charge.PaymentID),
				zap.Error(err),
			)
			return err
		}
		paymentURL = charge.PaymentURL
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("online payment initialized", zap.Uint("payment_id", paymentID))
	return paymentURL, nil
}

// existingCharge returns the payment page of a charge created earlier so
// a retry never opens a second charge at the provider.
func (s *service) existingCharge(ctx context.Context, adapter types.Adapter, chargeID string) (string, error) {
	status, err := adapter.GetChargeStatus(ctx, chargeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotImplemented) {
			return "", apperrors.ErrChargeAlreadyCreated
		}
		return "", err
	}
	if status.IsPaid {
		return "", apperrors.ErrPaymentAlreadyPaid
	}
	if status.PaymentURL == "" {
		return "", apperrors.ErrChargeAlreadyCreated
	}
	return status.PaymentURL, nil
}

func (s *service) MarkCompleted(ctx context.Context, repo repositories.PaymentRepository, p *models.Payment) (bool, error) {
	if p.IsPaid {
		return false, nil
	}
	changed, err := repo.MarkPaid(ctx, p.ID)
	if err != nil {
		return false, err
	}
	p.IsPaid = true
	return changed, nil
}

func (s *service) Refund(ctx context.Context, paymentID uint, amount decimal.Decimal, reason string) (*types.RefundResponse, error) {
	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.IsPaid || p.PaymentChargeID == nil {
		return nil, apperrors.ErrPaymentNotPaid
	}
	if amount.IsZero() {
		amount = p.PriceAfterDiscount.Amount
	}
	if amount.IsNegative() || amount.GreaterThan(p.PriceAfterDiscount.Amount) {
		return nil, apperrors.ErrInvalidAmount
	}

	adapter, err := s.adapterFor(p)
	if err != nil {
		return nil, err
	}

	// refunds address the provider's payment, which only the callback
	// carries for some gateways
	transactionID := *p.PaymentChargeID
	if len(p.BankTransactionResponse) > 0 {
		if cb, err := adapter.ExtractPaymentCallback(p.BankTransactionResponse); err == nil && cb.GatewayPaymentID != "" {
			transactionID = cb.GatewayPaymentID
		}
	}

	resp, err := adapter.RefundPayment(ctx, transactionID, amount, p.PriceAfterDiscount.Currency, reason)
	if err != nil {
		return nil, err
	}
	s.log.Info("refund requested",
		zap.Uint("payment_id", p.ID),
		zap.String("amount", amount.String()),
		zap.String("refund_id", resp.RefundID),
		zap.Bool("success", resp.IsSuccess),
	)
	return resp, nil
}

func (s *service) ResolveRedirect(ctx context.Context, query map[string]string) (string, error) {
	ref, err := gateway.ParseRedirect(query)
	if err != nil {
		return s.statusURL(false, ""), err
	}

	success := ref.Success != nil && *ref.Success
	if ref.ChargeID != "" {
		if adapter, err := s.factory.Adapter(ref.Gateway); err == nil {
			status, err := adapter.GetChargeStatus(ctx, ref.ChargeID)
			switch {
			case err == nil:
				success = status.IsPaid
			case errors.Is(err, apperrors.ErrNotImplemented):
			default:
				s.log.Warn("charge status lookup failed",
					zap.String("gateway", string(ref.Gateway)),
					zap.String("charge_id", ref.ChargeID),
					zap.Error(err),
				)
			}
		}
	}
	return s.statusURL(success, ref.ChargeID), nil
}

func (s *service) statusURL(success bool, transactionID string) string {
	q := url.Values{}
	q.Set("is_success", strconv.FormatBool(success))
	q.Set("transaction_id", transactionID)
	sep := "?"
	if strings.Contains(s.cfg.ClientStatusURL, "?") {
		sep = "&"
	}
	return s.cfg.ClientStatusURL + sep + q.Encode()
}

func (s *service) adapterFor(p *models.Payment) (types.Adapter, error) {
	if p.Gateway != "" {
		return s.factory.Adapter(types.GatewayType(p.Gateway))
	}
	return s.factory.Create(gateway.Selector{Currency: p.PriceAfterDiscount.Currency})
}
