package payment

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/events"
	"payway/internal/models"
	"payway/internal/repositories"
	"payway/internal/services/gateway"
	"payway/internal/services/gateway/types"

	"go.uber.org/zap"
)

type State string

const (
	StateReceived      State = "RECEIVED"
	StateValidated     State = "VALIDATED"
	StateCompleted     State = "COMPLETED"
	StateRejected      State = "REJECTED"
	StateDuplicateNoop State = "DUPLICATE_NOOP"
)

type WebhookResult struct {
	State     State
	PaymentID uint
	Gateway   types.GatewayType
}

// WebhookProcessor applies gateway callbacks to payments. Deliveries for
// the same payment are serialized by the row lock taken inside the
// transaction.
type WebhookProcessor struct {
	payments        repositories.PaymentRepository
	factory         GatewayFactory
	service         Service
	confirmationKey []byte
	publisher       events.Publisher
	metrics         MetricsCollector
	log             *zap.Logger
	now             func() time.Time
}

func NewWebhookProcessor(
	payments repositories.PaymentRepository,
	factory GatewayFactory,
	service Service,
	confirmationKey string,
	publisher events.Publisher,
	metrics MetricsCollector,
	log *zap.Logger,
) *WebhookProcessor {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookProcessor{
		payments:        payments,
		factory:         factory,
		service:         service,
		confirmationKey: []byte(confirmationKey),
		publisher:       publisher,
		metrics:         metrics,
		log:             log,
		now:             time.Now,
	}
}

// Process runs one callback through RECEIVED -> VALIDATED -> terminal
// state. A REJECTED result is always returned with a non-nil error and
// nothing persisted.
func (w *WebhookProcessor) Process(ctx context.Context, raw []byte) (*WebhookResult, error) {
	result := &WebhookResult{State: StateReceived}

	adapter, err := w.factory.Create(gateway.Selector{CallbackPayload: raw})
	if err != nil {
		return w.reject(result, err)
	}
	result.Gateway = adapter.Type()

	cb, err := adapter.ExtractPaymentCallback(raw)
	if err != nil {
		return w.reject(result, err)
	}
	orderID, err := strconv.ParseUint(cb.OrderID, 10, 64)
	if err != nil || orderID == 0 {
		return w.reject(result, &apperrors.CallbackParseError{Gateway: string(adapter.Type()), Field: "order id", Err: err})
	}
	result.PaymentID = uint(orderID)

	var completed *models.Payment
	err = w.payments.ExecuteInTransaction(ctx, func(tx repositories.PaymentRepository) error {
		p, err := tx.GetByIDForUpdate(ctx, result.PaymentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.ErrPaymentNotFound
			}
			return err
		}

		if !w.validKey(cb.ConfirmationKey) {
			return apperrors.ErrInvalidConfirmationKey
		}
		// a charge was opened with one provider, only that provider may
		// settle it
		if p.Gateway != "" && p.Gateway != string(adapter.Type()) {
			return apperrors.ErrGatewayMismatch
		}
		result.State = StateValidated

		if err := tx.SaveBankResponse(ctx, p.ID, raw); err != nil {
			return err
		}
		if !cb.IsCompleted {
			return nil
		}
		if p.IsPaid {
			result.State = StateDuplicateNoop
			return nil
		}
		if _, err := w.service.MarkCompleted(ctx, tx, p); err != nil {
			return err
		}
		result.State = StateCompleted
		completed = p
		return nil
	})
	if err != nil {
		result.State = StateReceived
		return w.reject(result, err)
	}

	w.metrics.RecordWebhook(string(result.Gateway), string(result.State))
	w.log.Info("gateway callback processed",
		zap.String("gateway", string(result.Gateway)),
		zap.Uint("payment_id", result.PaymentID),
		zap.String("state", string(result.State)),
		zap.String("provider_status", cb.Status),
	)

	if completed != nil {
		w.publishCompleted(ctx, completed, cb)
	}
	return result, nil
}

// validKey fails closed when no key is configured.
func (w *WebhookProcessor) validKey(got string) bool {
	if len(w.confirmationKey) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(w.confirmationKey, []byte(got)) == 1
}

func (w *WebhookProcessor) reject(result *WebhookResult, err error) (*WebhookResult, error) {
	// infrastructure failures are not a verdict on the callback, the
	// provider retries them
	if _, ok := apperrors.As(err); ok {
		result.State = StateRejected
	}
	w.metrics.RecordWebhook(string(result.Gateway), string(result.State))
	w.log.Warn("gateway callback not applied",
		zap.String("gateway", string(result.Gateway)),
		zap.Uint("payment_id", result.PaymentID),
		zap.String("state", string(result.State)),
		zap.Error(err),
	)
	return result, err
}

func (w *WebhookProcessor) publishCompleted(ctx context.Context, p *models.Payment, cb *types.PaymentStatusCallback) {
	chargeID := cb.GatewayPaymentID
	if p.PaymentChargeID != nil {
		chargeID = *p.PaymentChargeID
	}
	evt := events.PaymentCompleted{
		PaymentID:   p.ID,
		CustomerID:  p.UserID,
		Amount:      p.PriceAfterDiscount.Amount.StringFixed(types.Exponent(p.PriceAfterDiscount.Currency)),
		Currency:    p.PriceAfterDiscount.Currency,
		Gateway:     string(cb.GatewayType),
		ChargeID:    chargeID,
		CompletedAt: w.now().UTC(),
	}
	if err := w.publisher.PublishPaymentCompleted(ctx, evt); err != nil {
		w.log.Error("failed to publish payment completed event",
			zap.Uint("payment_id", p.ID),
			zap.Error(err),
		)
	}
}
