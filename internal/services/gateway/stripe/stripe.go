// Package stripe implements card payments through Stripe Checkout
// Sessions.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/services/gateway/transport"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
	stripelib "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

const (
	eventSessionCompleted      = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

type Config struct {
	BaseURL         string
	SecretKey       string
	ConfirmationKey string
	Timeout         time.Duration
	Observer        transport.Observer
}

type Adapter struct {
	api             *client.API
	confirmationKey string
	observe         transport.Observer
}

func New(cfg Config) *Adapter {
	backendCfg := &stripelib.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripelib.Int64(0),
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripelib.String(cfg.BaseURL)
	}
	return &Adapter{
		api: client.New(cfg.SecretKey, &stripelib.Backends{
			API:     stripelib.GetBackendWithConfig(stripelib.APIBackend, backendCfg),
			Connect: stripelib.GetBackendWithConfig(stripelib.ConnectBackend, backendCfg),
			Uploads: stripelib.GetBackendWithConfig(stripelib.UploadsBackend, backendCfg),
		}),
		confirmationKey: cfg.ConfirmationKey,
		observe:         cfg.Observer,
	}
}

func (a *Adapter) Type() types.GatewayType {
	return types.GatewayStripe
}

func (a *Adapter) CreateCharge(ctx context.Context, req types.ChargeRequest) (*types.ChargeResponse, error) {
	params := &stripelib.CheckoutSessionParams{
		Mode:               stripelib.String(string(stripelib.CheckoutSessionModePayment)),
		SuccessURL:         stripelib.String(withSessionID(req.RedirectURL)),
		CancelURL:          stripelib.String(withSessionID(req.RedirectURL)),
		ClientReferenceID:  stripelib.String(req.OrderID),
		PaymentMethodTypes: stripelib.StringSlice([]string{"card"}),
		LineItems: []*stripelib.CheckoutSessionLineItemParams{{
			PriceData: &stripelib.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripelib.String(strings.ToLower(req.Currency)),
				UnitAmount: stripelib.Int64(types.ToMinorUnits(req.Amount, req.Currency)),
				ProductData: &stripelib.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripelib.String("Order " + req.OrderID),
				},
			},
			Quantity: stripelib.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata("gateway", string(types.GatewayStripe))
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("confirmation_key", a.confirmationKey)

	start := time.Now()
	sess, err := a.api.CheckoutSessions.New(params)
	a.record("create_charge", start, err)
	if err != nil {
		return nil, wrapError(err)
	}
	return &types.ChargeResponse{PaymentURL: sess.URL, PaymentID: sess.ID}, nil
}

// ExtractPaymentCallback parses a checkout.session.* webhook event.
func (a *Adapter) ExtractPaymentCallback(raw []byte) (*types.PaymentStatusCallback, error) {
	var event stripelib.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayStripe), Field: "body", Err: err}
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayStripe), Field: "data.object"}
	}
	var sess stripelib.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayStripe), Field: "data.object", Err: err}
	}

	orderID := sess.Metadata["order_id"]
	if orderID == "" {
		orderID = sess.ClientReferenceID
	}
	if orderID == "" {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayStripe), Field: "data.object.metadata.order_id"}
	}

	paymentID := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		paymentID = sess.PaymentIntent.ID
	}
	paid := sess.PaymentStatus == stripelib.CheckoutSessionPaymentStatusPaid
	return &types.PaymentStatusCallback{
		OrderID:          orderID,
		ConfirmationKey:  sess.Metadata["confirmation_key"],
		Status:           event.Type,
		IsCompleted:      paid && (event.Type == eventSessionCompleted || event.Type == eventAsyncPaymentSucceeded),
		GatewayType:      types.GatewayStripe,
		GatewayPaymentID: paymentID,
	}, nil
}

// RefundPayment accepts either a payment intent or a checkout session id.
func (a *Adapter) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal, currency, reason string) (*types.RefundResponse, error) {
	paymentIntent := transactionID
	if strings.HasPrefix(transactionID, "cs_") {
		sess, err := a.getSession(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
			return nil, errors.New("stripe: checkout session has no payment intent")
		}
		paymentIntent = sess.PaymentIntent.ID
	}

	params := &stripelib.RefundParams{
		PaymentIntent: stripelib.String(paymentIntent),
		Amount:        stripelib.Int64(types.ToMinorUnits(amount, currency)),
	}
	params.Context = ctx
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	start := time.Now()
	refund, err := a.api.Refunds.New(params)
	a.record("refund", start, err)
	if err != nil {
		return nil, wrapError(err)
	}
	return &types.RefundResponse{
		IsSuccess: refund.Status == stripelib.RefundStatusSucceeded || refund.Status == stripelib.RefundStatusPending,
		RefundID:  refund.ID,
		Status:    string(refund.Status),
	}, nil
}

func (a *Adapter) GetChargeStatus(ctx context.Context, chargeID string) (*types.ChargeStatusResponse, error) {
	sess, err := a.getSession(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	return &types.ChargeStatusResponse{
		Status:     string(sess.PaymentStatus),
		PaymentURL: sess.URL,
		IsPaid:     sess.PaymentStatus == stripelib.CheckoutSessionPaymentStatusPaid,
	}, nil
}

func (a *Adapter) getSession(ctx context.Context, id string) (*stripelib.CheckoutSession, error) {
	params := &stripelib.CheckoutSessionParams{}
	params.Context = ctx

	start := time.Now()
	sess, err := a.api.CheckoutSessions.Get(id, params)
	a.record("charge_status", start, err)
	if err != nil {
		return nil, wrapError(err)
	}
	return sess, nil
}

func (a *Adapter) record(operation string, start time.Time, err error) {
	if a.observe == nil {
		return
	}
	status := http.StatusOK
	if err != nil {
		status = 0
		var se *stripelib.Error
		if errors.As(err, &se) {
			status = se.HTTPStatusCode
		}
	}
	a.observe(string(types.GatewayStripe), operation, status, time.Since(start))
}

func wrapError(err error) error {
	var se *stripelib.Error
	if errors.As(err, &se) {
		return &apperrors.GatewayHTTPError{
			Gateway:    string(types.GatewayStripe),
			StatusCode: se.HTTPStatusCode,
			Body:       se.Msg,
		}
	}
	return &apperrors.GatewayHTTPError{Gateway: string(types.GatewayStripe), Err: err}
}

func withSessionID(redirectURL string) string {
	sep := "?"
	if strings.Contains(redirectURL, "?") {
		sep = "&"
	}
	return redirectURL + sep + "session_id={CHECKOUT_SESSION_ID}"
}
