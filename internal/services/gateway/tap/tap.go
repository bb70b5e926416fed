// Package tap implements the Tap Payments charges API.
package tap

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/services/gateway/transport"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
)

const (
	StatusCaptured = "CAPTURED"

	// metadata slots echoed back in the charge callback
	gatewayField = "udf1"
	keyField     = "udf2"
)

type Config struct {
	BaseURL         string
	SecretKey       string
	ConfirmationKey string
	Timeout         time.Duration
	Observer        transport.Observer
}

type Adapter struct {
	client          *transport.Client
	confirmationKey string
}

func New(cfg Config) *Adapter {
	return &Adapter{
		client: transport.New(string(types.GatewayTap), cfg.BaseURL, cfg.Timeout,
			transport.WithHeader("Authorization", "Bearer "+cfg.SecretKey),
			transport.WithObserver(cfg.Observer),
		),
		confirmationKey: cfg.ConfirmationKey,
	}
}

func (a *Adapter) Type() types.GatewayType {
	return types.GatewayTap
}

type phone struct {
	CountryCode string `json:"country_code"`
	Number      string `json:"number"`
}

type customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Phone     phone  `json:"phone"`
}

type urlRef struct {
	URL string `json:"url"`
}

type chargeRequest struct {
	Amount            json.Number       `json:"amount"`
	Currency          string            `json:"currency"`
	CustomerInitiated bool              `json:"customer_initiated"`
	ThreeDSecure      bool              `json:"threeDSecure"`
	Customer          customer          `json:"customer"`
	Source            source            `json:"source"`
	Post              urlRef            `json:"post"`
	Redirect          urlRef            `json:"redirect"`
	Reference         reference         `json:"reference"`
	Metadata          map[string]string `json:"metadata"`
}

type source struct {
	ID string `json:"id"`
}

type reference struct {
	Order string `json:"order"`
}

type charge struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Reference   reference         `json:"reference"`
	Metadata    map[string]string `json:"metadata"`
	Transaction urlRef            `json:"transaction"`
}

// CreateCharge posts a charge in major units and returns the hosted
// payment page.
func (a *Adapter) CreateCharge(ctx context.Context, req types.ChargeRequest) (*types.ChargeResponse, error) {
	body := chargeRequest{
		Amount:            json.Number(req.Amount.StringFixed(types.Exponent(req.Currency))),
		Currency:          req.Currency,
		CustomerInitiated: true,
		ThreeDSecure:      true,
		Customer: customer{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     phone{CountryCode: req.PhoneCountryCode, Number: req.PhoneNumber},
		},
		Post:      urlRef{URL: req.CallbackURL},
		Redirect:  urlRef{URL: req.RedirectURL},
		Reference: reference{Order: req.OrderID},
		Source:    source{ID: "src_all"},
		Metadata: map[string]string{
			gatewayField: string(types.GatewayTap),
			keyField:     a.confirmationKey,
		},
	}

	var out charge
	if err := a.client.Do(ctx, "POST", "/v2/charges", "create_charge", body, &out); err != nil {
		return nil, err
	}
	return &types.ChargeResponse{PaymentURL: out.Transaction.URL, PaymentID: out.ID}, nil
}

func (a *Adapter) ExtractPaymentCallback(raw []byte) (*types.PaymentStatusCallback, error) {
	var c charge
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayTap), Field: "body", Err: err}
	}
	if c.ID == "" {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayTap), Field: "id"}
	}
	if c.Reference.Order == "" {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayTap), Field: "reference.order"}
	}
	return &types.PaymentStatusCallback{
		OrderID:          c.Reference.Order,
		ConfirmationKey:  c.Metadata[keyField],
		Status:           c.Status,
		IsCompleted:      c.Status == StatusCaptured,
		GatewayType:      types.GatewayTap,
		GatewayPaymentID: c.ID,
	}, nil
}

type refundRequest struct {
	ChargeID string      `json:"charge_id"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Reason   string      `json:"reason"`
}

type refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (a *Adapter) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal, currency, reason string) (*types.RefundResponse, error) {
	if transactionID == "" {
		return nil, errors.New("tap: refund requires a charge id")
	}
	body := refundRequest{
		ChargeID: transactionID,
		Amount:   json.Number(amount.StringFixed(types.Exponent(currency))),
		Currency: currency,
		Reason:   reason,
	}
	var out refund
	if err := a.client.Do(ctx, "POST", "/v2/refunds", "refund", body, &out); err != nil {
		return nil, err
	}
	return &types.RefundResponse{
		IsSuccess: out.Status != "FAILED" && out.Status != "CANCELLED",
		RefundID:  out.ID,
		Status:    out.Status,
	}, nil
}

func (a *Adapter) GetChargeStatus(ctx context.Context, chargeID string) (*types.ChargeStatusResponse, error) {
	var out charge
	if err := a.client.Do(ctx, "GET", "/v2/charges/"+url.PathEscape(chargeID), "charge_status", nil, &out); err != nil {
		return nil, err
	}
	return &types.ChargeStatusResponse{
		Status:     out.Status,
		PaymentURL: out.Transaction.URL,
		IsPaid:     out.Status == StatusCaptured,
	}, nil
}
