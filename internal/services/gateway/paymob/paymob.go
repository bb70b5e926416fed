// Package paymob implements the Paymob intention (unified checkout) API.
package paymob

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/services/gateway/transport"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL         string
	SecretKey       string
	PublicKey       string
	IntegrationID   int
	ConfirmationKey string
	Timeout         time.Duration
	Observer        transport.Observer
}

// Adapter has no charge lookup; Paymob only reports status through
// callbacks and the redirect query string.
type Adapter struct {
	types.UnimplementedStatus

	client          *transport.Client
	baseURL         string
	publicKey       string
	integrationID   int
	confirmationKey string
}

func New(cfg Config) *Adapter {
	return &Adapter{
		client: transport.New(string(types.GatewayPaymob), cfg.BaseURL, cfg.Timeout,
			transport.WithHeader("Authorization", "Token "+cfg.SecretKey),
			transport.WithObserver(cfg.Observer),
		),
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		publicKey:       cfg.PublicKey,
		integrationID:   cfg.IntegrationID,
		confirmationKey: cfg.ConfirmationKey,
	}
}

func (a *Adapter) Type() types.GatewayType {
	return types.GatewayPaymob
}

type billingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
}

type intentionRequest struct {
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	PaymentMethods   []int             `json:"payment_methods"`
	BillingData      billingData       `json:"billing_data"`
	SpecialReference string            `json:"special_reference"`
	NotificationURL  string            `json:"notification_url"`
	RedirectionURL   string            `json:"redirection_url"`
	Extras           map[string]string `json:"extras"`
}

type intention struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateCharge creates a payment intention. Paymob expects cents.
func (a *Adapter) CreateCharge(ctx context.Context, req types.ChargeRequest) (*types.ChargeResponse, error) {
	lastName := req.LastName
	if lastName == "" {
		lastName = "NA"
	}
	body := intentionRequest{
		Amount:         types.ToMinorUnits(req.Amount, req.Currency),
		Currency:       req.Currency,
		PaymentMethods: []int{a.integrationID},
		BillingData: billingData{
			FirstName:   req.FirstName,
			LastName:    lastName,
			PhoneNumber: "+" + req.PhoneCountryCode + req.PhoneNumber,
			Email:       "NA",
		},
		SpecialReference: req.OrderID,
		NotificationURL:  req.CallbackURL,
		RedirectionURL:   req.RedirectURL,
		Extras: map[string]string{
			"gateway":          string(types.GatewayPaymob),
			"confirmation_key": a.confirmationKey,
		},
	}

	var out intention
	if err := a.client.Do(ctx, "POST", "/v1/intention/", "create_charge", body, &out); err != nil {
		return nil, err
	}
	if out.ClientSecret == "" {
		return nil, errors.New("paymob: intention response has no client secret")
	}

	q := url.Values{}
	q.Set("publicKey", a.publicKey)
	q.Set("clientSecret", out.ClientSecret)
	return &types.ChargeResponse{
		PaymentURL: a.baseURL + "/unifiedcheckout/?" + q.Encode(),
		PaymentID:  out.ID,
	}, nil
}

func (a *Adapter) ExtractPaymentCallback(raw []byte) (*types.PaymentStatusCallback, error) {
	doc, err := types.Decode(raw)
	if err != nil {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayPaymob), Field: "body", Err: err}
	}
	if kind, _ := types.LookupString(doc, "type"); kind != "TRANSACTION" {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayPaymob), Field: "type"}
	}
	txID, ok := types.LookupString(doc, "obj.id")
	if !ok {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayPaymob), Field: "obj.id"}
	}
	orderID, ok := types.LookupString(doc, "obj.order.merchant_order_id")
	if !ok {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayPaymob), Field: "obj.order.merchant_order_id"}
	}
	key, _ := types.LookupString(doc, "obj.payment_key_claims.extra.confirmation_key")
	success, _ := types.LookupString(doc, "obj.success")
	pending, _ := types.LookupString(doc, "obj.pending")

	status := "FAILED"
	switch {
	case pending == "true":
		status = "PENDING"
	case success == "true":
		status = "SUCCESS"
	}
	return &types.PaymentStatusCallback{
		OrderID:          orderID,
		ConfirmationKey:  key,
		Status:           status,
		IsCompleted:      status == "SUCCESS",
		GatewayType:      types.GatewayPaymob,
		GatewayPaymentID: txID,
	}, nil
}

type refundRequest struct {
	TransactionID string `json:"transaction_id"`
	AmountCents   int64  `json:"amount_cents"`
}

type refund struct {
	ID      int64 `json:"id"`
	Success bool  `json:"success"`
	Pending bool  `json:"pending"`
}

// RefundPayment refunds a Paymob transaction id, not the intention id.
func (a *Adapter) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal, currency, _ string) (*types.RefundResponse, error) {
	body := refundRequest{
		TransactionID: transactionID,
		AmountCents:   types.ToMinorUnits(amount, currency),
	}
	var out refund
	if err := a.client.Do(ctx, "POST", "/api/acceptance/void_refund/refund", "refund", body, &out); err != nil {
		return nil, err
	}
	status := "FAILED"
	if out.Pending {
		status = "PENDING"
	} else if out.Success {
		status = "SUCCESS"
	}
	return &types.RefundResponse{
		IsSuccess: out.Success || out.Pending,
		RefundID:  strconv.FormatInt(out.ID, 10),
		Status:    status,
	}, nil
}
