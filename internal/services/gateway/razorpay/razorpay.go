// Package razorpay implements INR payments through Razorpay Payment Links.
package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	apperrors "payway/internal/errors"
	"payway/internal/services/gateway/transport"
	"payway/internal/services/gateway/types"

	rzp "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

const eventLinkPaid = "payment_link.paid"

// paymentLinks and payments are the parts of the SDK client in use.
type paymentLinks interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(id string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type payments interface {
	Refund(paymentID string, amount int, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Config struct {
	KeyID           string
	KeySecret       string
	ConfirmationKey string
	Timeout         time.Duration
	Observer        transport.Observer
}

type Adapter struct {
	links           paymentLinks
	payments        payments
	confirmationKey string
	timeout         time.Duration
	observe         transport.Observer
}

func New(cfg Config) *Adapter {
	client := rzp.NewClient(cfg.KeyID, cfg.KeySecret)
	return &Adapter{
		links:           client.PaymentLink,
		payments:        client.Payment,
		confirmationKey: cfg.ConfirmationKey,
		timeout:         cfg.Timeout,
		observe:         cfg.Observer,
	}
}

func (a *Adapter) Type() types.GatewayType {
	return types.GatewayRazorpay
}

func (a *Adapter) CreateCharge(ctx context.Context, req types.ChargeRequest) (*types.ChargeResponse, error) {
	data := map[string]interface{}{
		"amount":          types.ToMinorUnits(req.Amount, req.Currency),
		"currency":        req.Currency,
		"accept_partial":  false,
		"reference_id":    req.OrderID,
		"description":     "Order " + req.OrderID,
		"callback_url":    req.RedirectURL,
		"callback_method": "get",
		"customer": map[string]interface{}{
			"name":    strings.TrimSpace(req.FirstName + " " + req.LastName),
			"contact": "+" + req.PhoneCountryCode + req.PhoneNumber,
		},
		"notify": map[string]interface{}{"sms": false, "email": false},
		"notes": map[string]interface{}{
			"gateway":          string(types.GatewayRazorpay),
			"order_id":         req.OrderID,
			"confirmation_key": a.confirmationKey,
		},
	}

	link, err := a.call(ctx, "create_charge", func() (map[string]interface{}, error) {
		return a.links.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}
	id, _ := link["id"].(string)
	url, _ := link["short_url"].(string)
	if id == "" {
		return nil, errors.New("razorpay: payment link response has no id")
	}
	return &types.ChargeResponse{PaymentURL: url, PaymentID: id}, nil
}

type webhook struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ID          string            `json:"id"`
				Status      string            `json:"status"`
				ReferenceID string            `json:"reference_id"`
				Notes       map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment_link"`
		Payment struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (a *Adapter) ExtractPaymentCallback(raw []byte) (*types.PaymentStatusCallback, error) {
	var w webhook
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayRazorpay), Field: "body", Err: err}
	}
	link := w.Payload.PaymentLink.Entity
	if link.ID == "" {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayRazorpay), Field: "payload.payment_link.entity.id"}
	}
	orderID := link.Notes["order_id"]
	if orderID == "" {
		orderID = link.ReferenceID
	}
	if orderID == "" {
		return nil, &apperrors.CallbackParseError{Gateway: string(types.GatewayRazorpay), Field: "payload.payment_link.entity.reference_id"}
	}
	paymentID := w.Payload.Payment.Entity.ID
	if paymentID == "" {
		paymentID = link.ID
	}
	return &types.PaymentStatusCallback{
		OrderID:          orderID,
		ConfirmationKey:  link.Notes["confirmation_key"],
		Status:           link.Status,
		IsCompleted:      w.Event == eventLinkPaid && link.Status == "paid",
		GatewayType:      types.GatewayRazorpay,
		GatewayPaymentID: paymentID,
	}, nil
}

// RefundPayment accepts a payment id or a payment link id; for a link the
// first captured payment is refunded.
func (a *Adapter) RefundPayment(ctx context.Context, transactionID string, amount decimal.Decimal, currency, reason string) (*types.RefundResponse, error) {
	paymentID := transactionID
	if strings.HasPrefix(transactionID, "plink_") {
		link, err := a.fetchLink(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if paymentID = firstPaymentID(link); paymentID == "" {
			return nil, errors.New("razorpay: payment link has no payments")
		}
	}

	data := map[string]interface{}{
		"notes": map[string]interface{}{"reason": reason},
	}
	refund, err := a.call(ctx, "refund", func() (map[string]interface{}, error) {
		return a.payments.Refund(paymentID, int(types.ToMinorUnits(amount, currency)), data, nil)
	})
	if err != nil {
		return nil, err
	}
	id, _ := refund["id"].(string)
	status, _ := refund["status"].(string)
	return &types.RefundResponse{
		IsSuccess: status != "failed",
		RefundID:  id,
		Status:    status,
	}, nil
}

func (a *Adapter) GetChargeStatus(ctx context.Context, chargeID string) (*types.ChargeStatusResponse, error) {
	link, err := a.fetchLink(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	status, _ := link["status"].(string)
	url, _ := link["short_url"].(string)
	return &types.ChargeStatusResponse{
		Status:     status,
		PaymentURL: url,
		IsPaid:     status == "paid",
	}, nil
}

func (a *Adapter) fetchLink(ctx context.Context, id string) (map[string]interface{}, error) {
	return a.call(ctx, "charge_status", func() (map[string]interface{}, error) {
		return a.links.Fetch(id, nil, nil)
	})
}

type callResult struct {
	body map[string]interface{}
	err  error
}

// call runs a blocking SDK request, giving up when ctx or the configured
// timeout expires first.
func (a *Adapter) call(ctx context.Context, operation string, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan callResult, 1)
	start := time.Now()
	go func() {
		body, err := fn()
		done <- callResult{body: body, err: err}
	}()

	var res callResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = callResult{err: ctx.Err()}
	}

	status := 200
	if res.err != nil {
		status = 0
	}
	if a.observe != nil {
		a.observe(string(types.GatewayRazorpay), operation, status, time.Since(start))
	}
	if res.err != nil {
		return nil, &apperrors.GatewayHTTPError{Gateway: string(types.GatewayRazorpay), Err: res.err}
	}
	return res.body, nil
}

func firstPaymentID(link map[string]interface{}) string {
	list, _ := link["payments"].([]interface{})
	for _, item := range list {
		p, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := p["payment_id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}
