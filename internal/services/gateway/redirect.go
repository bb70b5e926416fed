package gateway

import (
	apperrors "payway/internal/errors"
	"payway/internal/services/gateway/types"
)

// RedirectRef is what the provider tells us when sending the payer back.
type RedirectRef struct {
	Gateway  types.GatewayType
	ChargeID string
	// OrderID is only known for providers that echo it (Paymob).
	OrderID string
	// Success is the provider's own verdict when it sends one.
	Success *bool
}

// ParseRedirect maps provider specific query parameters to a charge.
func ParseRedirect(query map[string]string) (*RedirectRef, error) {
	switch {
	case query["tap_id"] != "":
		return &RedirectRef{Gateway: types.GatewayTap, ChargeID: query["tap_id"]}, nil
	case query["session_id"] != "":
		return &RedirectRef{Gateway: types.GatewayStripe, ChargeID: query["session_id"]}, nil
	case query["razorpay_payment_link_id"] != "":
		ref := &RedirectRef{Gateway: types.GatewayRazorpay, ChargeID: query["razorpay_payment_link_id"]}
		if status := query["razorpay_payment_link_status"]; status != "" {
			paid := status == "paid"
			ref.Success = &paid
		}
		return ref, nil
	case query["merchant_order_id"] != "" && query["id"] != "":
		ok := query["success"] == "true" && query["pending"] != "true"
		return &RedirectRef{
			Gateway:  types.GatewayPaymob,
			ChargeID: query["id"],
			OrderID:  query["merchant_order_id"],
			Success:  &ok,
		}, nil
	}
	return nil, apperrors.ErrUnknownGateway
}
