package gateway

import (
	"context"
	"testing"

	apperrors "payway/internal/errors"
	"payway/internal/services/gateway/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	types.UnimplementedStatus
	gw types.GatewayType
}

func (s stubAdapter) Type() types.GatewayType { return s.gw }

func (s stubAdapter) CreateCharge(context.Context, types.ChargeRequest) (*types.ChargeResponse, error) {
	return &types.ChargeResponse{}, nil
}

func (s stubAdapter) ExtractPaymentCallback([]byte) (*types.PaymentStatusCallback, error) {
	return &types.PaymentStatusCallback{}, nil
}

func (s stubAdapter) RefundPayment(context.Context, string, decimal.Decimal, string, string) (*types.RefundResponse, error) {
	return &types.RefundResponse{}, nil
}

func newTestFactory() *Factory {
	return NewFactory(nil,
		stubAdapter{gw: types.GatewayTap},
		stubAdapter{gw: types.GatewayPaymob},
		stubAdapter{gw: types.GatewayStripe},
	)
}

func TestSelectByCurrency(t *testing.T) {
	f := newTestFactory()

	gw, err := f.SelectByCurrency("SAR")
	require.NoError(t, err)
	assert.Equal(t, types.GatewayTap, gw)

	gw, err = f.SelectByCurrency("egp")
	require.NoError(t, err)
	assert.Equal(t, types.GatewayPaymob, gw)

	_, err = f.SelectByCurrency("XYZ")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCurrency)
}

func TestSelectByCallback(t *testing.T) {
	f := newTestFactory()
	cases := map[string]types.GatewayType{
		`{"id":"chg_1","metadata":{"udf1":"tap"}}`:                                                  types.GatewayTap,
		`{"type":"TRANSACTION","obj":{"payment_key_claims":{"extra":{"gateway":"paymob"}}}}`:        types.GatewayPaymob,
		`{"type":"checkout.session.completed","data":{"object":{"metadata":{"gateway":"stripe"}}}}`: types.GatewayStripe,
		`{"payload":{"payment_link":{"entity":{"notes":{"gateway":"razorpay"}}}}}`:                  types.GatewayRazorpay,
	}
	for payload, want := range cases {
		got, err := f.SelectByCallback([]byte(payload))
		require.NoError(t, err, payload)
		assert.Equal(t, want, got, payload)
	}

	_, err := f.SelectByCallback([]byte(`{"metadata":{"udf1":"other"}}`))
	assert.ErrorIs(t, err, apperrors.ErrUnknownGateway)

	_, err = f.SelectByCallback([]byte(`garbage`))
	assert.ErrorIs(t, err, apperrors.ErrCallbackParse)
}

func TestCreate(t *testing.T) {
	f := newTestFactory()

	a, err := f.Create(Selector{Currency: "SAR"})
	require.NoError(t, err)
	assert.Equal(t, types.GatewayTap, a.Type())

	a, err = f.Create(Selector{CallbackPayload: []byte(`{"metadata":{"udf1":"tap"}}`)})
	require.NoError(t, err)
	assert.Equal(t, types.GatewayTap, a.Type())

	_, err = f.Create(Selector{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFactoryInput)

	_, err = f.Create(Selector{Currency: "SAR", CallbackPayload: []byte(`{}`)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFactoryInput)

	// INR maps to razorpay, which is not registered here
	_, err = f.Create(Selector{Currency: "INR"})
	assert.ErrorIs(t, err, apperrors.ErrGatewayNotConfigured)
}

func TestCurrencyTableOverride(t *testing.T) {
	f := NewFactory(map[string]types.GatewayType{"sar": types.GatewayStripe}, stubAdapter{gw: types.GatewayStripe})
	gw, err := f.SelectByCurrency("SAR")
	require.NoError(t, err)
	assert.Equal(t, types.GatewayStripe, gw)

	_, err = f.SelectByCurrency("EGP")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCurrency)
	assert.Equal(t, []types.GatewayType{types.GatewayStripe}, f.Gateways())
}

func TestParseRedirect(t *testing.T) {
	ref, err := ParseRedirect(map[string]string{"tap_id": "chg_1"})
	require.NoError(t, err)
	assert.Equal(t, types.GatewayTap, ref.Gateway)
	assert.Equal(t, "chg_1", ref.ChargeID)

	ref, err = ParseRedirect(map[string]string{"id": "192036465", "merchant_order_id": "77", "success": "true", "pending": "false"})
	require.NoError(t, err)
	assert.Equal(t, types.GatewayPaymob, ref.Gateway)
	assert.Equal(t, "77", ref.OrderID)
	require.NotNil(t, ref.Success)
	assert.True(t, *ref.Success)

	_, err = ParseRedirect(map[string]string{"foo": "bar"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownGateway)
}
