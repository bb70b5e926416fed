// Package gateway selects the payment gateway adapter for a charge or an
// inbound callback.
package gateway

import (
	"sort"
	"strings"

	apperrors "payway/internal/errors"
	"payway/internal/services/gateway/types"
)

// DefaultCurrencyTable is the static currency to gateway mapping.
func DefaultCurrencyTable() map[string]types.GatewayType {
	return map[string]types.GatewayType{
		"SAR": types.GatewayTap,
		"KWD": types.GatewayTap,
		"AED": types.GatewayTap,
		"BHD": types.GatewayTap,
		"QAR": types.GatewayTap,
		"OMR": types.GatewayTap,
		"EGP": types.GatewayPaymob,
		"USD": types.GatewayStripe,
		"EUR": types.GatewayStripe,
		"GBP": types.GatewayStripe,
		"INR": types.GatewayRazorpay,
	}
}

// callbackMarkers are the metadata fields each adapter embeds at charge
// creation and the provider echoes back in its callback.
var callbackMarkers = []struct {
	path    string
	gateway types.GatewayType
}{
	{"metadata.udf1", types.GatewayTap},
	{"obj.payment_key_claims.extra.gateway", types.GatewayPaymob},
	{"data.object.metadata.gateway", types.GatewayStripe},
	{"payload.payment_link.entity.notes.gateway", types.GatewayRazorpay},
}

type Factory struct {
	currencies map[string]types.GatewayType
	adapters   map[types.GatewayType]types.Adapter
}

// NewFactory registers the configured adapters. A nil currency table
// selects DefaultCurrencyTable.
func NewFactory(currencies map[string]types.GatewayType, adapters ...types.Adapter) *Factory {
	if currencies == nil {
		currencies = DefaultCurrencyTable()
	}
	f := &Factory{
		currencies: make(map[string]types.GatewayType, len(currencies)),
		adapters:   make(map[types.GatewayType]types.Adapter, len(adapters)),
	}
	for cur, gw := range currencies {
		f.currencies[strings.ToUpper(cur)] = gw
	}
	for _, a := range adapters {
		f.adapters[a.Type()] = a
	}
	return f
}

func (f *Factory) SelectByCurrency(currency string) (types.GatewayType, error) {
	gw, ok := f.currencies[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		return "", apperrors.ErrUnsupportedCurrency
	}
	return gw, nil
}

func (f *Factory) SelectByCallback(raw []byte) (types.GatewayType, error) {
	doc, err := types.Decode(raw)
	if err != nil {
		return "", &apperrors.CallbackParseError{Gateway: "unknown", Field: "body", Err: err}
	}
	for _, m := range callbackMarkers {
		if v, ok := types.LookupString(doc, m.path); ok && types.GatewayType(v) == m.gateway {
			return m.gateway, nil
		}
	}
	return "", apperrors.ErrUnknownGateway
}

// Selector carries exactly one of Currency or CallbackPayload.
type Selector struct {
	Currency        string
	CallbackPayload []byte
}

func (f *Factory) Create(sel Selector) (types.Adapter, error) {
	hasCurrency := strings.TrimSpace(sel.Currency) != ""
	hasPayload := len(sel.CallbackPayload) > 0
	if hasCurrency == hasPayload {
		return nil, apperrors.ErrInvalidFactoryInput
	}

	var (
		gw  types.GatewayType
		err error
	)
	if hasCurrency {
		gw, err = f.SelectByCurrency(sel.Currency)
	} else {
		gw, err = f.SelectByCallback(sel.CallbackPayload)
	}
	if err != nil {
		return nil, err
	}
	return f.Adapter(gw)
}

func (f *Factory) Adapter(gw types.GatewayType) (types.Adapter, error) {
	a, ok := f.adapters[gw]
	if !ok {
		return nil, apperrors.ErrGatewayNotConfigured
	}
	return a, nil
}

// Gateways lists the configured adapters.
func (f *Factory) Gateways() []types.GatewayType {
	out := make([]types.GatewayType, 0, len(f.adapters))
	for gw := range f.adapters {
		out = append(out, gw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
