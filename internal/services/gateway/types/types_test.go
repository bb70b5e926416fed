package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"100.00", "SAR", 10000},
		{"100.5", "egp", 10050},
		{"1.234", "KWD", 1234},
		{"500", "JPY", 500},
		{"0.005", "USD", 1},
	}
	for _, tc := range cases {
		got := ToMinorUnits(decimal.RequireFromString(tc.amount), tc.currency)
		assert.Equal(t, tc.want, got, "%s %s", tc.amount, tc.currency)
	}
	assert.True(t, FromMinorUnits(10050, "EGP").Equal(decimal.RequireFromString("100.5")))
}

func TestLookupString(t *testing.T) {
	doc, err := Decode([]byte(`{"obj":{"id":123456789012,"order":{"merchant_order_id":"42"},"success":true}}`))
	require.NoError(t, err)

	id, ok := LookupString(doc, "obj.id")
	assert.True(t, ok)
	assert.Equal(t, "123456789012", id)

	order, ok := LookupString(doc, "obj.order.merchant_order_id")
	assert.True(t, ok)
	assert.Equal(t, "42", order)

	_, ok = LookupString(doc, "obj.missing.path")
	assert.False(t, ok)
}
