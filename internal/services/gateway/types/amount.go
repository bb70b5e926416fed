package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zero and three decimal currencies, everything else uses two.
var minorUnitExponent = map[string]int32{
	"JPY": 0, "KRW": 0,
	"KWD": 3, "BHD": 3, "OMR": 3, "JOD": 3, "TND": 3,
}

// Exponent returns the number of minor unit digits of a currency.
func Exponent(currency string) int32 {
	if e, ok := minorUnitExponent[strings.ToUpper(currency)]; ok {
		return e
	}
	return 2
}

// FitsCurrency reports whether amount has no more decimals than the
// currency's minor unit, e.g. 10.005 fits KWD but not SAR.
func FitsCurrency(amount decimal.Decimal, currency string) bool {
	return amount.Equal(amount.Round(Exponent(currency)))
}

// ToMinorUnits converts a major unit amount, e.g. 100.50 EGP -> 10050.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(Exponent(currency)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -Exponent(currency))
}
