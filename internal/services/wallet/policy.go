package wallet

import (
	"fmt"
	"strings"

	"payway/internal/models"

	"github.com/shopspring/decimal"
)

// NegativeBalancePolicy decides whether a debit may leave a wallet below
// zero.
type NegativeBalancePolicy string

const (
	AllowAll                  NegativeBalancePolicy = "allow_all"
	DebitFloorZeroExceptFines NegativeBalancePolicy = "floor_zero_except_fines"
	RejectAll                 NegativeBalancePolicy = "reject_all"
)

// ParsePolicy accepts the names used in WALLET_NEGATIVE_POLICY. An empty
// value selects DebitFloorZeroExceptFines.
func ParsePolicy(s string) (NegativeBalancePolicy, error) {
	switch p := NegativeBalancePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DebitFloorZeroExceptFines, nil
	case AllowAll, DebitFloorZeroExceptFines, RejectAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown negative balance policy %q", s)
	}
}

// Allows reports whether an entry of amount and type may move the balance
// from current to current+amount. Credits are always allowed.
func (p NegativeBalancePolicy) Allows(current, amount decimal.Decimal, txType models.TransactionType) bool {
	if !amount.IsNegative() {
		return true
	}
	if !current.Add(amount).IsNegative() {
		return true
	}
	switch p {
	case AllowAll:
		return true
	case DebitFloorZeroExceptFines:
		return txType == models.TransactionFine
	default:
		return false
	}
}
