package types

import (
	"context"

	apperrors "payway/internal/errors"
)

// UnimplementedStatus can be embedded by adapters whose provider has no
// charge lookup.
type UnimplementedStatus struct{}

func (UnimplementedStatus) GetChargeStatus(context.Context, string) (*ChargeStatusResponse, error) {
	return nil, apperrors.ErrNotImplemented
}
