package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendRequest struct {
	Phone   string `json:"phone" validate:"required,phone"`
	Purpose string `json:"purpose" validate:"required,oneof=login register"`
	Amount  string `json:"amount,omitempty" validate:"omitempty,money"`
}

func TestValidateStructOK(t *testing.T) {
	assert.Empty(t, ValidateStruct(sendRequest{Phone: "+966500000000", Purpose: "login", Amount: "10.50"}))
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	errs := ValidateStruct(sendRequest{Phone: "12", Purpose: "pay", Amount: "1.2345"})
	require.Len(t, errs, 3)

	byField := map[string]FieldError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "phone", byField["phone"].Tag)
	assert.Equal(t, "phone must be a valid phone number", byField["phone"].Message)
	assert.Equal(t, "oneof", byField["purpose"].Tag)
	assert.Equal(t, "money", byField["amount"].Tag)
}

func TestValidateStructRequired(t *testing.T) {
	errs := ValidateStruct(sendRequest{})
	require.Len(t, errs, 2)
	assert.Equal(t, "phone is required", errs[0].Message)
}
