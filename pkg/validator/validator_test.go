package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	ID     uuid.UUID       `validate:"uuid_required"`
	Total  string          `validate:"required,decimal_positive"`
	Fee    decimal.Decimal `validate:"decimal_positive"`
	Due    string          `validate:"required,date"`
	Method string          `validate:"omitempty,oneof=cash pix"`
}

func TestValidateStruct(t *testing.T) {
	ok := sample{ID: uuid.New(), Total: "1.234,56", Fee: decimal.NewFromInt(1), Due: "31/01/2025", Method: "pix"}
	assert.Empty(t, ValidateStruct(&ok))
	assert.NoError(t, Check(&ok))

	bad := sample{Total: "-1", Fee: decimal.Zero, Due: "2025-02-30", Method: "card"}
	errs := ValidateStruct(&bad)

	tags := map[string]string{}
	for _, e := range errs {
		tags[e.FailedField] = e.Tag
	}
	assert.Equal(t, "uuid_required", tags["sample.ID"])
	assert.Equal(t, "decimal_positive", tags["sample.Total"])
	assert.Equal(t, "decimal_positive", tags["sample.Fee"])
	assert.Equal(t, "date", tags["sample.Due"])
	assert.Equal(t, "oneof", tags["sample.Method"])

	assert.ErrorIs(t, Check(&bad), ErrValidation)
}
