package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewDomainErrorf(CodeInsufficientStock, "material %s: need %s", "steel", "10")

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrInvalidQuantity))
	assert.Equal(t, "material steel: need 10", err.Error())
}

func TestDomainError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("complete plan: %w", NewDomainError(CodeInvalidTransition, "plan is not in progress"))

	assert.True(t, errors.Is(wrapped, ErrInvalidTransition))

	var domainErr *DomainError
	assert.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, CodeInvalidTransition, domainErr.Code)
}

func TestRequirePositive(t *testing.T) {
	tests := []struct {
		name    string
		qty     decimal.Decimal
		wantErr bool
	}{
		{"positive", decimal.NewFromInt(1), false},
		{"fraction", decimal.RequireFromString("0.001"), false},
		{"zero", decimal.Zero, true},
		{"negative", decimal.NewFromInt(-5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequirePositive("quantity", tt.qty)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuantity)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireNonNegative(t *testing.T) {
	assert.NoError(t, RequireNonNegative("received", decimal.Zero))
	assert.NoError(t, RequireNonNegative("received", decimal.NewFromInt(3)))
	assert.ErrorIs(t, RequireNonNegative("received", decimal.NewFromInt(-1)), ErrInvalidQuantity)
}

func TestRequireQuantityScale(t *testing.T) {
	tests := []struct {
		name    string
		qty     string
		wantErr bool
	}{
		{"whole", "12", false},
		{"four places", "0.0001", false},
		{"trailing zeros beyond scale", "1.500000", false},
		{"five places", "0.00001", true},
		{"long fraction", "2.123456", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty := decimal.RequireFromString(tt.qty)
			for _, err := range []error{RequirePositive("quantity", qty), RequireNonNegative("quantity", qty)} {
				if tt.wantErr {
					assert.ErrorIs(t, err, ErrInvalidQuantity)
				} else {
					assert.NoError(t, err)
				}
			}
		})
	}
}

func TestScaleQuantity(t *testing.T) {
	assert.Equal(t, "0.0001", ScaleQuantity(decimal.RequireFromString("0.00005")).String())
	assert.Equal(t, "1.2346", ScaleQuantity(decimal.RequireFromString("1.23451")).String())
	assert.Equal(t, "3", ScaleQuantity(decimal.NewFromInt(3)).String())
}

func TestFilterOffset(t *testing.T) {
	assert.Equal(t, 20, Filter{Page: 2, PageSize: 20}.Offset())
	assert.Equal(t, 0, Filter{Page: 0, PageSize: 20}.Offset())
}
