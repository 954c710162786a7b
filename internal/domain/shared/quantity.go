package shared

import "github.com/shopspring/decimal"

// QuantityScale is the number of fractional digits every quantity and cost
// column stores. Finer values would be rounded by the database.
const QuantityScale int32 = 4

// RequirePositive returns an INVALID_QUANTITY error unless qty > 0 and fits QuantityScale
func RequirePositive(field string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return NewDomainErrorf(CodeInvalidQuantity, "%s must be greater than zero, got %s", field, qty.String())
	}
	return requireScale(field, qty)
}

// RequireNonNegative returns an INVALID_QUANTITY error if qty < 0 or is finer than QuantityScale
func RequireNonNegative(field string, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return NewDomainErrorf(CodeInvalidQuantity, "%s cannot be negative, got %s", field, qty.String())
	}
	return requireScale(field, qty)
}

// ScaleQuantity rounds a derived quantity up to QuantityScale, so a scaled
// requirement never consumes less than it computes to
func ScaleQuantity(qty decimal.Decimal) decimal.Decimal {
	return qty.RoundCeil(QuantityScale)
}

func requireScale(field string, qty decimal.Decimal) error {
	if !qty.Equal(qty.Truncate(QuantityScale)) {
		return NewDomainErrorf(CodeInvalidQuantity, "%s allows at most %d decimal places, got %s", field, QuantityScale, qty.String())
	}
	return nil
}
