package acquisition

import "github.com/shopspring/decimal"

// DeliveryStatus compares a received quantity with what was ordered
type DeliveryStatus string

const (
	DeliveryComplete DeliveryStatus = "COMPLETE"
	DeliveryPartial  DeliveryStatus = "PARTIAL"
	DeliveryExcess   DeliveryStatus = "EXCESS"
)

// String returns the string representation of DeliveryStatus
func (s DeliveryStatus) String() string {
	return string(s)
}

// Delivery is the derived classification of one received item.
// Difference is the shortfall for a partial delivery, the surplus for an
// excess one, and zero when complete.
type Delivery struct {
	Status     DeliveryStatus
	Difference decimal.Decimal
}

// Classify derives the delivery classification of an item
func Classify(ordered, received decimal.Decimal) Delivery {
	switch received.Cmp(ordered) {
	case -1:
		return Delivery{Status: DeliveryPartial, Difference: ordered.Sub(received)}
	case 1:
		return Delivery{Status: DeliveryExcess, Difference: received.Sub(ordered)}
	default:
		return Delivery{Status: DeliveryComplete, Difference: decimal.Zero}
	}
}
