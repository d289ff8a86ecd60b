package service

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/fulfillment/internal/database"
	"github.com/kiwari-pos/fulfillment/internal/enum"
	"github.com/shopspring/decimal"
)

// lineAmounts returns the discount amount and subtotal of one item line.
// Percentage discounts apply to unit_price * quantity; the subtotal never
// goes below zero.
func lineAmounts(unitPrice decimal.Decimal, qty int32, discountType string, discountValue decimal.Decimal) (discount, subtotal decimal.Decimal) {
	gross := unitPrice.Mul(decimal.NewFromInt32(qty))
	switch discountType {
	case enum.DiscountTypePercentage:
		discount = gross.Mul(discountValue).Div(decimal.NewFromInt(100))
	case enum.DiscountTypeFixed:
		discount = discountValue
	default:
		discount = decimal.Zero
	}
	subtotal = gross.Sub(discount)
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	return discount.Round(2), subtotal.Round(2)
}

// itemLineTotal recomputes (quantity × unit_price) − discount from the
// snapshotted columns. The stored subtotal is never trusted.
func itemLineTotal(item database.OrderItem) decimal.Decimal {
	discountType := ""
	if item.DiscountType.Valid {
		discountType = item.DiscountType.String
	}
	_, subtotal := lineAmounts(
		numericToDecimal(item.UnitPrice),
		item.Quantity,
		discountType,
		numericToDecimal(item.DiscountValue),
	)
	return subtotal
}

func isValidDiscountType(s string) bool {
	switch s {
	case enum.DiscountTypePercentage, enum.DiscountTypeFixed:
		return true
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
