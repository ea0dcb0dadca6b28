package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kobo is an amount in the smallest naira unit. Paystack expects and returns
// amounts in kobo.
type Kobo int64

var koboPerNaira = decimal.NewFromInt(100)

// KoboFromNaira converts a naira amount with at most two decimal places.
func KoboFromNaira(naira decimal.Decimal) (Kobo, error) {
	if naira.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, naira.String())
	}
	kobo := naira.Mul(koboPerNaira)
	if !kobo.Equal(kobo.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, naira.String())
	}
	return Kobo(kobo.IntPart()), nil
}

// ParseNaira parses a decimal string such as "12500.50".
func ParseNaira(s string) (Kobo, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return KoboFromNaira(d)
}

func (k Kobo) Naira() decimal.Decimal {
	return decimal.NewFromInt(int64(k)).Div(koboPerNaira)
}

func (k Kobo) String() string {
	return k.Naira().StringFixed(2)
}
