package utils

import "github.com/shopspring/decimal"

// Every component that writes a stock or money value rounds through these two
// helpers so repeated proportional division cannot drift between call sites.
const (
	QuantityPrecision int32 = 3
	MoneyPrecision    int32 = 2
)

func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPrecision)
}

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPrecision)
}

// QuantityIsZero reports whether a stock quantity rounds to zero at the
// quantity precision (used by the empty-batch cleanup).
func QuantityIsZero(d decimal.Decimal) bool {
	return RoundQuantity(d).IsZero()
}

// MoneyEqual compares two amounts within the 0.01 payment tolerance.
func MoneyEqual(a decimal.Decimal, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(decimal.New(1, -MoneyPrecision))
}
