package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundQuantity(t *testing.T) {
	d := decimal.RequireFromString("1.23456")
	require.Equal(t, "1.235", RoundQuantity(d).String())
}

func TestRoundMoney(t *testing.T) {
	d := decimal.RequireFromString("99.995")
	require.Equal(t, "100", RoundMoney(d).String())
}

func TestQuantityIsZeroAtPrecision(t *testing.T) {
	require.True(t, QuantityIsZero(decimal.RequireFromString("0.0004")))
	require.False(t, QuantityIsZero(decimal.RequireFromString("0.001")))
}

func TestMoneyEqualTolerance(t *testing.T) {
	a := decimal.RequireFromString("100.00")
	require.True(t, MoneyEqual(a, decimal.RequireFromString("100.01")))
	require.False(t, MoneyEqual(a, decimal.RequireFromString("100.02")))
}
