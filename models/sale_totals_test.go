package models_test

import (
	"testing"

	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/stretchr/testify/require"
)

func TestTotalWithDiscountFixed(t *testing.T) {
	item := models.NewSaleProduct{
		Quantity:         dec("3"),
		PricePerQuantity: dec("50"),
		Discount:         dec("10"),
		DiscountType:     models.DiscountTypeFixed,
	}
	require.True(t, item.TotalWithDiscount().Equal(dec("140")))
}

func TestTotalWithDiscountPercentage(t *testing.T) {
	item := models.NewSaleProduct{
		Quantity:         dec("2"),
		PricePerQuantity: dec("100"),
		Discount:         dec("15"),
		DiscountType:     models.DiscountTypePercentage,
	}
	require.True(t, item.TotalWithDiscount().Equal(dec("170")))
}

func TestTotalWithDiscountDefaultsToFixed(t *testing.T) {
	item := models.NewSaleProduct{
		Quantity:         dec("1"),
		PricePerQuantity: dec("99.99"),
	}
	require.True(t, item.TotalWithDiscount().Equal(dec("99.99")))
}

func TestPaymentTotalsFoldsDuplicateMethods(t *testing.T) {
	input := models.NewSale{
		PaymentInfo: []models.NewPaymentEntry{
			{Method: models.PaymentMethodCash, Amount: dec("50")},
			{Method: models.PaymentMethodCash, Amount: dec("25")},
			{Method: models.PaymentMethodDue, Amount: dec("30")},
		},
	}
	totals := input.PaymentTotals()
	require.True(t, totals[models.PaymentMethodCash].Equal(dec("75")))
	require.True(t, totals[models.PaymentMethodDue].Equal(dec("30")))
}

func TestTotalPriceWithDiscountSumsLines(t *testing.T) {
	input := models.NewSale{
		Products: []models.NewSaleProduct{
			{Quantity: dec("2"), PricePerQuantity: dec("100"), Discount: dec("10"), DiscountType: models.DiscountTypePercentage},
			{Quantity: dec("1"), PricePerQuantity: dec("40")},
		},
	}
	require.True(t, input.TotalPriceWithDiscount().Equal(dec("220")))
}
