package models_test

import (
	"testing"

	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	kgUnit  = 1
	boxUnit = 2
	pcsUnit = 3
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func factors(pairs map[int]string) models.ConversionTable {
	table := models.ConversionTable{kgUnit: decimal.NewFromInt(1)}
	for unitId, factor := range pairs {
		table[unitId] = dec(factor)
	}
	return table
}

// A batch of 100 kg with a box factor of 10 starts with a 10-box row; selling
// 20 kg must bring the box row to 8 so both rows still describe the same
// physical stock.
func TestRebalanceKeepsCrossUnitViewsConsistent(t *testing.T) {
	rows := []models.StockRowState{
		{UnitId: kgUnit, Quantity: dec("100"), Price: dec("50")},
		{UnitId: boxUnit, Quantity: dec("10"), Price: dec("480")},
	}
	table := factors(map[int]string{boxUnit: "10"})

	updated, err := models.RebalanceStockRows(rows, kgUnit, kgUnit, dec("20"), table)
	require.NoError(t, err)

	require.True(t, updated[0].Quantity.Equal(dec("80")), "kg row: %s", updated[0].Quantity)
	require.True(t, updated[1].Quantity.Equal(dec("8")), "box row: %s", updated[1].Quantity)
	// invariant: qty(box) * factor(box) == qty(kg)
	require.True(t, updated[1].Quantity.Mul(dec("10")).Equal(updated[0].Quantity))
}

func TestRebalanceFromSecondaryUnitUsesLiveRatio(t *testing.T) {
	rows := []models.StockRowState{
		{UnitId: kgUnit, Quantity: dec("100"), Price: dec("50")},
		{UnitId: boxUnit, Quantity: dec("10"), Price: dec("480")},
	}
	table := factors(map[int]string{boxUnit: "10"})

	updated, err := models.RebalanceStockRows(rows, kgUnit, boxUnit, dec("2"), table)
	require.NoError(t, err)

	require.True(t, updated[0].Quantity.Equal(dec("80")), "kg row: %s", updated[0].Quantity)
	require.True(t, updated[1].Quantity.Equal(dec("8")), "box row: %s", updated[1].Quantity)
}

func TestRebalanceThreeUnitsStaysProportional(t *testing.T) {
	rows := []models.StockRowState{
		{UnitId: kgUnit, Quantity: dec("60"), Price: dec("50")},
		{UnitId: boxUnit, Quantity: dec("6"), Price: dec("480")},
		{UnitId: pcsUnit, Quantity: dec("120"), Price: dec("30")},
	}
	table := factors(map[int]string{boxUnit: "10", pcsUnit: "0.5"})

	updated, err := models.RebalanceStockRows(rows, kgUnit, kgUnit, dec("30"), table)
	require.NoError(t, err)

	require.True(t, updated[0].Quantity.Equal(dec("30")))
	require.True(t, updated[1].Quantity.Equal(dec("3")))
	require.True(t, updated[2].Quantity.Equal(dec("60")))
}

func TestRebalanceRejectsOverdraw(t *testing.T) {
	rows := []models.StockRowState{
		{UnitId: kgUnit, Quantity: dec("5"), Price: dec("50")},
		{UnitId: boxUnit, Quantity: dec("0.5"), Price: dec("480")},
	}
	table := factors(map[int]string{boxUnit: "10"})

	_, err := models.RebalanceStockRows(rows, kgUnit, kgUnit, dec("6"), table)
	require.ErrorIs(t, err, utils.ErrorInsufficientStock)
}

func TestRebalanceRejectsDrawAgainstEmptyTargetRow(t *testing.T) {
	rows := []models.StockRowState{
		{UnitId: kgUnit, Quantity: dec("100"), Price: dec("50")},
		{UnitId: boxUnit, Quantity: dec("0"), Price: dec("480")},
	}
	table := factors(map[int]string{boxUnit: "10"})

	_, err := models.RebalanceStockRows(rows, kgUnit, boxUnit, dec("1"), table)
	require.ErrorIs(t, err, utils.ErrorInsufficientStock)
}

// A negative removal restores stock. Restoring into a fully drained batch has
// no live ratio to follow, so the conversion table takes over.
func TestRebalanceRestoreIntoDrainedBatchUsesFactors(t *testing.T) {
	rows := []models.StockRowState{
		{UnitId: kgUnit, Quantity: dec("0"), Price: dec("50")},
		{UnitId: boxUnit, Quantity: dec("0"), Price: dec("480")},
	}
	table := factors(map[int]string{boxUnit: "10"})

	updated, err := models.RebalanceStockRows(rows, kgUnit, kgUnit, dec("-20"), table)
	require.NoError(t, err)

	require.True(t, updated[0].Quantity.Equal(dec("20")), "kg row: %s", updated[0].Quantity)
	require.True(t, updated[1].Quantity.Equal(dec("2")), "box row: %s", updated[1].Quantity)
}

func TestRebalanceRoundTripRestoresOriginalQuantities(t *testing.T) {
	rows := []models.StockRowState{
		{UnitId: kgUnit, Quantity: dec("100"), Price: dec("50")},
		{UnitId: boxUnit, Quantity: dec("10"), Price: dec("480")},
	}
	table := factors(map[int]string{boxUnit: "10"})

	after, err := models.RebalanceStockRows(rows, kgUnit, boxUnit, dec("2"), table)
	require.NoError(t, err)
	restored, err := models.RebalanceStockRows(after, kgUnit, boxUnit, dec("-2"), table)
	require.NoError(t, err)

	require.True(t, restored[0].Quantity.Equal(dec("100")), "kg row: %s", restored[0].Quantity)
	require.True(t, restored[1].Quantity.Equal(dec("10")), "box row: %s", restored[1].Quantity)
}
