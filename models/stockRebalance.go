package models

import (
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
)

// StockRowState is the in-memory shape of one batch stock row, used by the
// pure rebalance and allocation functions so they can be tested without
// persistence.
type StockRowState struct {
	UnitId   int
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// RebalanceStockRows removes removeQty (expressed in unitId) from a batch and
// returns every row decremented proportionally, so that
// quantity(U) * factor(U) stays equal across all units of the batch.
//
// removeQty may be negative to restore stock (payment cancellation). Ratios
// are derived from the live rows; when a live ratio is undefined (a row
// already at zero, e.g. restoring into a fully drained batch) the conversion
// factors are used instead, with the lenient identity fallback for factors
// that are missing from the table.
//
// The function is pure: rows is not mutated, the returned slice preserves the
// input order, and all quantities are rounded to the quantity precision.
func RebalanceStockRows(rows []StockRowState, mainUnitId int, unitId int, removeQty decimal.Decimal, factors ConversionTable) ([]StockRowState, error) {

	var mainStock, targetStock decimal.Decimal
	mainFound, targetFound := false, false
	for _, row := range rows {
		if row.UnitId == mainUnitId {
			mainStock = row.Quantity
			mainFound = true
		}
		if row.UnitId == unitId {
			targetStock = row.Quantity
			targetFound = true
		}
	}
	if !mainFound || !targetFound {
		return nil, utils.ErrorRecordNotFound
	}

	removing := removeQty.IsPositive()
	if removing && !targetStock.IsPositive() {
		// dividing by a zero target is exactly the over-sell case
		return nil, utils.ErrorInsufficientStock
	}

	factorFor := func(id int) decimal.Decimal {
		if factors != nil {
			if f, ok := factors[id]; ok && f.IsPositive() {
				return f
			}
		}
		return decimal.NewFromInt(1)
	}

	// deltaInMain = removeQty * (mainStock / targetStock); the live ratio
	// equals the conversion factor whenever the batch is consistent.
	var deltaInMain decimal.Decimal
	switch {
	case unitId == mainUnitId:
		deltaInMain = removeQty
	case targetStock.IsPositive():
		deltaInMain = removeQty.Mul(mainStock).Div(targetStock)
	default:
		deltaInMain = removeQty.Mul(factorFor(unitId))
	}

	result := make([]StockRowState, len(rows))
	for i, row := range rows {
		updated := row
		switch {
		case row.UnitId == unitId:
			updated.Quantity = utils.RoundQuantity(row.Quantity.Sub(removeQty))
		case row.UnitId == mainUnitId:
			updated.Quantity = utils.RoundQuantity(mainStock.Sub(deltaInMain))
		case row.Quantity.IsPositive() && mainStock.IsPositive():
			deltaV := deltaInMain.Mul(row.Quantity).Div(mainStock)
			updated.Quantity = utils.RoundQuantity(row.Quantity.Sub(deltaV))
		default:
			deltaV := deltaInMain.Div(factorFor(row.UnitId))
			updated.Quantity = utils.RoundQuantity(row.Quantity.Sub(deltaV))
		}
		if updated.Quantity.IsNegative() {
			return nil, utils.ErrorInsufficientStock
		}
		result[i] = updated
	}
	return result, nil
}
