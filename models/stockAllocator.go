package models

import (
	"sort"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BatchStock is one candidate batch for allocation: its stock row quantity in
// the requested unit plus the ordering key.
type BatchStock struct {
	StockBatchId   int
	ProductionDate time.Time
	Available      decimal.Decimal
}

// Allocation is one draw against a batch, in the requested unit.
type Allocation struct {
	StockBatchId  int             `json:"stock_batch_id"`
	QuantityTaken decimal.Decimal `json:"quantity_taken"`
}

// AllocateFIFO drains candidate batches oldest-first (production date, ties by
// batch id) until required is satisfied. Ordering is a named policy here, not
// an incidental query order. Returns ErrorInsufficientStock when the candidates
// jointly cannot cover the requirement.
func AllocateFIFO(batches []BatchStock, required decimal.Decimal) ([]Allocation, error) {
	if !required.IsPositive() {
		return nil, utils.NewValidationError("quantity", "must be positive")
	}

	sorted := make([]BatchStock, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ProductionDate.Equal(sorted[j].ProductionDate) {
			return sorted[i].ProductionDate.Before(sorted[j].ProductionDate)
		}
		return sorted[i].StockBatchId < sorted[j].StockBatchId
	})

	remaining := required
	allocations := make([]Allocation, 0, len(sorted))
	for _, batch := range sorted {
		if !batch.Available.IsPositive() {
			continue
		}
		take := decimal.Min(batch.Available, remaining)
		allocations = append(allocations, Allocation{
			StockBatchId:  batch.StockBatchId,
			QuantityTaken: utils.RoundQuantity(take),
		})
		remaining = remaining.Sub(take)
		if !remaining.IsPositive() {
			return allocations, nil
		}
	}
	return nil, utils.ErrorInsufficientStock
}

// AllocateFromBatch pins the allocation to one batch: no spillover, the batch
// alone must cover the requirement.
func AllocateFromBatch(batch BatchStock, required decimal.Decimal) ([]Allocation, error) {
	if !required.IsPositive() {
		return nil, utils.NewValidationError("quantity", "must be positive")
	}
	if batch.Available.LessThan(required) {
		return nil, utils.ErrorInsufficientStock
	}
	return []Allocation{{StockBatchId: batch.StockBatchId, QuantityTaken: utils.RoundQuantity(required)}}, nil
}

// PlanAllocation loads the candidate batches for (product, maintains, unit)
// and runs the FIFO policy, or the pinned variant when pinnedBatchId is set.
// It reads without row locks: the proportional mutator re-locks and
// re-validates inside the transaction, so a plan is only a plan -- calling it
// twice without a mutation in between yields the same result.
func PlanAllocation(tx *gorm.DB, productId int, maintainsId int, unitId int, required decimal.Decimal, pinnedBatchId *int) ([]Allocation, error) {

	candidates, err := loadBatchStocks(tx, productId, maintainsId, unitId, pinnedBatchId)
	if err != nil {
		return nil, err
	}

	if pinnedBatchId != nil {
		if len(candidates) == 0 {
			return nil, utils.ErrorRecordNotFound
		}
		return AllocateFromBatch(candidates[0], required)
	}
	return AllocateFIFO(candidates, required)
}

func loadBatchStocks(tx *gorm.DB, productId int, maintainsId int, unitId int, pinnedBatchId *int) ([]BatchStock, error) {
	type row struct {
		StockBatchId   int
		ProductionDate time.Time
		Quantity       decimal.Decimal
	}
	var rows []row

	dbCtx := tx.Table("stocks").
		Select("stocks.stock_batch_id, stock_batches.production_date, stocks.quantity").
		Joins("JOIN stock_batches ON stock_batches.id = stocks.stock_batch_id").
		Where("stock_batches.product_id = ? AND stock_batches.maintains_id = ? AND stocks.unit_id = ?", productId, maintainsId, unitId).
		Where("stock_batches.deleted_at IS NULL AND stocks.deleted_at IS NULL")
	if pinnedBatchId != nil {
		dbCtx = dbCtx.Where("stocks.stock_batch_id = ?", *pinnedBatchId)
	}
	if err := dbCtx.Order("stock_batches.production_date, stock_batches.id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	batchStocks := make([]BatchStock, len(rows))
	for i, r := range rows {
		batchStocks[i] = BatchStock{
			StockBatchId:   r.StockBatchId,
			ProductionDate: r.ProductionDate,
			Available:      r.Quantity,
		}
	}
	return batchStocks, nil
}
