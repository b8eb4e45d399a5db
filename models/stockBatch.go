package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockBatch is one receipt/production lot of a product at a location. Batches
// are soft-deleted only: historical sales keep referencing them.
type StockBatch struct {
	ID             int            `gorm:"primary_key" json:"id"`
	ProductId      int            `gorm:"index;not null" json:"product_id"`
	MaintainsId    int            `gorm:"index;not null" json:"maintains_id"`
	BatchNumber    string         `gorm:"size:100;index;not null" json:"batch_number"`
	ProductionDate time.Time      `gorm:"index;not null" json:"production_date"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Stock is the quantity + manual price for one unit within one batch.
type Stock struct {
	ID           int             `gorm:"primary_key" json:"id"`
	StockBatchId int             `gorm:"uniqueIndex:idx_batch_unit;not null" json:"stock_batch_id"`
	UnitId       int             `gorm:"uniqueIndex:idx_batch_unit;not null" json:"unit_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// NewStockEntry declares one tracked unit with its manual price. Prices are
// never derived from each other; they are set per batch per unit.
type NewStockEntry struct {
	UnitId int             `json:"unit_id" binding:"required"`
	Price  decimal.Decimal `json:"price"`
}

type NewStockBatch struct {
	ProductId        int             `json:"product_id" binding:"required"`
	MaintainsId      int             `json:"maintains_id" binding:"required"`
	BatchNumber      string          `json:"batch_number"`
	ProductionDate   time.Time       `json:"production_date"`
	MainUnitQuantity decimal.Decimal `json:"main_unit_quantity" binding:"required"`
	Entries          []NewStockEntry `json:"entries" binding:"required,dive"`
}

func (input *NewStockBatch) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Product](ctx, input.ProductId); err != nil {
		return errors.New("product not found")
	}
	if err := utils.ValidateResourceId[Maintains](ctx, input.MaintainsId); err != nil {
		return errors.New("maintains not found")
	}
	if !input.MainUnitQuantity.IsPositive() {
		return utils.NewValidationError("main_unit_quantity", "must be positive")
	}
	if len(input.Entries) == 0 {
		return utils.NewValidationError("entries", "at least one unit entry is required")
	}
	seen := map[int]bool{}
	for _, entry := range input.Entries {
		if entry.Price.IsNegative() {
			return utils.NewValidationError("price", "must not be negative")
		}
		if seen[entry.UnitId] {
			return utils.NewValidationError("entries", "duplicate unit")
		}
		seen[entry.UnitId] = true
	}
	return nil
}

// CreateStockBatch creates the batch and materializes one stock row per
// declared unit. Row quantities are derived from the main-unit quantity and
// the product's conversion factors so every batch starts consistent; row
// prices come straight from the caller's manual price list.
func CreateStockBatch(ctx context.Context, input *NewStockBatch) (*StockBatch, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	mainUnitId, err := MainUnitOf(tx, input.ProductId)
	if err != nil {
		tx.Rollback()
		return nil, errors.New("product main unit not found")
	}
	hasMain := false
	for _, entry := range input.Entries {
		if entry.UnitId == mainUnitId {
			hasMain = true
		}
	}
	if !hasMain {
		tx.Rollback()
		return nil, utils.NewValidationError("entries", "main unit entry is required")
	}

	batchNumber := input.BatchNumber
	if batchNumber == "" {
		batchNumber = uuid.NewString()
	}
	productionDate := input.ProductionDate
	if productionDate.IsZero() {
		productionDate = time.Now().UTC()
	}

	batch := StockBatch{
		ProductId:      input.ProductId,
		MaintainsId:    input.MaintainsId,
		BatchNumber:    batchNumber,
		ProductionDate: productionDate,
	}
	if err := tx.Create(&batch).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, entry := range input.Entries {
		resolution, err := ConversionFactor(tx, input.ProductId, entry.UnitId)
		if err != nil {
			tx.Rollback()
			return nil, errors.New("unit not found")
		}
		// new stock intake is strict: a declared unit without a conversion
		// factor would seed an inconsistent batch
		if !resolution.Resolved {
			tx.Rollback()
			return nil, utils.NewValidationError("entries", "no conversion factor for unit")
		}
		row := Stock{
			StockBatchId: batch.ID,
			UnitId:       entry.UnitId,
			Quantity:     utils.RoundQuantity(input.MainUnitQuantity.Div(resolution.Factor)),
			Price:        utils.RoundMoney(entry.Price),
		}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// UpsertStockRow adds quantityDelta to the (batch, unit) row, creating the row
// when missing, and sets the manual price.
func UpsertStockRow(tx *gorm.DB, batchId int, unitId int, quantityDelta decimal.Decimal, price decimal.Decimal) (*Stock, error) {

	row := Stock{
		StockBatchId: batchId,
		UnitId:       unitId,
	}
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stock_batch_id = ? AND unit_id = ?", batchId, unitId).
		FirstOrCreate(&row)
	if result.Error != nil {
		return nil, result.Error
	}

	newQuantity := utils.RoundQuantity(row.Quantity.Add(quantityDelta))
	if newQuantity.IsNegative() {
		return nil, utils.ErrorInsufficientStock
	}
	row.Quantity = newQuantity
	row.Price = utils.RoundMoney(price)
	if err := tx.Model(&Stock{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"Quantity": row.Quantity,
		"Price":    row.Price,
	}).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func GetStockRow(tx *gorm.DB, batchId int, unitId int) (*Stock, error) {
	var row Stock
	err := tx.Where("stock_batch_id = ? AND unit_id = ?", batchId, unitId).First(&row).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &row, nil
}

func ListRowsForBatch(tx *gorm.DB, batchId int) ([]Stock, error) {
	var rows []Stock
	err := tx.Where("stock_batch_id = ?", batchId).Order("unit_id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBatchesForProduct returns the product's live batches oldest-first
// (production date, ties by id), optionally scoped to one location.
func ListBatchesForProduct(ctx context.Context, productId int, maintainsId *int) ([]*StockBatch, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("product_id = ?", productId)
	if maintainsId != nil {
		dbCtx = dbCtx.Where("maintains_id = ?", *maintainsId)
	}
	var batches []*StockBatch
	err := dbCtx.Order("production_date, id").Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// LockRowsForBatch fetches every stock row of a batch FOR UPDATE in unit-id
// order. Batches themselves are always processed oldest-first by callers, so
// two concurrent sales acquire row locks in the same global order.
func LockRowsForBatch(tx *gorm.DB, batchId int) ([]Stock, error) {
	var rows []Stock
	// Unscoped: restores must see rows cleanup already soft-deleted.
	err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stock_batch_id = ?", batchId).
		Order("stock_batch_id, unit_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return rows, nil
}

// ApplyStockDelta removes removeQty (in unitId) from a batch, rewriting every
// sibling row through the proportional rebalance so the cross-unit invariant
// holds. Must run inside the caller's transaction; negative removeQty restores
// stock (cancellation path).
func ApplyStockDelta(tx *gorm.DB, batchId int, unitId int, removeQty decimal.Decimal) error {

	var batch StockBatch
	// Unscoped: cancellation may restore stock into an already soft-deleted batch.
	if err := tx.Unscoped().First(&batch, batchId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}

	rows, err := LockRowsForBatch(tx, batchId)
	if err != nil {
		return err
	}

	mainUnitId, err := MainUnitOf(tx, batch.ProductId)
	if err != nil {
		return err
	}
	factors, err := LoadConversionTable(tx, batch.ProductId)
	if err != nil {
		return err
	}

	states := make([]StockRowState, len(rows))
	for i, row := range rows {
		states[i] = StockRowState{UnitId: row.UnitId, Quantity: row.Quantity, Price: row.Price}
	}

	updated, err := RebalanceStockRows(states, mainUnitId, unitId, removeQty, factors)
	if err != nil {
		return err
	}

	for i, row := range rows {
		if updated[i].Quantity.Equal(row.Quantity) {
			continue
		}
		if err := tx.Model(&Stock{}).Where("id = ?", row.ID).
			Update("Quantity", updated[i].Quantity).Error; err != nil {
			return err
		}
	}

	// restoring stock revives a batch cleanup had already retired
	if removeQty.IsNegative() && batch.DeletedAt.Valid {
		if err := tx.Unscoped().Model(&StockBatch{}).Where("id = ?", batchId).
			Update("deleted_at", nil).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Model(&Stock{}).Where("stock_batch_id = ?", batchId).
			Update("deleted_at", nil).Error; err != nil {
			return err
		}
	}
	return nil
}
