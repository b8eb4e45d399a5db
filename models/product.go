package models

import (
	"context"
	"errors"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID                int             `gorm:"primary_key" json:"id"`
	Name              string          `gorm:"size:100;index;not null" json:"name" binding:"required"`
	MainUnitId        int             `gorm:"index;not null" json:"main_unit_id" binding:"required"`
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"low_stock_threshold"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name              string          `json:"name" binding:"required"`
	MainUnitId        int             `json:"main_unit_id" binding:"required"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, id); err != nil {
		return err
	}
	// main-unit reference, once set, must resolve to an existing unit
	if err := utils.ValidateResourceId[Unit](ctx, input.MainUnitId); err != nil {
		return errors.New("main unit not found")
	}
	if input.LowStockThreshold.IsNegative() {
		return utils.NewValidationError("low_stock_threshold", "must not be negative")
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Name:              input.Name,
		MainUnitId:        input.MainUnitId,
		LowStockThreshold: input.LowStockThreshold,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&product).Updates(map[string]interface{}{
		"Name":              input.Name,
		"MainUnitId":        input.MainUnitId,
		"LowStockThreshold": input.LowStockThreshold,
	}).Error
	if err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

func GetProducts(ctx context.Context, name *string) ([]*Product, error) {

	db := config.GetDB()
	var results []*Product

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
