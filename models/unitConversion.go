package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UnitConversion maps one (product, unit) pair to its factor against the
// product's main unit: quantityInMainUnit = quantity * Factor, so a box worth
// 10 kg carries Factor 10 for a kg-main product. The main unit itself has an
// implicit factor of 1 and never gets a row.
type UnitConversion struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProductId int             `gorm:"uniqueIndex:idx_product_unit;not null" json:"product_id"`
	UnitId    int             `gorm:"uniqueIndex:idx_product_unit;not null" json:"unit_id"`
	Factor    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"factor"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUnitConversion struct {
	ProductId int             `json:"product_id" binding:"required"`
	UnitId    int             `json:"unit_id" binding:"required"`
	Factor    decimal.Decimal `json:"factor" binding:"required"`
}

func (input *NewUnitConversion) validate(ctx context.Context, id int) error {
	if !input.Factor.IsPositive() {
		return utils.NewValidationError("factor", "must be positive")
	}
	if err := utils.ValidateResourceId[Product](ctx, input.ProductId); err != nil {
		return errors.New("product not found")
	}
	if err := utils.ValidateResourceId[Unit](ctx, input.UnitId); err != nil {
		return errors.New("unit not found")
	}
	product, err := utils.FetchModel[Product](ctx, input.ProductId)
	if err != nil {
		return err
	}
	if product.MainUnitId == input.UnitId {
		return utils.NewValidationError("unit_id", "main unit has implicit factor 1")
	}
	return nil
}

func CreateUnitConversion(ctx context.Context, input *NewUnitConversion) (*UnitConversion, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	conversion := UnitConversion{
		ProductId: input.ProductId,
		UnitId:    input.UnitId,
		Factor:    input.Factor,
	}

	db := config.GetDB()
	// exactly one factor per (product, unit) pair
	err := db.WithContext(ctx).
		Where("product_id = ? AND unit_id = ?", input.ProductId, input.UnitId).
		Assign(map[string]interface{}{"Factor": input.Factor}).
		FirstOrCreate(&conversion).Error
	if err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey(conversionCacheKey(input.ProductId)); err != nil {
		config.LogError(config.GetLogger(), "unitConversion.go", "CreateUnitConversion", "RemoveRedisKey", input.ProductId, err)
	}
	return &conversion, nil
}

func conversionCacheKey(productId int) string {
	return fmt.Sprintf("unitConversions:%d", productId)
}

// GetUnitConversions lists a product's factors, cached in redis until the next
// CreateUnitConversion invalidates the key. Only this read path may serve
// cached factors; everything inside a transaction reads the table directly.
func GetUnitConversions(ctx context.Context, productId int) ([]*UnitConversion, error) {

	cacheKey := conversionCacheKey(productId)
	if cached, found, err := config.GetRedisValue(cacheKey); err == nil && found {
		var results []*UnitConversion
		if err := json.Unmarshal([]byte(cached), &results); err == nil {
			return results, nil
		}
	}

	db := config.GetDB()
	var results []*UnitConversion
	err := db.WithContext(ctx).Where("product_id = ?", productId).Find(&results).Error
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(results); err == nil {
		if err := config.SetRedisValue(cacheKey, string(payload), 10*time.Minute); err != nil {
			config.LogError(config.GetLogger(), "unitConversion.go", "GetUnitConversions", "SetRedisValue", productId, err)
		}
	}
	return results, nil
}

// ConversionResolution is the tagged result of a factor lookup. Callers pick
// the policy per call site: historical/report paths fall back to factor 1,
// new sales hard-fail on an unresolved main unit.
type ConversionResolution struct {
	Factor   decimal.Decimal
	Resolved bool
}

// MainUnitOf returns the product's main unit id. A product whose main unit no
// longer resolves is a data error -- new sales must not proceed on it.
func MainUnitOf(tx *gorm.DB, productId int) (int, error) {
	var product Product
	if err := tx.First(&product, productId).Error; err != nil {
		return 0, utils.ErrorRecordNotFound
	}
	if product.MainUnitId <= 0 {
		return 0, utils.ErrorRecordNotFound
	}
	var count int64
	if err := tx.Model(&Unit{}).Where("id = ?", product.MainUnitId).Count(&count).Error; err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, utils.ErrorRecordNotFound
	}
	return product.MainUnitId, nil
}

// ConversionFactor resolves the factor for (product, unit). The main unit
// resolves to 1 implicitly; a missing row yields Resolved=false instead of an
// error.
func ConversionFactor(tx *gorm.DB, productId int, unitId int) (ConversionResolution, error) {
	var product Product
	if err := tx.First(&product, productId).Error; err != nil {
		return ConversionResolution{}, utils.ErrorRecordNotFound
	}
	if product.MainUnitId == unitId {
		return ConversionResolution{Factor: decimal.NewFromInt(1), Resolved: true}, nil
	}
	var conversion UnitConversion
	err := tx.Where("product_id = ? AND unit_id = ?", productId, unitId).First(&conversion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ConversionResolution{Factor: decimal.NewFromInt(1), Resolved: false}, nil
		}
		return ConversionResolution{}, err
	}
	if !conversion.Factor.IsPositive() {
		return ConversionResolution{Factor: decimal.NewFromInt(1), Resolved: false}, nil
	}
	return ConversionResolution{Factor: conversion.Factor, Resolved: true}, nil
}

// FactorOrIdentity applies the lenient policy: an unresolved conversion counts
// as identity and is logged, never rejected.
func FactorOrIdentity(tx *gorm.DB, logger *logrus.Logger, productId int, unitId int) (decimal.Decimal, error) {
	resolution, err := ConversionFactor(tx, productId, unitId)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !resolution.Resolved {
		config.LogWarn(logger, "unitConversion.go", "FactorOrIdentity",
			"no conversion factor; treating as 1", map[string]int{"product_id": productId, "unit_id": unitId})
	}
	return resolution.Factor, nil
}

// ConversionTable maps unitId -> factor for one product, main unit included
// with factor 1. The proportional mutator uses it when a live row ratio is
// undefined (restoring stock into a fully drained batch).
type ConversionTable map[int]decimal.Decimal

func LoadConversionTable(tx *gorm.DB, productId int) (ConversionTable, error) {
	mainUnitId, err := MainUnitOf(tx, productId)
	if err != nil {
		return nil, err
	}
	table := ConversionTable{mainUnitId: decimal.NewFromInt(1)}
	var conversions []UnitConversion
	if err := tx.Where("product_id = ?", productId).Find(&conversions).Error; err != nil {
		return nil, err
	}
	for _, conversion := range conversions {
		if conversion.Factor.IsPositive() {
			table[conversion.UnitId] = conversion.Factor
		}
	}
	return table, nil
}
