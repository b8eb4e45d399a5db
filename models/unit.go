package models

import (
	"context"
	"errors"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"gorm.io/gorm"
)

type Unit struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:20;uniqueIndex;not null" json:"name" binding:"required"`
	Suffix    string    `gorm:"size:10;not null" json:"suffix"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUnit struct {
	Name   string `json:"name" binding:"required"`
	Suffix string `json:"suffix"`
}

func (input *NewUnit) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Unit](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateUnit(ctx context.Context, input *NewUnit) (*Unit, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	unit := Unit{
		Name:   input.Name,
		Suffix: input.Suffix,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&unit).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func UpdateUnit(ctx context.Context, id int, input *NewUnit) (*Unit, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	unit, err := utils.FetchModel[Unit](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&unit).Updates(map[string]interface{}{
		"Name":   input.Name,
		"Suffix": input.Suffix,
	}).Error
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// DeleteUnit refuses to delete a unit that is still referenced by a conversion,
// a stock row, or a product's main unit.
func DeleteUnit(ctx context.Context, id int) (*Unit, error) {

	result, err := utils.FetchModel[Unit](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[UnitConversion](ctx, "unit_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by unit conversion")
	}
	count, err = utils.ResourceCountWhere[Stock](ctx, "unit_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by stock")
	}
	count, err = utils.ResourceCountWhere[Product](ctx, "main_unit_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used as product main unit")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func GetUnit(ctx context.Context, id int) (*Unit, error) {
	return utils.FetchModel[Unit](ctx, id)
}

func GetUnits(ctx context.Context, name *string) ([]*Unit, error) {

	db := config.GetDB()
	var results []*Unit

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

// ResolveUnitByName looks a unit up by its unique name. Missing units return
// (nil, false) rather than an error so callers can apply the lenient fallback
// on historical data paths.
func ResolveUnitByName(tx *gorm.DB, name string) (*Unit, bool) {
	var unit Unit
	err := tx.Where("name = ?", name).First(&unit).Error
	if err != nil {
		return nil, false
	}
	return &unit, true
}
