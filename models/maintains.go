package models

import (
	"context"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
)

// Maintains is a stock location: the central maintains warehouse or an outlet.
type Maintains struct {
	ID        int           `gorm:"primary_key" json:"id"`
	Name      string        `gorm:"size:100;uniqueIndex;not null" json:"name" binding:"required"`
	Type      MaintainsType `gorm:"type:enum('maintains','outlet');default:'outlet'" json:"type"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMaintains struct {
	Name string        `json:"name" binding:"required"`
	Type MaintainsType `json:"type"`
}

func CreateMaintains(ctx context.Context, input *NewMaintains) (*Maintains, error) {

	if err := utils.ValidateUnique[Maintains](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}
	maintainsType := input.Type
	if maintainsType == "" {
		maintainsType = MaintainsTypeOutlet
	}

	maintains := Maintains{
		Name: input.Name,
		Type: maintainsType,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&maintains).Error
	if err != nil {
		return nil, err
	}
	return &maintains, nil
}

func GetMaintains(ctx context.Context, id int) (*Maintains, error) {
	return utils.FetchModel[Maintains](ctx, id)
}

func GetAllMaintains(ctx context.Context) ([]*Maintains, error) {

	db := config.GetDB()
	var results []*Maintains
	err := db.WithContext(ctx).Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
