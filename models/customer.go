package models

import (
	"context"
	"errors"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
)

type CustomerCategory struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Customer struct {
	ID                 int       `gorm:"primary_key" json:"id"`
	Name               string    `gorm:"size:100;index;not null" json:"name" binding:"required"`
	Phone              string    `gorm:"size:20;index" json:"phone"`
	CustomerCategoryId *int      `gorm:"index" json:"customer_category_id"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name               string `json:"name" binding:"required"`
	Phone              string `json:"phone"`
	CustomerCategoryId *int   `json:"customer_category_id"`
}

func (input *NewCustomer) validate(ctx context.Context) error {
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
	}
	if input.CustomerCategoryId != nil {
		if err := utils.ValidateResourceId[CustomerCategory](ctx, *input.CustomerCategoryId); err != nil {
			return errors.New("customer category not found")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:               input.Name,
		Phone:              input.Phone,
		CustomerCategoryId: input.CustomerCategoryId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

func CreateCustomerCategory(ctx context.Context, name string) (*CustomerCategory, error) {

	if err := utils.ValidateUnique[CustomerCategory](ctx, "name", name, 0); err != nil {
		return nil, err
	}

	category := CustomerCategory{Name: name}
	db := config.GetDB()
	err := db.WithContext(ctx).Create(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
