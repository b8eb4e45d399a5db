package models

import (
	"context"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerDue tracks a deferred/credit amount owed by a customer. Created only
// when a sale's "due" payment amount is positive; later collections move
// PaidAmount towards TotalAmount.
type CustomerDue struct {
	ID          int             `gorm:"primary_key" json:"id"`
	CustomerId  int             `gorm:"index;not null" json:"customer_id"`
	MaintainsId int             `gorm:"index;not null" json:"maintains_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// CustomerDueUpdateHistory is the append-only log of every paid-amount
// mutation (delta = new paid - old paid).
type CustomerDueUpdateHistory struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	CustomerDueId      int             `gorm:"index;not null" json:"customer_due_id"`
	Delta              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"delta"`
	PreviousPaidAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"previous_paid_amount"`
	NewPaidAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"new_paid_amount"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// CreateCustomerDue inserts a due row inside the sale transaction.
func CreateCustomerDue(tx *gorm.DB, customerId int, maintainsId int, totalAmount decimal.Decimal) (*CustomerDue, error) {
	due := CustomerDue{
		CustomerId:  customerId,
		MaintainsId: maintainsId,
		TotalAmount: utils.RoundMoney(totalAmount),
		PaidAmount:  decimal.Zero,
	}
	if err := tx.Create(&due).Error; err != nil {
		return nil, err
	}
	return &due, nil
}

// CollectCustomerDue records a collection event: adds amount to PaidAmount and
// appends the delta to the update history, in one transaction.
func CollectCustomerDue(ctx context.Context, dueId int, amount decimal.Decimal) (*CustomerDue, error) {

	if !amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "must be positive")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	var due CustomerDue
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&due, dueId).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	previous := due.PaidAmount
	newPaid := utils.RoundMoney(previous.Add(amount))
	if newPaid.GreaterThan(due.TotalAmount) {
		tx.Rollback()
		return nil, utils.NewValidationError("amount", "exceeds outstanding due")
	}

	if err := tx.Model(&CustomerDue{}).Where("id = ?", due.ID).
		Update("PaidAmount", newPaid).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	history := CustomerDueUpdateHistory{
		CustomerDueId:      due.ID,
		Delta:              newPaid.Sub(previous),
		PreviousPaidAmount: previous,
		NewPaidAmount:      newPaid,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	due.PaidAmount = newPaid
	return &due, nil
}

func GetCustomerDues(ctx context.Context, customerId int) ([]*CustomerDue, error) {

	db := config.GetDB()
	var results []*CustomerDue
	err := db.WithContext(ctx).Where("customer_id = ?", customerId).
		Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
