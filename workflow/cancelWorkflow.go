package workflow

import (
	"context"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CancelPayment reverses a committed payment: every linked sale line is
// restored into the exact batch it was drawn from, then the sale lines and the
// payment are flagged canceled. Restores resurrect soft-deleted batches, so a
// cancellation after cleanup still lands in the original batch.
func CancelPayment(ctx context.Context, paymentId int) (*models.Payment, error) {

	logger := config.GetLogger()
	db := config.GetDB()

	var payment *models.Payment
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		tx := db.WithContext(ctx).Begin()
		payment, err = cancelPaymentTx(tx, logger, paymentId)
		if err != nil {
			tx.Rollback()
			if utils.IsRetryableTxError(err) && attempt < maxTxAttempts {
				config.LogWarn(logger, "cancelWorkflow.go", "CancelPayment", "retrying after deadlock", attempt)
				continue
			}
			return nil, err
		}
		if err = tx.Commit().Error; err != nil {
			config.LogError(logger, "cancelWorkflow.go", "CancelPayment", "Commit", paymentId, err)
			return nil, err
		}
		break
	}
	return payment, nil
}

func cancelPaymentTx(tx *gorm.DB, logger *logrus.Logger, paymentId int) (*models.Payment, error) {

	var payment models.Payment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, paymentId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if utils.DereferencePtr(payment.IsCanceled) {
		return nil, utils.NewValidationError("paymentId", "payment is already canceled")
	}

	// A due with collections against it cannot be silently unwound; the
	// collections would be orphaned. Collect-reversal is a bookkeeping
	// operation of its own, not part of cancellation.
	if payment.CustomerDueId != nil {
		var due models.CustomerDue
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&due, *payment.CustomerDueId).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		if due.PaidAmount.IsPositive() {
			return nil, utils.NewValidationError("paymentId", "due has recorded collections; settle them first")
		}
		if err := tx.Delete(&models.CustomerDue{}, due.ID).Error; err != nil {
			return nil, err
		}
	}

	sales, err := salesForPayment(tx, paymentId)
	if err != nil {
		return nil, err
	}

	for _, sale := range sales {
		if utils.DereferencePtr(sale.IsCanceled) {
			continue
		}
		// Legacy lines without a batch reference have nothing to restore.
		if sale.StockBatchId != nil {
			if err := models.ApplyStockDelta(tx, *sale.StockBatchId, sale.UnitId, sale.Quantity.Neg()); err != nil {
				config.LogError(logger, "cancelWorkflow.go", "cancelPaymentTx", "ApplyStockDelta restore", sale.ID, err)
				return nil, err
			}
		}
		if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
			Update("IsCanceled", true).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("IsCanceled", true).Error; err != nil {
		return nil, err
	}
	payment.IsCanceled = utils.NewTrue()
	return &payment, nil
}

// salesForPayment returns the payment's sale lines oldest-batch-first, the
// same order sales visit batches, so restore and sale row locks never cross.
func salesForPayment(tx *gorm.DB, paymentId int) ([]models.Sale, error) {
	var sales []models.Sale
	err := tx.Table("sales").
		Select("sales.*").
		Joins("JOIN payment_sales ON payment_sales.sale_id = sales.id").
		Joins("LEFT JOIN stock_batches ON stock_batches.id = sales.stock_batch_id").
		Where("payment_sales.payment_id = ?", paymentId).
		Order("stock_batches.production_date, sales.stock_batch_id, sales.id").
		Scan(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}
