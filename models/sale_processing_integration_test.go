package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/hihabib/inventory-management-system-api-sub000/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end engine test against real MySQL + Redis: batch intake, FIFO
// spillover, all-or-nothing failure, due creation, cancellation restore, the
// empty-batch sweep, unit delete guards, and the conversion-list cache.
func TestSaleProcessingEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "ims_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	db := config.GetDB()

	kg, err := models.CreateUnit(ctx, &models.NewUnit{Name: "kg", Suffix: "kg"})
	if err != nil {
		t.Fatalf("CreateUnit kg: %v", err)
	}
	box, err := models.CreateUnit(ctx, &models.NewUnit{Name: "box", Suffix: "box"})
	if err != nil {
		t.Fatalf("CreateUnit box: %v", err)
	}
	outlet, err := models.CreateMaintains(ctx, &models.NewMaintains{Name: "Main Outlet"})
	if err != nil {
		t.Fatalf("CreateMaintains: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{Name: "Rice", MainUnitId: kg.ID})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	// one box holds 10 kg
	if _, err := models.CreateUnitConversion(ctx, &models.NewUnitConversion{
		ProductId: product.ID, UnitId: box.ID, Factor: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("CreateUnitConversion: %v", err)
	}

	newBatch := func(qty string, daysAgo int) *models.StockBatch {
		t.Helper()
		batch, err := models.CreateStockBatch(ctx, &models.NewStockBatch{
			ProductId:        product.ID,
			MaintainsId:      outlet.ID,
			ProductionDate:   time.Now().UTC().AddDate(0, 0, -daysAgo),
			MainUnitQuantity: decimal.RequireFromString(qty),
			Entries: []models.NewStockEntry{
				{UnitId: kg.ID, Price: decimal.NewFromInt(50)},
				{UnitId: box.ID, Price: decimal.NewFromInt(480)},
			},
		})
		if err != nil {
			t.Fatalf("CreateStockBatch: %v", err)
		}
		return batch
	}
	batchA := newBatch("50", 2)
	batchB := newBatch("50", 1)

	assertRow := func(batchId, unitId int, want string) {
		t.Helper()
		row, err := models.GetStockRow(db, batchId, unitId)
		if err != nil {
			t.Fatalf("GetStockRow(%d,%d): %v", batchId, unitId, err)
		}
		if !row.Quantity.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("stock row (%d,%d): got %s, want %s", batchId, unitId, row.Quantity, want)
		}
	}

	// intake materializes the box view from the main quantity
	assertRow(batchA.ID, box.ID, "5")

	// FIFO: 70 kg spans both batches, draining the older one first.
	receipt, err := workflow.CreateSale(ctx, &models.NewSale{
		MaintainsId: outlet.ID,
		Products: []models.NewSaleProduct{{
			ProductId:        product.ID,
			ProductName:      product.Name,
			UnitId:           kg.ID,
			Quantity:         decimal.NewFromInt(70),
			PricePerQuantity: decimal.NewFromInt(50),
		}},
		PaymentInfo: []models.NewPaymentEntry{{Method: models.PaymentMethodCash, Amount: decimal.NewFromInt(3500)}},
	})
	if err != nil {
		t.Fatalf("CreateSale FIFO: %v", err)
	}
	if len(receipt.SaleIds) != 2 {
		t.Fatalf("expected 2 sale rows (one per batch), got %d", len(receipt.SaleIds))
	}
	assertRow(batchA.ID, kg.ID, "0")
	assertRow(batchA.ID, box.ID, "0")
	assertRow(batchB.ID, kg.ID, "30")
	assertRow(batchB.ID, box.ID, "3")

	// All-or-nothing: an over-ask fails without touching any row.
	_, err = workflow.CreateSale(ctx, &models.NewSale{
		MaintainsId: outlet.ID,
		Products: []models.NewSaleProduct{{
			ProductId:        product.ID,
			UnitId:           kg.ID,
			Quantity:         decimal.NewFromInt(100),
			PricePerQuantity: decimal.NewFromInt(50),
		}},
		PaymentInfo: []models.NewPaymentEntry{{Method: models.PaymentMethodCash, Amount: decimal.NewFromInt(5000)}},
	})
	if err == nil {
		t.Fatalf("expected insufficient stock error")
	}
	assertRow(batchB.ID, kg.ID, "30")

	// Due payments create a customer due and link it to the payment.
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Walk-in"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	dueReceipt, err := workflow.CreateSale(ctx, &models.NewSale{
		MaintainsId: outlet.ID,
		CustomerId:  &customer.ID,
		Products: []models.NewSaleProduct{{
			ProductId:        product.ID,
			UnitId:           kg.ID,
			Quantity:         decimal.NewFromInt(10),
			PricePerQuantity: decimal.NewFromInt(50),
		}},
		PaymentInfo: []models.NewPaymentEntry{
			{Method: models.PaymentMethodCash, Amount: decimal.NewFromInt(400)},
			{Method: models.PaymentMethodDue, Amount: decimal.NewFromInt(100)},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale with due: %v", err)
	}
	if dueReceipt.Payment.CustomerDueId == nil {
		t.Fatalf("expected a customer due to be created")
	}
	var due models.CustomerDue
	if err := db.First(&due, *dueReceipt.Payment.CustomerDueId).Error; err != nil {
		t.Fatalf("load due: %v", err)
	}
	if !due.TotalAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("due total: got %s, want 100", due.TotalAmount)
	}
	assertRow(batchB.ID, kg.ID, "20")

	// Cancellation restores the exact batch and removes the uncollected due.
	if _, err := workflow.CancelPayment(ctx, dueReceipt.Payment.ID); err != nil {
		t.Fatalf("CancelPayment: %v", err)
	}
	assertRow(batchB.ID, kg.ID, "30")
	assertRow(batchB.ID, box.ID, "3")
	if err := db.First(&models.CustomerDue{}, due.ID).Error; err == nil {
		t.Fatalf("canceled due should be soft-deleted")
	}
	var canceledSale models.Sale
	if err := db.First(&canceledSale, dueReceipt.SaleIds[0]).Error; err != nil {
		t.Fatalf("load canceled sale: %v", err)
	}
	if canceledSale.IsCanceled == nil || !*canceledSale.IsCanceled {
		t.Fatalf("sale should be flagged canceled")
	}

	// The sweep retires the fully drained batch but never the live one.
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	worker := workflow.StartDefaultCleanupWorker(workerCtx)
	defer worker.Stop()
	worker.Enqueue(workflow.CleanupKey{ProductId: product.ID, MaintainsId: outlet.ID})

	deadline := time.Now().Add(10 * time.Second)
	for {
		var swept models.StockBatch
		if err := db.Unscoped().First(&swept, batchA.ID).Error; err != nil {
			t.Fatalf("load batch A: %v", err)
		}
		if swept.DeletedAt.Valid {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("batch A was not swept")
		}
		time.Sleep(100 * time.Millisecond)
	}
	var live models.StockBatch
	if err := db.First(&live, batchB.ID).Error; err != nil {
		t.Fatalf("batch B must stay live: %v", err)
	}

	// A cancellation after the sweep resurrects the batch it restores into.
	var sweptSale models.Sale
	if err := db.Where("stock_batch_id = ? AND is_canceled = false", batchA.ID).
		Order("id").First(&sweptSale).Error; err != nil {
		t.Fatalf("load sale on swept batch: %v", err)
	}
	var link models.PaymentSale
	if err := db.Where("sale_id = ?", sweptSale.ID).First(&link).Error; err != nil {
		t.Fatalf("load payment link: %v", err)
	}
	if _, err := workflow.CancelPayment(ctx, link.PaymentId); err != nil {
		t.Fatalf("CancelPayment on swept batch: %v", err)
	}
	var revived models.StockBatch
	if err := db.First(&revived, batchA.ID).Error; err != nil {
		t.Fatalf("swept batch should be revived by restore: %v", err)
	}
	assertRow(batchA.ID, kg.ID, "50")

	// Units stay immutable while referenced: kg is a product main unit, box
	// is held by a conversion and stock rows; only an unused unit may go.
	if _, err := models.DeleteUnit(ctx, kg.ID); err == nil {
		t.Fatalf("deleting a product's main unit must be refused")
	}
	if _, err := models.DeleteUnit(ctx, box.ID); err == nil {
		t.Fatalf("deleting a conversion-referenced unit must be refused")
	}
	crate, err := models.CreateUnit(ctx, &models.NewUnit{Name: "crate", Suffix: "crate"})
	if err != nil {
		t.Fatalf("CreateUnit crate: %v", err)
	}
	if _, err := models.DeleteUnit(ctx, crate.ID); err != nil {
		t.Fatalf("deleting an unreferenced unit: %v", err)
	}
	if _, err := models.GetUnit(ctx, crate.ID); err == nil {
		t.Fatalf("deleted unit should be gone")
	}

	// The cached conversion list must refresh when a factor is added.
	conversions, err := models.GetUnitConversions(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetUnitConversions: %v", err)
	}
	if len(conversions) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(conversions))
	}
	gm, err := models.CreateUnit(ctx, &models.NewUnit{Name: "gm", Suffix: "gm"})
	if err != nil {
		t.Fatalf("CreateUnit gm: %v", err)
	}
	if _, err := models.CreateUnitConversion(ctx, &models.NewUnitConversion{
		ProductId: product.ID, UnitId: gm.ID, Factor: decimal.RequireFromString("0.001"),
	}); err != nil {
		t.Fatalf("CreateUnitConversion gm: %v", err)
	}
	conversions, err = models.GetUnitConversions(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetUnitConversions after add: %v", err)
	}
	if len(conversions) != 2 {
		t.Fatalf("cached conversion list is stale: got %d, want 2", len(conversions))
	}
}
