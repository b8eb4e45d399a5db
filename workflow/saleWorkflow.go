package workflow

import (
	"context"
	"sort"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxTxAttempts bounds the deadlock retry loop. MySQL picks a victim on
// deadlock; the losing transaction is safe to rerun from scratch.
const maxTxAttempts = 3

// SaleReceipt is the commit result handed back to the HTTP layer.
type SaleReceipt struct {
	SaleIds []int           `json:"sales"`
	Payment *models.Payment `json:"payment"`
	Message string          `json:"message"`
}

// CreateSale processes one sale request end to end: validation, per-line FIFO
// (or pinned-batch) allocation, proportional stock decrement, sale/payment/due
// persistence. All of it happens in a single transaction per attempt; any
// failure rolls the whole sale back.
func CreateSale(ctx context.Context, input *models.NewSale) (*SaleReceipt, error) {

	logger := config.GetLogger()

	if err := validateSaleInput(ctx, input); err != nil {
		return nil, err
	}

	// Best-effort serialization per (maintains, product). Not correctness
	// critical: row locks inside the transaction are, this just cuts the
	// deadlock-retry rate under contention.
	releases, err := acquireStockLocks(ctx, input)
	if err != nil {
		config.LogError(logger, "saleWorkflow.go", "CreateSale", "acquireStockLocks", input.MaintainsId, err)
	}
	defer func() {
		for _, release := range releases {
			release()
		}
	}()

	db := config.GetDB()
	var receipt *SaleReceipt
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		tx := db.WithContext(ctx).Begin()
		receipt, err = createSaleTx(ctx, tx, logger, input)
		if err != nil {
			tx.Rollback()
			if utils.IsRetryableTxError(err) && attempt < maxTxAttempts {
				config.LogWarn(logger, "saleWorkflow.go", "CreateSale", "retrying after deadlock", attempt)
				continue
			}
			return nil, err
		}
		if err = tx.Commit().Error; err != nil {
			config.LogError(logger, "saleWorkflow.go", "CreateSale", "Commit", nil, err)
			return nil, err
		}
		break
	}

	// Post-commit: ask the cleanup worker to sweep drained batches. The sale
	// is already durable; cleanup failures only delay the sweep.
	for _, product := range input.Products {
		EnqueueCleanup(CleanupKey{ProductId: product.ProductId, MaintainsId: input.MaintainsId})
	}

	return receipt, nil
}

func createSaleTx(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, input *models.NewSale) (*SaleReceipt, error) {

	userName, _ := utils.GetUserNameFromContext(ctx)

	saleIds := make([]int, 0, len(input.Products))
	for i := range input.Products {
		ids, err := createSaleLine(tx, logger, input, &input.Products[i], userName)
		if err != nil {
			return nil, err
		}
		saleIds = append(saleIds, ids...)
	}

	payment, err := createSalePayment(tx, logger, input, saleIds)
	if err != nil {
		return nil, err
	}

	return &SaleReceipt{
		SaleIds: saleIds,
		Payment: payment,
		Message: "sale completed",
	}, nil
}

// createSaleLine allocates stock for one requested line and persists one sale
// row per batch drawn from. The allocation plan is advisory: ApplyStockDelta
// re-locks and re-validates, so a raced-away batch surfaces as
// ErrorInsufficientStock and rolls the sale back.
func createSaleLine(tx *gorm.DB, logger *logrus.Logger, input *models.NewSale, item *models.NewSaleProduct, userName string) ([]int, error) {

	unit, err := resolveSaleUnit(tx, item)
	if err != nil {
		return nil, err
	}

	allocations, err := models.PlanAllocation(tx, item.ProductId, input.MaintainsId, unit.ID, item.Quantity, item.StockBatchId)
	if err != nil {
		config.LogError(logger, "saleWorkflow.go", "createSaleLine", "PlanAllocation", item.ProductId, err)
		return nil, err
	}

	// Main unit must resolve for a new sale; the per-line factor itself is
	// lenient (identity fallback) because it only feeds reporting columns.
	if _, err := models.MainUnitOf(tx, item.ProductId); err != nil {
		return nil, err
	}
	factor, err := models.FactorOrIdentity(tx, logger, item.ProductId, unit.ID)
	if err != nil {
		return nil, err
	}

	quantities := make([]decimal.Decimal, len(allocations))
	for i, allocation := range allocations {
		quantities[i] = allocation.QuantityTaken
	}
	rowTotals := prorateRowTotals(item.TotalWithDiscount(), quantities)

	saleIds := make([]int, 0, len(allocations))
	for idx, allocation := range allocations {
		if err := models.ApplyStockDelta(tx, allocation.StockBatchId, unit.ID, allocation.QuantityTaken); err != nil {
			config.LogError(logger, "saleWorkflow.go", "createSaleLine", "ApplyStockDelta", allocation.StockBatchId, err)
			return nil, err
		}

		batchId := allocation.StockBatchId
		sale := models.Sale{
			ProductId:          item.ProductId,
			ProductName:        item.ProductName,
			StockBatchId:       &batchId,
			UnitId:             unit.ID,
			UnitName:           unit.Name,
			Quantity:           allocation.QuantityTaken,
			PricePerQuantity:   item.PricePerQuantity,
			QuantityInMainUnit: utils.RoundQuantity(allocation.QuantityTaken.Mul(factor)),
			MainUnitPrice:      mainUnitPrice(item.PricePerQuantity, factor),
			Discount:           item.Discount,
			DiscountType:       item.DiscountType,
			TotalPrice:         rowTotals[idx],
			CreatedBy:          userName,
			MaintainsId:        input.MaintainsId,
			CustomerId:         input.CustomerId,
			CustomerCategoryId: input.CustomerCategoryId,
			IsCanceled:         utils.NewFalse(),
		}
		if err := tx.Create(&sale).Error; err != nil {
			config.LogError(logger, "saleWorkflow.go", "createSaleLine", "Create Sale", sale.ProductId, err)
			return nil, err
		}
		saleIds = append(saleIds, sale.ID)
	}
	return saleIds, nil
}

func createSalePayment(tx *gorm.DB, logger *logrus.Logger, input *models.NewSale, saleIds []int) (*models.Payment, error) {

	payment := models.Payment{
		MaintainsId: input.MaintainsId,
		IsCanceled:  utils.NewFalse(),
	}
	total := decimal.Zero
	for method, amount := range input.PaymentTotals() {
		payment.SetAmountFor(method, utils.RoundMoney(amount))
		total = total.Add(amount)
	}
	payment.TotalAmount = utils.RoundMoney(total)

	if payment.Due.IsPositive() {
		due, err := models.CreateCustomerDue(tx, *input.CustomerId, input.MaintainsId, payment.Due)
		if err != nil {
			config.LogError(logger, "saleWorkflow.go", "createSalePayment", "CreateCustomerDue", input.CustomerId, err)
			return nil, err
		}
		payment.CustomerDueId = &due.ID
	}

	if err := tx.Create(&payment).Error; err != nil {
		config.LogError(logger, "saleWorkflow.go", "createSalePayment", "Create Payment", nil, err)
		return nil, err
	}
	for _, saleId := range saleIds {
		link := models.PaymentSale{PaymentId: payment.ID, SaleId: saleId}
		if err := tx.Create(&link).Error; err != nil {
			config.LogError(logger, "saleWorkflow.go", "createSalePayment", "Create PaymentSale", saleId, err)
			return nil, err
		}
	}
	return &payment, nil
}

// resolveSaleUnit maps the request's unit reference (id preferred, then name)
// to a concrete unit. New sales must name a real unit; there is no identity
// fallback here.
func resolveSaleUnit(tx *gorm.DB, item *models.NewSaleProduct) (*models.Unit, error) {
	if item.UnitId > 0 {
		var unit models.Unit
		if err := tx.First(&unit, item.UnitId).Error; err != nil {
			return nil, utils.NewValidationError("unitId", "unit not found")
		}
		return &unit, nil
	}
	if item.Unit != "" {
		if unit, ok := models.ResolveUnitByName(tx, item.Unit); ok {
			return unit, nil
		}
		return nil, utils.NewValidationError("unit", "unit not found")
	}
	return nil, utils.NewValidationError("unit", "unit is required")
}

// prorateRowTotals splits a line total across batch draws pro rata by
// quantity. Each share is rounded except the last, which absorbs the
// remainder so the rows always sum exactly to the line total.
func prorateRowTotals(lineTotal decimal.Decimal, quantities []decimal.Decimal) []decimal.Decimal {
	totals := make([]decimal.Decimal, len(quantities))
	if len(quantities) == 0 {
		return totals
	}
	totalQty := decimal.Zero
	for _, q := range quantities {
		totalQty = totalQty.Add(q)
	}
	remaining := lineTotal
	for i, q := range quantities {
		if i == len(quantities)-1 {
			totals[i] = utils.RoundMoney(remaining)
			break
		}
		share := decimal.Zero
		if totalQty.IsPositive() {
			share = utils.RoundMoney(lineTotal.Mul(q).Div(totalQty))
		}
		totals[i] = share
		remaining = remaining.Sub(share)
	}
	return totals
}

func mainUnitPrice(pricePerQuantity decimal.Decimal, factor decimal.Decimal) decimal.Decimal {
	if !factor.IsPositive() {
		return utils.RoundMoney(pricePerQuantity)
	}
	return utils.RoundMoney(pricePerQuantity.Div(factor))
}

func validateSaleInput(ctx context.Context, input *models.NewSale) error {

	if len(input.Products) == 0 {
		return utils.NewValidationError("products", "at least one product is required")
	}
	if err := utils.ValidateResourceId[models.Maintains](ctx, input.MaintainsId); err != nil {
		return utils.NewValidationError("maintainsId", "maintains not found")
	}

	for i := range input.Products {
		item := &input.Products[i]
		if !item.Quantity.IsPositive() {
			return utils.NewValidationError("quantity", "must be positive")
		}
		if item.PricePerQuantity.IsNegative() {
			return utils.NewValidationError("price_per_quantity", "must not be negative")
		}
		if item.Discount.IsNegative() {
			return utils.NewValidationError("discount", "must not be negative")
		}
		if item.DiscountType != "" && !item.DiscountType.IsValid() {
			return utils.NewValidationError("discountType", "unknown discount type")
		}
		if item.DiscountType == models.DiscountTypePercentage && item.Discount.GreaterThan(decimal.NewFromInt(100)) {
			return utils.NewValidationError("discount", "percentage discount exceeds 100")
		}
		if err := utils.ValidateResourceId[models.Product](ctx, item.ProductId); err != nil {
			return utils.NewValidationError("productId", "product not found")
		}
	}

	paymentSum := decimal.Zero
	dueAmount := decimal.Zero
	for _, entry := range input.PaymentInfo {
		if !entry.Method.IsValid() {
			return utils.NewValidationError("method", "unknown payment method")
		}
		if entry.Amount.IsNegative() {
			return utils.NewValidationError("amount", "must not be negative")
		}
		paymentSum = paymentSum.Add(entry.Amount)
		if entry.Method == models.PaymentMethodDue {
			dueAmount = dueAmount.Add(entry.Amount)
		}
	}
	if !utils.MoneyEqual(paymentSum, input.TotalPriceWithDiscount()) {
		return utils.NewValidationError("paymentInfo", "payment total does not match sale total")
	}
	if dueAmount.IsPositive() {
		if input.CustomerId == nil {
			return utils.NewValidationError("customerId", "customer is required for due payments")
		}
		if err := utils.ValidateResourceId[models.Customer](ctx, *input.CustomerId); err != nil {
			return utils.NewValidationError("customerId", "customer not found")
		}
	}
	if input.CustomerCategoryId != nil {
		if err := utils.ValidateResourceId[models.CustomerCategory](ctx, *input.CustomerCategoryId); err != nil {
			return utils.NewValidationError("customerCategoryId", "customer category not found")
		}
	}
	return nil
}

// acquireStockLocks takes the advisory redis lock for every distinct product
// in the request, in product-id order. Lock failures degrade to best effort.
func acquireStockLocks(ctx context.Context, input *models.NewSale) ([]func(), error) {

	productIds := make([]int, 0, len(input.Products))
	for _, item := range input.Products {
		productIds = append(productIds, item.ProductId)
	}
	productIds = utils.UniqueSlice(productIds)
	sort.Ints(productIds)

	releases := make([]func(), 0, len(productIds))
	for _, productId := range productIds {
		release, err := utils.StockLock(ctx, input.MaintainsId, productId, "saleWorkflow.go", "CreateSale")
		if err != nil {
			return releases, err
		}
		releases = append(releases, release)
	}
	return releases, nil
}
