package models

import (
	"time"

	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/shopspring/decimal"
)

// Sale is one line item of a committed sale. Immutable once created except for
// the cancellation bookkeeping driven by payment cancellation.
//
// StockBatchId is nullable: pre-batch legacy rows carry NULL. QuantityInMainUnit
// and MainUnitPrice are best-effort reporting values filled through the lenient
// conversion policy.
type Sale struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	ProductId          int             `gorm:"index;not null" json:"product_id"`
	ProductName        string          `gorm:"size:100;not null" json:"product_name"`
	StockBatchId       *int            `gorm:"index" json:"stock_batch_id"`
	UnitId             int             `gorm:"index;not null" json:"unit_id"`
	UnitName           string          `gorm:"size:20;not null" json:"unit_name"`
	Quantity           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	PricePerQuantity   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_per_quantity"`
	QuantityInMainUnit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_in_main_unit"`
	MainUnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"main_unit_price"`
	Discount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	DiscountType       DiscountType    `gorm:"type:enum('Fixed','Percentage');default:'Fixed'" json:"discount_type"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_price"`
	CreatedBy          string          `gorm:"size:100" json:"created_by"`
	MaintainsId        int             `gorm:"index;not null" json:"maintains_id"`
	CustomerId         *int            `gorm:"index" json:"customer_id"`
	CustomerCategoryId *int            `gorm:"index" json:"customer_category_id"`
	IsCanceled         *bool           `gorm:"not null;default:false" json:"is_canceled"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewSaleProduct is one requested line item, in the JSON shape the HTTP layer
// hands over.
type NewSaleProduct struct {
	ProductId        int             `json:"productId" binding:"required"`
	ProductName      string          `json:"productName"`
	Unit             string          `json:"unit"`
	UnitId           int             `json:"unitId"`
	Quantity         decimal.Decimal `json:"quantity" binding:"required"`
	PricePerQuantity decimal.Decimal `json:"price_per_quantity"`
	StockBatchId     *int            `json:"stockBatchId"`
	Discount         decimal.Decimal `json:"discount"`
	DiscountType     DiscountType    `json:"discountType"`
}

// TotalWithDiscount computes the line amount: quantity*price minus a flat
// discount, or minus quantity*price*pct/100 for percentage discounts.
func (item *NewSaleProduct) TotalWithDiscount() decimal.Decimal {
	gross := item.Quantity.Mul(item.PricePerQuantity)
	switch item.DiscountType {
	case DiscountTypePercentage:
		return utils.RoundMoney(gross.Sub(gross.Mul(item.Discount).Div(decimal.NewFromInt(100))))
	default:
		return utils.RoundMoney(gross.Sub(item.Discount))
	}
}

type NewPaymentEntry struct {
	Method PaymentMethod   `json:"method" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// NewSale is the full sale request: line items plus the line-independent
// payment split.
type NewSale struct {
	MaintainsId        int               `json:"maintainsId" binding:"required"`
	Products           []NewSaleProduct  `json:"products" binding:"required,dive"`
	PaymentInfo        []NewPaymentEntry `json:"paymentInfo" binding:"required,dive"`
	CustomerId         *int              `json:"customerId"`
	CustomerCategoryId *int              `json:"customerCategoryId"`
}

// TotalPriceWithDiscount sums all line totals.
func (input *NewSale) TotalPriceWithDiscount() decimal.Decimal {
	total := decimal.Zero
	for i := range input.Products {
		total = total.Add(input.Products[i].TotalWithDiscount())
	}
	return utils.RoundMoney(total)
}

// PaymentTotals folds the payment list into one amount per method.
func (input *NewSale) PaymentTotals() map[PaymentMethod]decimal.Decimal {
	totals := make(map[PaymentMethod]decimal.Decimal)
	for _, entry := range input.PaymentInfo {
		totals[entry.Method] = totals[entry.Method].Add(entry.Amount)
	}
	return totals
}
