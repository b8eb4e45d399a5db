package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one committed payment covering one or more sale line items.
// The per-method columns together form the payment map of the request.
type Payment struct {
	ID            int             `gorm:"primary_key" json:"id"`
	MaintainsId   int             `gorm:"index;not null" json:"maintains_id"`
	Cash          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cash"`
	Card          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"card"`
	Bkash         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bkash"`
	Nogod         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"nogod"`
	Due           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"due"`
	SendForUse    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"send_for_use"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	CustomerDueId *int            `gorm:"index" json:"customer_due_id"`
	IsCanceled    *bool           `gorm:"not null;default:false" json:"is_canceled"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentSale links one payment to every sale line it covers.
type PaymentSale struct {
	ID        int `gorm:"primary_key" json:"id"`
	PaymentId int `gorm:"index;not null" json:"payment_id"`
	SaleId    int `gorm:"index;not null" json:"sale_id"`
}

// AmountFor returns the amount recorded for one method.
func (p *Payment) AmountFor(method PaymentMethod) decimal.Decimal {
	switch method {
	case PaymentMethodCash:
		return p.Cash
	case PaymentMethodCard:
		return p.Card
	case PaymentMethodBkash:
		return p.Bkash
	case PaymentMethodNogod:
		return p.Nogod
	case PaymentMethodDue:
		return p.Due
	case PaymentMethodSendForUse:
		return p.SendForUse
	}
	return decimal.Zero
}

// SetAmountFor assigns the amount for one method.
func (p *Payment) SetAmountFor(method PaymentMethod, amount decimal.Decimal) {
	switch method {
	case PaymentMethodCash:
		p.Cash = amount
	case PaymentMethodCard:
		p.Card = amount
	case PaymentMethodBkash:
		p.Bkash = amount
	case PaymentMethodNogod:
		p.Nogod = amount
	case PaymentMethodDue:
		p.Due = amount
	case PaymentMethodSendForUse:
		p.SendForUse = amount
	}
}
