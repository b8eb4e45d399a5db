package models

type DiscountType string

const (
	DiscountTypeFixed      DiscountType = "Fixed"
	DiscountTypePercentage DiscountType = "Percentage"
)

func (t DiscountType) IsValid() bool {
	return t == DiscountTypeFixed || t == DiscountTypePercentage
}

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodBkash      PaymentMethod = "bkash"
	PaymentMethodNogod      PaymentMethod = "nogod"
	PaymentMethodDue        PaymentMethod = "due"
	PaymentMethodSendForUse PaymentMethod = "sendForUse"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBkash,
		PaymentMethodNogod, PaymentMethodDue, PaymentMethodSendForUse:
		return true
	}
	return false
}

func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash, PaymentMethodCard, PaymentMethodBkash,
		PaymentMethodNogod, PaymentMethodDue, PaymentMethodSendForUse,
	}
}

type MaintainsType string

const (
	MaintainsTypeMaintains MaintainsType = "maintains"
	MaintainsTypeOutlet    MaintainsType = "outlet"
)
