package shop

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderPaid: true, OrderCancelled: true},
	OrderPaid:      {OrderShipped: true, OrderCancelled: true},
	OrderShipped:   {OrderDelivered: true},
	OrderDelivered: {},
	OrderCancelled: {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Label is the Portuguese text shown on the order page.
func (s OrderStatus) Label() string {
	switch s {
	case OrderPending:
		return "Pendente"
	case OrderPaid:
		return "Pago"
	case OrderShipped:
		return "Enviado"
	case OrderDelivered:
		return "Entregue"
	case OrderCancelled:
		return "Cancelado"
	}
	return string(s)
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Label() string {
	switch s {
	case PaymentPending:
		return "Aguardando pagamento"
	case PaymentApproved:
		return "Aprovado"
	case PaymentRejected:
		return "Recusado"
	}
	return string(s)
}

type PaymentMethod string

const (
	PaymentPix        PaymentMethod = "pix"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentBoleto     PaymentMethod = "boleto"
)

// PaymentMethods is the fixed choice set offered on the checkout page, in display order.
var PaymentMethods = []PaymentMethod{PaymentPix, PaymentCreditCard, PaymentBoleto}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

func (m PaymentMethod) Label() string {
	switch m {
	case PaymentPix:
		return "PIX"
	case PaymentCreditCard:
		return "Cartão de crédito"
	case PaymentBoleto:
		return "Boleto"
	}
	return string(m)
}
