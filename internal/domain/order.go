package domain

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// CanTransition reports whether the order state machine allows moving from s to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentCompleted:
		return next == PaymentRefunded
	default:
		return false
	}
}

type PaymentMethod string

const (
	MethodRazorpay PaymentMethod = "razorpay"
	MethodFree     PaymentMethod = "free"
)

// OrderItem is a denormalized copy of the catalog item at order time.
type OrderItem struct {
	ItemType   ItemType `json:"itemType"`
	ItemID     string   `json:"itemId"`
	Name       string   `json:"name"`
	PriceMinor int64    `json:"price"`
	Quantity   int      `json:"quantity"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
}

// Order is created once per checkout action. Items, total and currency never change after insert.
type Order struct {
	ID               string        `json:"_id"`
	OrderID          string        `json:"orderId"`
	UserID           string        `json:"userId"`
	Items            []OrderItem   `json:"items"`
	TotalMinor       int64         `json:"totalAmount"`
	Currency         string        `json:"currency"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	GatewayOrderID   *string       `json:"razorpayOrderId,omitempty"`
	GatewayPaymentID *string       `json:"razorpayPaymentId,omitempty"`
	GatewaySignature *string       `json:"razorpaySignature,omitempty"`
	PaymentID        *string       `json:"paymentId,omitempty"`
	FailureReason    string        `json:"failureReason,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	CompletedAt      *time.Time    `json:"completedAt,omitempty"`
}

func (o Order) IsFree() bool {
	return o.TotalMinor == 0
}

// Refs lists the catalog references held by the order.
func (o Order) Refs() []ItemRef {
	refs := make([]ItemRef, 0, len(o.Items))
	for _, it := range o.Items {
		refs = append(refs, ItemRef{Type: it.ItemType, ID: it.ItemID})
	}
	return refs
}

// Payment records a completed gateway transaction. It exists only for paid orders.
type Payment struct {
	ID               string                 `json:"_id"`
	OrderID          string                 `json:"orderId"`
	UserID           string                 `json:"userId"`
	AmountMinor      int64                  `json:"amount"`
	Currency         string                 `json:"currency"`
	Status           PaymentStatus          `json:"status"`
	Method           PaymentMethod          `json:"paymentMethod"`
	GatewayOrderID   string                 `json:"razorpayOrderId"`
	GatewayPaymentID string                 `json:"razorpayPaymentId"`
	GatewaySignature string                 `json:"razorpaySignature"`
	GatewayResponse  map[string]interface{} `json:"gatewayResponse,omitempty"`
	AttemptNumber    int                    `json:"attemptNumber"`
	FailureReason    string                 `json:"failureReason,omitempty"`
	CompletedAt      *time.Time             `json:"completedAt,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
}
