package httpserver

import (
	"lms-commerce/internal/domain"
	cartsvc "lms-commerce/internal/service/cart"
	"lms-commerce/internal/service/checkout"
)

type authResponse struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

func toAuthResponse(u *domain.User, token string) authResponse {
	return authResponse{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, Token: token}
}

type cartBody struct {
	ID    string         `json:"_id"`
	Items []cartsvc.Line `json:"items"`
}

type cartResponse struct {
	Message   string   `json:"message,omitempty"`
	Cart      cartBody `json:"cart"`
	Total     int64    `json:"total"`
	ItemCount int      `json:"itemCount"`
}

func toCartResponse(v *cartsvc.View, msg string) cartResponse {
	items := v.Items
	if items == nil {
		items = []cartsvc.Line{}
	}
	return cartResponse{
		Message:   msg,
		Cart:      cartBody{ID: v.Cart.ID, Items: items},
		Total:     v.TotalMinor,
		ItemCount: v.ItemCount,
	}
}

// orderSummary is the trimmed order returned alongside a gateway order.
type orderSummary struct {
	ID          string             `json:"_id"`
	OrderID     string             `json:"orderId"`
	TotalAmount int64              `json:"totalAmount"`
	Currency    string             `json:"currency"`
	Items       []domain.OrderItem `json:"items"`
}

type paidCheckoutResponse struct {
	Message         string       `json:"message"`
	Order           orderSummary `json:"order"`
	RazorpayOrderID string       `json:"razorpayOrderId"`
	RazorpayKeyID   string       `json:"razorpayKeyId"`
	Amount          int64        `json:"amount"`
	Currency        string       `json:"currency"`
	IsFree          bool         `json:"isFree"`
}

type freeCheckoutResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
	IsFree  bool          `json:"isFree"`
}

const (
	freeCartMessage   = "Order completed successfully (free items)"
	freeDirectMessage = "Order completed successfully (free item)"
)

// toCheckoutResponse shapes a checkout result. freeMessage is used when no payment is due.
func toCheckoutResponse(c *checkout.Checkout, freeMessage string) any {
	if c.Free {
		return freeCheckoutResponse{
			Message: freeMessage,
			Order:   c.Order,
			IsFree:  true,
		}
	}
	return paidCheckoutResponse{
		Message: "Order created successfully",
		Order: orderSummary{
			ID:          c.Order.ID,
			OrderID:     c.Order.OrderID,
			TotalAmount: c.Order.TotalMinor,
			Currency:    c.Order.Currency,
			Items:       c.Order.Items,
		},
		RazorpayOrderID: c.GatewayOrderID,
		RazorpayKeyID:   c.GatewayKeyID,
		Amount:          c.AmountMinor,
		Currency:        c.Currency,
	}
}

type verifyResponse struct {
	Message string          `json:"message"`
	Order   *domain.Order   `json:"order"`
	Payment *domain.Payment `json:"payment"`
}

type orderView struct {
	domain.Order
	Payment *domain.Payment `json:"payment"`
}

func toOrderView(o checkout.OrderWithPayment) orderView {
	return orderView{Order: o.Order, Payment: o.Payment}
}

type storeItemView struct {
	domain.StoreItem
	IsPurchased bool `json:"isPurchased"`
}
