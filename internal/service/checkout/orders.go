package checkout

import (
	"context"
	"errors"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/receipt"
)

// OrderWithPayment pairs an order with its payment, which is nil for free or unpaid orders.
type OrderWithPayment struct {
	Order   domain.Order
	Payment *domain.Payment
}

// MyOrders lists the user's most recent orders, newest first.
func (s *Service) MyOrders(ctx context.Context, userID string) ([]OrderWithPayment, error) {
	r := s.store.Repos()
	orders, err := r.Orders.ListByUser(ctx, userID, myOrdersLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	payments, err := r.Payments.ListByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	res := make([]OrderWithPayment, 0, len(orders))
	for _, o := range orders {
		item := OrderWithPayment{Order: o}
		if p, ok := payments[o.ID]; ok {
			item.Payment = &p
		}
		res = append(res, item)
	}
	return res, nil
}

// GetOrder looks up one of the user's orders by human order id or internal id.
func (s *Service) GetOrder(ctx context.Context, userID, ref string) (*OrderWithPayment, error) {
	r := s.store.Repos()
	o, err := r.Orders.GetByRef(ctx, userID, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Order not found")
		}
		return nil, err
	}
	p, err := r.Payments.GetByOrder(ctx, o.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &OrderWithPayment{Order: *o, Payment: p}, nil
}

// Receipt renders the PDF receipt of a completed order.
func (s *Service) Receipt(ctx context.Context, userID, ref string) (*domain.Order, []byte, error) {
	ow, err := s.GetOrder(ctx, userID, ref)
	if err != nil {
		return nil, nil, err
	}
	if ow.Order.PaymentStatus != domain.PaymentCompleted {
		return nil, nil, domain.Invalid("Receipt is only available for completed orders")
	}
	u, err := s.store.Repos().Users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := receipt.Render(ow.Order, *u)
	if err != nil {
		return nil, nil, err
	}
	return &ow.Order, pdf, nil
}
