package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lms-commerce/internal/domain"
	orderrepo "lms-commerce/internal/repository/order"

	"github.com/sirupsen/logrus"
)

// VerifyInput is the gateway callback payload relayed by the client.
type VerifyInput struct {
	OrderID          string `json:"orderId"`
	GatewayOrderID   string `json:"razorpayOrderId"`
	GatewayPaymentID string `json:"razorpayPaymentId"`
	Signature        string `json:"razorpaySignature"`
}

type VerifyResult struct {
	Order           *domain.Order
	Payment         *domain.Payment
	AlreadyVerified bool
}

// Verify settles a pending order after a successful gateway payment. It is idempotent for completed orders.
func (s *Service) Verify(ctx context.Context, userID string, in VerifyInput) (*VerifyResult, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.OrderID == "" || in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.Signature == "" {
		return nil, domain.Invalid("Missing required payment details")
	}
	log := s.logger.WithFields(logrus.Fields{"order_id": in.OrderID, "user_id": userID, "gateway_order_id": in.GatewayOrderID})
	if !s.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		log.Warn("payment signature rejected")
		return nil, domain.Invalid("Invalid payment signature")
	}

	var res *VerifyResult
	err := s.store.InTx(ctx, func(r Repos) error {
		// Row lock serializes duplicate callbacks for the same order.
		o, err := r.Orders.LockByOrderID(ctx, userID, in.OrderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Order not found")
			}
			return err
		}

		if o.PaymentStatus == domain.PaymentCompleted {
			p, err := r.Payments.GetByOrder(ctx, o.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			res = &VerifyResult{Order: o, Payment: p, AlreadyVerified: true}
			return nil
		}
		if o.PaymentStatus != domain.PaymentPending {
			return domain.Invalid(fmt.Sprintf("Order status is %s, cannot verify payment", o.PaymentStatus))
		}
		if o.GatewayOrderID == nil || *o.GatewayOrderID != in.GatewayOrderID {
			log.Warn("gateway order id mismatch")
			return domain.Invalid("Razorpay order ID mismatch")
		}

		now := s.now().UTC()
		p, err := r.Payments.Create(ctx, domain.Payment{
			OrderID:          o.ID,
			UserID:           userID,
			AmountMinor:      o.TotalMinor,
			Currency:         o.Currency,
			Status:           domain.PaymentCompleted,
			Method:           domain.MethodRazorpay,
			GatewayOrderID:   in.GatewayOrderID,
			GatewayPaymentID: in.GatewayPaymentID,
			GatewaySignature: in.Signature,
			GatewayResponse: map[string]interface{}{
				"razorpay_order_id":   in.GatewayOrderID,
				"razorpay_payment_id": in.GatewayPaymentID,
			},
			AttemptNumber: 1,
			CompletedAt:   &now,
		})
		if err != nil {
			return err
		}

		completed, err := r.Orders.MarkCompleted(ctx, o.ID, orderrepo.CompleteInput{
			GatewayPaymentID: &in.GatewayPaymentID,
			GatewaySignature: &in.Signature,
			PaymentID:        &p.ID,
			CompletedAt:      now,
		})
		if err != nil {
			return err
		}
		if err := s.grantor.Grant(ctx, r.access(), *completed, now); err != nil {
			return err
		}
		if err := r.Carts.ClearByUser(ctx, userID); err != nil {
			return err
		}
		res = &VerifyResult{Order: completed, Payment: p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.AlreadyVerified {
		log.WithField("payment_id", res.Payment.ID).Info("payment verified")
		s.publishCompleted(ctx, *res.Order)
	}
	return res, nil
}
