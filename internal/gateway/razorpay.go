package gateway

import (
	"context"

	"lms-commerce/internal/logging"

	"github.com/pkg/errors"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/sirupsen/logrus"
)

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay talks to the Razorpay orders API.
type Razorpay struct {
	orders orderCreator
	keyID  string
	secret string
	logger logrus.FieldLogger
}

func NewRazorpay(keyID, secret string, logger logrus.FieldLogger) (*Razorpay, error) {
	if keyID == "" || secret == "" {
		return nil, ErrNotConfigured
	}
	client := razorpay.NewClient(keyID, secret)
	return &Razorpay{
		orders: client.Order,
		keyID:  keyID,
		secret: secret,
		logger: logging.OrDiscard(logger).WithField("component", "razorpay"),
	}, nil
}

func (r *Razorpay) KeyID() string {
	return r.keyID
}

func (r *Razorpay) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifySignature(r.secret, gatewayOrderID, paymentID, signature)
}

// CreateOrder has no retry: a failure aborts the caller's checkout.
func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*RemoteOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.AmountMinor <= 0 {
		return nil, errors.Errorf("create gateway order: amount must be positive, got %d", req.AmountMinor)
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	body, err := r.orders.Create(map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		r.logger.WithError(err).WithField("receipt", req.Receipt).Error("create order failed")
		return nil, errors.Wrap(err, "create gateway order")
	}
	return parseOrder(body, req)
}

func parseOrder(body map[string]interface{}, req OrderRequest) (*RemoteOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("create gateway order: response has no order id")
	}
	out := &RemoteOrder{
		ID:          id,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
	}
	switch amt := body["amount"].(type) {
	case float64:
		out.AmountMinor = int64(amt)
	case int64:
		out.AmountMinor = amt
	case int:
		out.AmountMinor = int64(amt)
	}
	if cur, ok := body["currency"].(string); ok && cur != "" {
		out.Currency = cur
	}
	if st, ok := body["status"].(string); ok {
		out.Status = st
	}
	if out.AmountMinor != req.AmountMinor {
		return nil, errors.Errorf("create gateway order: amount mismatch, sent %d got %d", req.AmountMinor, out.AmountMinor)
	}
	return out, nil
}
