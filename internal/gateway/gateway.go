// Package gateway adapts the third-party payment gateway to the checkout flow.
package gateway

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotConfigured is returned by Disabled for any call that needs the gateway.
var ErrNotConfigured = errors.New("payment gateway not configured")

// OrderRequest describes a remote order. AmountMinor is in the currency's minor unit.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// RemoteOrder is the gateway's view of a created order.
type RemoteOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}

type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*RemoteOrder, error)
	// VerifySignature checks a payment callback signature. It does no I/O.
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	// KeyID is the public key handed to the client-side checkout widget.
	KeyID() string
}

// Disabled is used when no gateway credentials are configured. Free checkouts still work.
type Disabled struct{}

func (Disabled) CreateOrder(context.Context, OrderRequest) (*RemoteOrder, error) {
	return nil, ErrNotConfigured
}

func (Disabled) VerifySignature(string, string, string) bool { return false }

func (Disabled) KeyID() string { return "" }
