// Package checkout creates orders from carts or single items and settles them after payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/events"
	"lms-commerce/internal/gateway"
	"lms-commerce/internal/logging"
	"lms-commerce/internal/service/access"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	maxOrderIDAttempts = 5
	myOrdersLimit      = 50
	publishTimeout     = 3 * time.Second
)

type Service struct {
	store      Store
	gateway    gateway.Gateway
	grantor    *access.Grantor
	events     events.Publisher
	currency   string
	newOrderID func(time.Time) string
	now        func() time.Time
	logger     logrus.FieldLogger
}

func New(store Store, gw gateway.Gateway, grantor *access.Grantor, pub events.Publisher, currency string, logger logrus.FieldLogger) *Service {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		store:      store,
		gateway:    gw,
		grantor:    grantor,
		events:     pub,
		currency:   currency,
		newOrderID: gateway.NewOrderID,
		now:        time.Now,
		logger:     logging.OrDiscard(logger).WithField("component", "checkout"),
	}
}

// Checkout is the outcome of order creation. Gateway fields are empty for free orders.
type Checkout struct {
	Order          *domain.Order
	Free           bool
	GatewayOrderID string
	GatewayKeyID   string
	AmountMinor    int64
	Currency       string
}

// CreateFromCart turns the user's whole cart into one order.
func (s *Service) CreateFromCart(ctx context.Context, userID string) (*Checkout, error) {
	var res *Checkout
	err := s.store.InTx(ctx, func(r Repos) error {
		cart, err := r.Carts.GetByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Cart not found")
			}
			return err
		}
		items, err := r.Carts.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.Invalid("Cart is empty")
		}

		lines, err := s.revalidate(ctx, r, items)
		if err != nil {
			return err
		}

		refs := make([]domain.ItemRef, 0, len(items))
		for _, it := range items {
			refs = append(refs, it.Ref())
		}
		owned, err := r.Purchases.Owned(ctx, userID, refs)
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			return domain.Conflict(fmt.Sprintf("You already own one of the %ss in your cart", owned[0].Type.Noun()))
		}

		res, err = s.place(ctx, r, userID, lines)
		if err != nil {
			return err
		}
		if res.Free {
			return r.Carts.Clear(ctx, cart.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, res)
	return res, nil
}

// CreateDirect buys a single item without touching the cart.
func (s *Service) CreateDirect(ctx context.Context, userID string, ref domain.ItemRef) (*Checkout, error) {
	if !ref.Type.Valid() {
		return nil, domain.Invalid(`Invalid item type. Must be "course" or "storeItem"`)
	}
	ref.ID = strings.TrimSpace(ref.ID)
	if ref.ID == "" {
		return nil, domain.Invalid("Item ID is required")
	}

	var res *Checkout
	err := s.store.InTx(ctx, func(r Repos) error {
		if domain.IsID(ref.ID) {
			owned, err := r.Purchases.Owned(ctx, userID, []domain.ItemRef{ref})
			if err != nil {
				return err
			}
			if len(owned) > 0 {
				return domain.Conflict(fmt.Sprintf("You have already purchased this %s", ref.Type.Noun()))
			}
		}
		item, err := lookupItem(ctx, r, ref)
		if err != nil {
			return err
		}
		res, err = s.place(ctx, r, userID, []domain.OrderItem{orderLine(*item, 1)})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, res)
	return res, nil
}

// revalidate drops nothing: missing items fail the checkout, stale prices are corrected in place.
func (s *Service) revalidate(ctx context.Context, r Repos, items []domain.CartItem) ([]domain.OrderItem, error) {
	var (
		lines   = make([]domain.OrderItem, 0, len(items))
		invalid []string
	)
	for i := range items {
		it := &items[i]
		current, err := r.Catalog.GetItem(ctx, it.Ref())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				name := it.Snapshot.Name
				if name == "" {
					name = it.ItemID
				}
				invalid = append(invalid, name)
				continue
			}
			return nil, err
		}
		if current.PriceMinor != it.PriceMinor {
			s.logger.WithFields(logrus.Fields{"cart_item": it.ID, "old": it.PriceMinor, "new": current.PriceMinor}).Info("correcting stale cart price")
			if err := r.Carts.UpdateItemPrice(ctx, it.ID, current.PriceMinor); err != nil {
				return nil, err
			}
			it.PriceMinor = current.PriceMinor
		}
		lines = append(lines, orderLine(*current, it.Quantity))
	}
	if len(invalid) > 0 {
		return nil, domain.Invalid("Invalid items in cart: " + strings.Join(invalid, ", "))
	}
	return lines, nil
}

// place inserts the order and either completes it (free) or opens the gateway order (paid).
// It runs inside the caller's transaction, so a gateway failure leaves no order behind.
func (s *Service) place(ctx context.Context, r Repos, userID string, lines []domain.OrderItem) (*Checkout, error) {
	var total int64
	for _, l := range lines {
		total += l.PriceMinor * int64(l.Quantity)
	}
	now := s.now().UTC()
	o := domain.Order{
		UserID:        userID,
		Items:         lines,
		TotalMinor:    total,
		Currency:      s.currency,
		PaymentStatus: domain.PaymentPending,
		PaymentMethod: domain.MethodRazorpay,
	}
	if total == 0 {
		o.PaymentStatus = domain.PaymentCompleted
		o.PaymentMethod = domain.MethodFree
		o.CompletedAt = &now
	}

	created, err := s.insertOrder(ctx, r.Orders, o)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{"order_id": created.OrderID, "user_id": userID, "total": total})

	if created.IsFree() {
		if err := s.grantor.Grant(ctx, r.access(), *created, created.CreatedAt); err != nil {
			return nil, err
		}
		log.Info("free order completed")
		return &Checkout{Order: created, Free: true, Currency: created.Currency}, nil
	}

	remote, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		AmountMinor: total,
		Currency:    created.Currency,
		Receipt:     created.OrderID,
		Notes:       notesFor(userID, created),
	})
	if err != nil {
		log.WithError(err).Error("gateway order failed")
		return nil, pkgerrors.Wrap(err, "Failed to create payment order")
	}
	if err := r.Orders.SetGatewayOrder(ctx, created.ID, remote.ID); err != nil {
		return nil, err
	}
	created.GatewayOrderID = &remote.ID
	log.WithField("gateway_order_id", remote.ID).Info("order created")

	return &Checkout{
		Order:          created,
		GatewayOrderID: remote.ID,
		GatewayKeyID:   s.gateway.KeyID(),
		AmountMinor:    remote.AmountMinor,
		Currency:       created.Currency,
	}, nil
}

type orderCreator interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
}

// insertOrder retries id generation on a unique clash.
func (s *Service) insertOrder(ctx context.Context, orders orderCreator, o domain.Order) (*domain.Order, error) {
	for i := 0; i < maxOrderIDAttempts; i++ {
		o.OrderID = s.newOrderID(s.now())
		created, err := orders.Create(ctx, o)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		s.logger.WithField("order_id", o.OrderID).Warn("order id collision, regenerating")
	}
	return nil, pkgerrors.Errorf("order id collision after %d attempts", maxOrderIDAttempts)
}

func (s *Service) afterCommit(ctx context.Context, c *Checkout) {
	if c != nil && c.Free {
		s.publishCompleted(ctx, *c.Order)
	}
}

func (s *Service) publishCompleted(ctx context.Context, o domain.Order) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pubCtx, events.OrderCompleted(o, s.now())); err != nil {
		s.logger.WithError(err).WithField("order_id", o.OrderID).Warn("publish order completed")
	}
}

func lookupItem(ctx context.Context, r Repos, ref domain.ItemRef) (*domain.CatalogItem, error) {
	if !domain.IsID(ref.ID) {
		return nil, domain.NotFound(ref.Type.NotFoundMessage())
	}
	item, err := r.Catalog.GetItem(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound(ref.Type.NotFoundMessage())
	}
	return item, err
}

func orderLine(item domain.CatalogItem, qty int) domain.OrderItem {
	if qty <= 0 {
		qty = 1
	}
	return domain.OrderItem{
		ItemType:   item.Type,
		ItemID:     item.ID,
		Name:       item.Name,
		PriceMinor: item.PriceMinor,
		Quantity:   qty,
		Thumbnail:  item.Thumbnail,
	}
}

func notesFor(userID string, o *domain.Order) map[string]string {
	notes := map[string]string{"userId": userID, "orderId": o.OrderID}
	if len(o.Items) == 1 {
		notes["itemType"] = string(o.Items[0].ItemType)
		notes["itemId"] = o.Items[0].ItemID
	}
	return notes
}
