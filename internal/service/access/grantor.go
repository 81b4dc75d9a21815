// Package access turns a completed order into ownership: purchase rows, enrollments and counters.
package access

import (
	"context"
	"errors"
	"time"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/logging"
	enrollmentrepo "lms-commerce/internal/repository/enrollment"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type purchaseWriter interface {
	Grant(ctx context.Context, p domain.UserPurchase) (*domain.UserPurchase, error)
}

type enrollmentWriter interface {
	Upsert(ctx context.Context, in enrollmentrepo.GrantInput) (*domain.Enrollment, bool, error)
}

type counterWriter interface {
	IncrementEnrolled(ctx context.Context, courseID string) error
	RecordStoreSale(ctx context.Context, itemID string, at time.Time) error
}

type userWriter interface {
	RecordPurchase(ctx context.Context, id string, at time.Time) error
}

// Store is the set of writers the grantor uses. They must all share the caller's transaction.
type Store struct {
	Purchases   purchaseWriter
	Enrollments enrollmentWriter
	Catalog     counterWriter
	Users       userWriter
}

// Grantor is the single path from "paid for" to "can access".
type Grantor struct {
	logger logrus.FieldLogger
}

func NewGrantor(logger logrus.FieldLogger) *Grantor {
	return &Grantor{logger: logging.OrDiscard(logger).WithField("component", "access")}
}

// Grant must run at most once per order; the order state machine guarantees that.
// A second grant for an already owned item fails on the purchase unique key and aborts the transaction.
func (g *Grantor) Grant(ctx context.Context, st Store, o domain.Order, at time.Time) error {
	if o.PaymentStatus != domain.PaymentCompleted {
		return pkgerrors.Errorf("grant access: order %s is %s", o.OrderID, o.PaymentStatus)
	}
	log := g.logger.WithFields(logrus.Fields{"order_id": o.OrderID, "user_id": o.UserID})

	for _, it := range o.Items {
		_, err := st.Purchases.Grant(ctx, domain.UserPurchase{
			UserID:      o.UserID,
			ItemType:    it.ItemType,
			ItemID:      it.ItemID,
			OrderID:     o.ID,
			PurchasedAt: at,
			IsActive:    true,
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "grant %s %s", it.ItemType, it.ItemID)
		}

		switch it.ItemType {
		case domain.ItemTypeCourse:
			_, created, err := st.Enrollments.Upsert(ctx, enrollmentrepo.GrantInput{
				UserID:      o.UserID,
				CourseID:    it.ItemID,
				OrderID:     o.ID,
				PurchasedAt: at,
			})
			if err != nil {
				return pkgerrors.Wrapf(err, "enroll in course %s", it.ItemID)
			}
			if created {
				if err := ignoreMissing(st.Catalog.IncrementEnrolled(ctx, it.ItemID)); err != nil {
					return pkgerrors.Wrapf(err, "count enrollment for course %s", it.ItemID)
				}
			}
		case domain.ItemTypeStoreItem:
			if err := ignoreMissing(st.Catalog.RecordStoreSale(ctx, it.ItemID, at)); err != nil {
				return pkgerrors.Wrapf(err, "count sale for store item %s", it.ItemID)
			}
		}
	}

	if err := ignoreMissing(st.Users.RecordPurchase(ctx, o.UserID, at)); err != nil {
		return pkgerrors.Wrap(err, "count user purchase")
	}
	log.WithField("items", len(o.Items)).Info("access granted")
	return nil
}

// Counters on a vanished catalog row are skipped.
func ignoreMissing(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
