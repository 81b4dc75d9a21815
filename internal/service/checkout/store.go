package checkout

import (
	"context"

	"lms-commerce/internal/db"
	cartrepo "lms-commerce/internal/repository/cart"
	catalogrepo "lms-commerce/internal/repository/catalog"
	enrollmentrepo "lms-commerce/internal/repository/enrollment"
	orderrepo "lms-commerce/internal/repository/order"
	paymentrepo "lms-commerce/internal/repository/payment"
	purchaserepo "lms-commerce/internal/repository/purchase"
	userrepo "lms-commerce/internal/repository/user"
	"lms-commerce/internal/service/access"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Repos is one consistent view of every repository the checkout flow touches.
type Repos struct {
	Carts       cartrepo.Repository
	Catalog     catalogrepo.Repository
	Orders      orderrepo.Repository
	Payments    paymentrepo.Repository
	Purchases   purchaserepo.Repository
	Enrollments enrollmentrepo.Repository
	Users       userrepo.Repository
}

func (r Repos) access() access.Store {
	return access.Store{
		Purchases:   r.Purchases,
		Enrollments: r.Enrollments,
		Catalog:     r.Catalog,
		Users:       r.Users,
	}
}

// Store hands out repositories, either directly or bound to a transaction.
type Store interface {
	Repos() Repos
	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(r Repos) error) error
}

type pgStore struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgresStore(pool *pgxpool.Pool, logger logrus.FieldLogger) Store {
	return &pgStore{pool: pool, logger: logger}
}

func (s *pgStore) Repos() Repos {
	return reposOver(s.pool, s.logger)
}

func (s *pgStore) InTx(ctx context.Context, fn func(r Repos) error) error {
	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(reposOver(tx, s.logger))
	})
}

func reposOver(q db.DBTX, logger logrus.FieldLogger) Repos {
	return Repos{
		Carts:       cartrepo.NewPostgres(q, logger),
		Catalog:     catalogrepo.NewPostgres(q, logger),
		Orders:      orderrepo.NewPostgres(q, logger),
		Payments:    paymentrepo.NewPostgres(q, logger),
		Purchases:   purchaserepo.NewPostgres(q, logger),
		Enrollments: enrollmentrepo.NewPostgres(q, logger),
		Users:       userrepo.NewPostgres(q, logger),
	}
}
