// Package repo defines the persistence contracts of the shop API and their
// Postgres implementations.
package repo

import (
	"context"
	"errors"
	"time"

	"ecommerce-shop/shared/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetForUpdate locks the user row until the surrounding transaction
	// ends. Every read that is later written back through Update uses it.
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	TouchLastConnection(ctx context.Context, id string, at time.Time) error
	TouchLastConnectionGitHub(ctx context.Context, id string, at time.Time) error
	AddDocuments(ctx context.Context, id string, docs []models.Document) error
	// DeleteInactive removes users whose latest connection is before the
	// cutoff and returns them.
	DeleteInactive(ctx context.Context, before time.Time) ([]models.User, error)
}

type Carts interface {
	Create(ctx context.Context, c *models.Cart) error
	GetByID(ctx context.Context, id string) (*models.Cart, error)
	// GetForUpdate locks the cart row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Cart, error)
	List(ctx context.Context) ([]models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
	Delete(ctx context.Context, id string) error
}

type Products interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// DecrementStock reports false when stock is lower than qty.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
}

type Tickets interface {
	Create(ctx context.Context, t *models.Ticket) error
}

type Outbox interface {
	Enqueue(ctx context.Context, eventID, aggregateID, eventType string, payload any) error
}

type Store interface {
	Users() Users
	Carts() Carts
	Products() Products
	Tickets() Tickets
	Outbox() Outbox
	// InTx runs fn against a transaction-bound Store, committing when fn
	// returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
