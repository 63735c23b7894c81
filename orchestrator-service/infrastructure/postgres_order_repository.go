package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents order in database
type postgresOrder struct {
	ID         string    `db:"id"`
	CustomerID string    `db:"customer_id"`
	ProductID  string    `db:"product_id"`
	Quantity   int       `db:"quantity"`
	Amount     int64     `db:"amount"`
	Currency   string    `db:"currency"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

const selectOrderColumns = `
	SELECT id, customer_id, product_id, quantity, amount, currency,
		   status, created_at, updated_at, version
	FROM orders`

// Save inserts a new order or updates the stored one if its version still matches
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.Version.Value == 0 {
		return r.insertOrder(ctx, order)
	}
	return r.updateOrder(ctx, order)
}

func (r *PostgresOrderRepository) insertOrder(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, product_id, quantity, amount, currency,
			status, created_at, updated_at, version
		) VALUES (
			:id, :customer_id, :product_id, :quantity, :amount, :currency,
			:status, :created_at, :updated_at, :version
		)`

	pgOrder := r.toPostgres(order)
	pgOrder.Version = models.NewVersion().Value

	if _, err := r.db.NamedExecContext(ctx, query, pgOrder); err != nil {
		return errors.Wrap(err, "failed to insert order")
	}

	order.Version = models.NewVersion()
	return nil
}

func (r *PostgresOrderRepository) updateOrder(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = :status, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	next := order.Version.Next()
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          order.ID.String(),
		"status":      string(order.Status),
		"updated_at":  order.Timestamps.UpdatedAt,
		"version":     next.Value,
		"old_version": order.Version.Value, // Optimistic locking
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	if err := expectOneRow(result, order.ID); err != nil {
		return err
	}

	order.Version = next
	return nil
}

// FindByID finds an order by ID
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := selectOrderColumns + ` WHERE id = $1`

	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(domain.ErrOrderNotFound, "order %s", id)
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	return r.toDomain(&pgOrder)
}

// FindByCustomerID finds orders by customer, newest first
func (r *PostgresOrderRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Order, error) {
	query := selectOrderColumns + `
		WHERE customer_id = $1
		ORDER BY created_at DESC`

	return r.selectOrders(ctx, query, customerID)
}

// FindByStatus finds orders by status, newest first
func (r *PostgresOrderRepository) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	query := selectOrderColumns + `
		WHERE status = $1
		ORDER BY created_at DESC`

	return r.selectOrders(ctx, query, string(status))
}

func (r *PostgresOrderRepository) selectOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	var pgOrders []postgresOrder
	if err := r.db.SelectContext(ctx, &pgOrders, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to select orders")
	}

	orders := make([]*domain.Order, len(pgOrders))
	for i := range pgOrders {
		order, err := r.toDomain(&pgOrders[i])
		if err != nil {
			return nil, err
		}
		orders[i] = order
	}

	return orders, nil
}

// toPostgres converts domain order to postgres model
func (r *PostgresOrderRepository) toPostgres(order *domain.Order) *postgresOrder {
	return &postgresOrder{
		ID:         order.ID.String(),
		CustomerID: order.CustomerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		Amount:     order.Amount.Amount,
		Currency:   order.Amount.Currency,
		Status:     string(order.Status),
		CreatedAt:  order.Timestamps.CreatedAt,
		UpdatedAt:  order.Timestamps.UpdatedAt,
		Version:    order.Version.Value,
	}
}

// toDomain converts postgres model to domain order
func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder) (*domain.Order, error) {
	id, err := models.NewID(pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	status, err := domain.ParseOrderStatus(pgOrder.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "order %s", pgOrder.ID)
	}

	return &domain.Order{
		ID:         id,
		CustomerID: pgOrder.CustomerID,
		ProductID:  pgOrder.ProductID,
		Quantity:   pgOrder.Quantity,
		Amount:     models.NewMoney(pgOrder.Amount, pgOrder.Currency),
		Status:     status,
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}
