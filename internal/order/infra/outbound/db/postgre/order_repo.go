package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	"github.com/davicafu/latamtradex/internal/order/domain"
)

// OrderRepoPostgres guarda los pedidos en orders y sus líneas en order_items.
type OrderRepoPostgres struct {
	db *sql.DB
}

var _ domain.OrderRepository = (*OrderRepoPostgres)(nil)

func NewOrderRepoPostgres(db *sql.DB) *OrderRepoPostgres {
	return &OrderRepoPostgres{db: db}
}

// Create inserta el pedido y sus líneas en una transacción.
func (r *OrderRepoPostgres) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.UserID, o.TotalAmount, string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, line, product_id, quantity, price) VALUES ($1, $2, $3, $4, $5)`,
			o.ID, i, it.ProductID, it.Quantity, it.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *OrderRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, status, created_at, updated_at FROM orders WHERE id = $1`, id)

	var o domain.Order
	var status string
	if err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("db scan error: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *OrderRepoPostgres) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, string(status), updatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *OrderRepoPostgres) items(ctx context.Context, id uuid.UUID) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY line`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("db scan error: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ------------------ Inicialización ------------------

// InitPostgres crea las tablas de pedidos.
func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		total_amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS order_items (
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		line INT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		price DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (order_id, line)
	);
	CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);`)
	return err
}
