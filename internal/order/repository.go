package order

import (
	"context"
	"database/sql"

	"marketplace-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	// Save upserts the order header, replaces its item set, and appends any
	// history records not yet persisted, all in one transaction. A unique
	// violation (a concurrent request already recorded the same status) is
	// surfaced unwrapped so the service can map it to a domain error.
	Save(ctx context.Context, o *Order) (*Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, o *Order) (*Order, error) {
	log := logger.FromCtx(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 1. Upsert order header
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, total_amount = EXCLUDED.total_amount
	`,
		o.ID, o.UserID, o.Status, o.TotalAmount, o.CreatedAt,
	)
	if err != nil {
		log.Error("db: failed to upsert order", zap.String("order_id", o.ID.String()), zap.Error(err))
		return nil, err
	}

	// 2. Replace item set
	_, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return nil, err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`,
			item.ID, o.ID, item.ProductName, item.Price, item.Quantity,
		)
		if err != nil {
			return nil, err
		}
	}

	// 3. Append history records that are not persisted yet. The guard on id
	// keeps re-saves from re-inserting old rows, while the unique index on
	// (order_id, status) rejects a second record for the same status — that
	// rejection is the authoritative double-payment check.
	for _, change := range o.History {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_status_history (id, order_id, status, changed_at)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (SELECT 1 FROM order_status_history WHERE id = $1)
		`,
			change.ID, o.ID, change.Status, change.ChangedAt,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, o.ID)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_amount, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	if err := r.loadHistory(ctx, &o); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_name, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY seq
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductName, &item.Price, &item.Quantity); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
	}

	return rows.Err()
}

func (r *repository) loadHistory(ctx context.Context, o *Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at, id
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var change StatusChange
		if err := rows.Scan(&change.ID, &change.OrderID, &change.Status, &change.ChangedAt); err != nil {
			return err
		}
		o.History = append(o.History, change)
	}

	return rows.Err()
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	return r.findIDs(ctx, `SELECT id FROM orders WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (r *repository) FindAll(ctx context.Context) ([]*Order, error) {
	return r.findIDs(ctx, `SELECT id FROM orders ORDER BY created_at, id`)
}

// findIDs loads each matching aggregate in full, so list results carry items
// and history like single lookups do.
func (r *repository) findIDs(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var orders []*Order
	for _, id := range ids {
		o, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if o != nil {
			orders = append(orders, o)
		}
	}

	return orders, nil
}
