package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, status, currency, amount, provider_id, payer_id, created_at, updated_at)
	VALUES
		(:order_id, :user_id, :status, :currency, :amount, :provider_id, :payer_id, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("creating order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items (order_id, course_id, price, created_at)
	VALUES (:order_id, :course_id, :price, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("creating order item: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order[%s]: %w", id, err)
	}

	return ord, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `
	SELECT order_id, course_id, price, created_at FROM order_items
	WHERE order_id = $1
	ORDER BY course_id`

	its := []Item{}
	if err := sqlx.SelectContext(ctx, db, &its, q, orderID); err != nil {
		return nil, fmt.Errorf("fetching items of order[%s]: %w", orderID, err)
	}

	return its, nil
}

// Transition moves the order to a new status only when its stored status is
// one of from. The affected-row count is the optimistic guard: a false
// return means some other request changed the status first.
func Transition(ctx context.Context, db sqlx.ExtContext, id string, to Status, from []Status, now time.Time) (bool, error) {
	const q = `
	UPDATE orders SET status = ?, updated_at = ?
	WHERE order_id = ? AND status IN (?)`

	query, args, err := sqlx.In(q, to, now, id, from)
	if err != nil {
		return false, fmt.Errorf("building transition query: %w", err)
	}

	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return false, fmt.Errorf("transitioning order[%s] to %s: %w", id, to, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return n > 0, nil
}

// Initiate records the provider's payment reference and moves the order
// from pending to initiated.
func Initiate(ctx context.Context, db sqlx.ExtContext, id string, providerID string, now time.Time) (bool, error) {
	const q = `
	UPDATE orders SET status = $2, provider_id = $3, updated_at = $4
	WHERE order_id = $1 AND status = $5`

	res, err := db.ExecContext(ctx, q, id, Initiated, providerID, now, Pending)
	if err != nil {
		return false, fmt.Errorf("initiating order[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return n > 0, nil
}

// Approve records the payer reference when the buyer comes back from the
// provider, moving the order from initiated to approved.
func Approve(ctx context.Context, db sqlx.ExtContext, id string, payerID string, now time.Time) (bool, error) {
	const q = `
	UPDATE orders SET status = $2, payer_id = $3, updated_at = $4
	WHERE order_id = $1 AND status = $5`

	res, err := db.ExecContext(ctx, q, id, Approved, payerID, now, Initiated)
	if err != nil {
		return false, fmt.Errorf("approving order[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return n > 0, nil
}
