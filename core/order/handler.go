package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/cart"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/core/entitlement"
	"github.com/irsalhamdi/course-market/core/payment"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
)

// prepare persists the pending order together with its snapshotted items in
// one transaction.
func prepare(ctx context.Context, db *sqlx.DB, ord Order, items []cart.Item) error {
	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, it := range items {
			oit := Item{
				OrderID:   ord.ID,
				CourseID:  it.CourseID,
				Price:     it.Price,
				CreatedAt: ord.CreatedAt,
			}

			if err := CreateItem(ctx, tx, oit); err != nil {
				return fmt.Errorf("creating item: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("creating the order for user[%s]: %w", ord.UserID, err)
	}
	return nil
}

// fail marks the order failed from any pre-completion state. Terminal
// states are left untouched.
func fail(ctx context.Context, db *sqlx.DB, id string) error {
	pre := []Status{Pending, Initiated, Approved}
	if _, err := Transition(ctx, db, id, Failed, pre, time.Now().UTC()); err != nil {
		return fmt.Errorf("failing order[%s]: %w", id, err)
	}
	return nil
}

// complete performs the approved to completed transition and the
// entitlement grants in one transaction. It reports false without granting
// anything when the conditional update lost, which happens exactly when a
// concurrent confirmation got there first.
func complete(ctx context.Context, db *sqlx.DB, ord Order) (bool, error) {
	swapped := false

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()

		ok, err := Transition(ctx, tx, ord.ID, Completed, []Status{Approved}, now)
		if err != nil {
			return fmt.Errorf("updating status: %w", err)
		}
		if !ok {
			return nil
		}

		items, err := FetchItems(ctx, tx, ord.ID)
		if err != nil {
			return fmt.Errorf("fetching items: %w", err)
		}

		for _, it := range items {
			ent := entitlement.Entitlement{
				UserID:    ord.UserID,
				CourseID:  it.CourseID,
				CreatedAt: now,
			}

			if err := entitlement.Grant(ctx, tx, ent); err != nil {
				return fmt.Errorf("granting access to course[%s]: %w", it.CourseID, err)
			}
		}

		swapped = true
		return nil
	})

	if err != nil {
		return false, fmt.Errorf("completing order[%s]: %w", ord.ID, err)
	}
	return swapped, nil
}

// HandleCreate builds a pending order from the session cart, asks the
// gateway for authorization and hands the approval URL back to the client.
func HandleCreate(db *sqlx.DB, gw payment.Gateway, crt *cart.Store, cfg config.Payment) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		items := crt.Items(ctx)
		if len(items) == 0 {
			err := errors.New("no items to checkout")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		ord := Order{
			ID:        validate.GenerateID(),
			UserID:    clm.UserID,
			Status:    Pending,
			Currency:  cfg.Currency,
			Amount:    crt.Total(ctx),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := prepare(ctx, db, ord, items); err != nil {
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		lines := make([]payment.LineItem, 0, len(items))
		for _, it := range items {
			lines = append(lines, payment.LineItem{
				Name:        it.Name,
				Description: "by " + it.InstructorName,
				Price:       it.Price,
			})
		}

		auth, err := gw.Authorize(ctx, payment.AuthorizeRequest{
			Amount:    ord.Amount,
			Currency:  ord.Currency,
			Items:     lines,
			ReturnURL: cfg.ReturnURL,
			CancelURL: cfg.CancelURL,
		})
		if err != nil {
			if ferr := fail(ctx, db, ord.ID); ferr != nil {
				return fmt.Errorf("marking order failed after authorization error[%v]: %w", err, ferr)
			}
			return weberr.Gateway(fmt.Errorf("authorizing order[%s]: %w", ord.ID, err), "payment authorization failed")
		}

		ok, err := Initiate(ctx, db, ord.ID, auth.ProviderID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("recording payment[%s] on order[%s]: %w", auth.ProviderID, ord.ID, err)
		}
		if !ok {
			return fmt.Errorf("order[%s] left the pending state before authorization was recorded", ord.ID)
		}

		out := CheckoutOut{OrderID: ord.ID, ApprovalURL: auth.ApprovalURL}
		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

// HandleConfirm finalizes the payment when the buyer is redirected back
// from the provider. The client-held order id is the only lookup key, the
// provider reference is merely checked against it. Replays of an already
// completed order succeed without touching anything.
func HandleConfirm(db *sqlx.DB, gw payment.Gateway, crt *cart.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var in ConfirmIn
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding confirmation payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", orderID, err)
		}

		if ord.UserID != clm.UserID {
			return weberr.NotFound(errors.New("order belongs to another user"))
		}

		switch ord.Status {
		case Completed:
			// Idempotent replay.
			return web.Respond(ctx, w, ConfirmOut{OrderID: ord.ID, Status: Completed}, http.StatusOK)
		case Failed, Cancelled:
			err := fmt.Errorf("order[%s] is %s and can no longer be paid", ord.ID, ord.Status)
			return weberr.NewError(err, "order can no longer be paid", http.StatusUnprocessableEntity)
		}

		if !ord.ProviderID.Valid || ord.ProviderID.String != in.PaymentID {
			return weberr.BadRequest(fmt.Errorf("payment[%s] does not belong to order[%s]", in.PaymentID, ord.ID))
		}

		// The buyer came back from the approval page. A false return means
		// another request already moved the order past initiated.
		if _, err := Approve(ctx, db, ord.ID, in.PayerID, time.Now().UTC()); err != nil {
			return fmt.Errorf("approving order[%s]: %w", ord.ID, err)
		}

		exec, err := gw.Execute(ctx, in.PaymentID, in.PayerID)
		if err != nil {
			if ferr := fail(ctx, db, ord.ID); ferr != nil {
				return fmt.Errorf("marking order failed after execution error[%v]: %w", err, ferr)
			}
			return weberr.Gateway(fmt.Errorf("executing payment[%s]: %w", in.PaymentID, err), "payment execution failed")
		}

		if exec.Status != payment.StatusCompleted {
			err := fmt.Errorf("payment[%s] executed with status[%s] different from %q", in.PaymentID, exec.Status, payment.StatusCompleted)
			if ferr := fail(ctx, db, ord.ID); ferr != nil {
				return fmt.Errorf("marking order failed after execution error[%v]: %w", err, ferr)
			}
			return weberr.Gateway(err, "payment execution failed")
		}

		swapped, err := complete(ctx, db, ord)
		if err != nil {
			return fmt.Errorf("the payment was executed but fulfillment failed: %w", err)
		}

		if !swapped {
			cur, err := Fetch(ctx, db, ord.ID)
			if err != nil {
				return fmt.Errorf("re-fetching order[%s]: %w", ord.ID, err)
			}
			if cur.Status != Completed {
				return fmt.Errorf("order[%s] in unexpected state[%s] after execution", ord.ID, cur.Status)
			}
		}

		crt.Clear(ctx)

		return web.Respond(ctx, w, ConfirmOut{OrderID: ord.ID, Status: Completed}, http.StatusOK)
	}
}

// HandleCancel lets the buyer abandon an order before approval.
func HandleCancel(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", orderID, err)
		}

		if ord.UserID != clm.UserID {
			return weberr.NotFound(errors.New("order belongs to another user"))
		}

		ok, err := Transition(ctx, db, ord.ID, Cancelled, []Status{Pending, Initiated}, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("cancelling order[%s]: %w", ord.ID, err)
		}
		if !ok {
			err := fmt.Errorf("order[%s] in state[%s] cannot be cancelled", ord.ID, ord.Status)
			return weberr.NewError(err, "order can no longer be cancelled", http.StatusUnprocessableEntity)
		}

		return web.Respond(ctx, w, ConfirmOut{OrderID: ord.ID, Status: Cancelled}, http.StatusOK)
	}
}

// HandleShow returns the order with its snapshotted items, owner only.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching order[%s]: %w", orderID, err)
		}

		if ord.UserID != clm.UserID {
			return weberr.NotFound(errors.New("order belongs to another user"))
		}

		items, err := FetchItems(ctx, db, ord.ID)
		if err != nil {
			return fmt.Errorf("fetching items of order[%s]: %w", ord.ID, err)
		}

		out := struct {
			Order
			Items []Item `json:"items"`
		}{ord, items}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}
