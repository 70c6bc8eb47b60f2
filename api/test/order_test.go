package test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/core/order"
)

type orderTest struct {
	*TestEnv
}

type orderView struct {
	order.Order
	Items []order.Item `json:"items"`
}

// checkoutOK creates an order from the current session cart and unpacks the
// provider's references from the approval URL.
func (ot *orderTest) checkoutOK(t *testing.T) (orderID, paymentID, payerID string) {
	t.Helper()

	var out order.CheckoutOut
	ot.do(t, http.MethodPost, "/orders", nil, &out, http.StatusOK)

	u, err := url.Parse(out.ApprovalURL)
	if err != nil {
		t.Fatalf("parsing approval URL: %v", err)
	}
	if u.Host != "client.test" {
		t.Fatalf("approval URL %q does not target the configured return address", out.ApprovalURL)
	}

	paymentID = u.Query().Get("paymentId")
	payerID = u.Query().Get("PayerID")
	if paymentID == "" || payerID == "" {
		t.Fatalf("approval URL %q is missing provider references", out.ApprovalURL)
	}

	return out.OrderID, paymentID, payerID
}

func (ot *orderTest) confirm(t *testing.T, orderID, paymentID, payerID string, want int) envelope {
	t.Helper()

	in := map[string]string{"paymentId": paymentID, "payerId": payerID}

	var out order.ConfirmOut
	dst := &out
	if want >= 400 {
		dst = nil
	}
	env := ot.do(t, http.MethodPost, "/orders/"+orderID+"/confirm", in, dst, want)

	if want < 400 && out.Status != order.Completed {
		t.Fatalf("confirmation reported status %q, want %q", out.Status, order.Completed)
	}
	return env
}

func (ot *orderTest) showOK(t *testing.T, orderID string) orderView {
	t.Helper()

	var v orderView
	ot.do(t, http.MethodGet, "/orders/"+orderID, nil, &v, http.StatusOK)
	return v
}

func (ot *orderTest) entitlementCount(t *testing.T, userID string) int {
	t.Helper()

	var n int
	const q = `SELECT COUNT(*) FROM entitlements WHERE user_id = $1`
	if err := ot.DB.Get(&n, q, userID); err != nil {
		t.Fatalf("counting entitlements: %v", err)
	}
	return n
}

func TestOrder(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}
	ct := &courseTest{env}
	rt := &cartTest{env}

	c1 := ct.createCourseOK(t, 500)
	c2 := ct.createCourseOK(t, 1500)

	env.login(t, "student-1", "STUDENT")

	rt.addItemOK(t, "/cart", c1.ID)
	v := rt.addItemOK(t, "/cart", c2.ID)
	if *v.Total != 2000 {
		t.Fatalf("expected cart total 2000, got %d", *v.Total)
	}

	orderID, paymentID, payerID := ot.checkoutOK(t)

	ov := ot.showOK(t, orderID)
	if ov.Status != order.Initiated {
		t.Fatalf("expected a fresh order to be %q, got %q", order.Initiated, ov.Status)
	}
	if ov.Amount != 2000 {
		t.Fatalf("expected order amount 2000, got %d", ov.Amount)
	}

	// A catalog price change must not touch the snapshotted order. Logging
	// in again keeps the session data, only the identity changes.
	env.login(t, "admin-1", "ADMIN")
	env.do(t, http.MethodPut, "/courses/"+c1.ID, map[string]any{"price": 600}, nil, http.StatusOK)
	env.login(t, "student-1", "STUDENT")

	ot.confirm(t, orderID, paymentID, payerID, http.StatusOK)

	ov = ot.showOK(t, orderID)
	if ov.Status != order.Completed {
		t.Fatalf("expected order status %q, got %q", order.Completed, ov.Status)
	}
	prices := map[string]int{}
	for _, it := range ov.Items {
		prices[it.CourseID] = it.Price
	}
	if prices[c1.ID] != 500 || prices[c2.ID] != 1500 {
		t.Fatalf("order items lost their snapshot prices: %v", prices)
	}

	ct.listOwnedOK(t, []course.Course{c1, c2})

	if got := rt.showOK(t, "/cart"); len(got.Items) != 0 {
		t.Fatal("cart was not cleared by the successful checkout")
	}

	// Replaying the confirmation succeeds without duplicating grants.
	ot.confirm(t, orderID, paymentID, payerID, http.StatusOK)
	if n := ot.entitlementCount(t, "student-1"); n != 2 {
		t.Fatalf("expected 2 entitlements after replay, got %d", n)
	}

	// Confirming an order that does not exist changes nothing.
	ot.confirm(t, "97c4a904-0853-4a23-9f1c-8a932a1c84a6", paymentID, payerID, http.StatusNotFound)
}

func TestOrderExecuteFailure(t *testing.T) {
	env, err := NewTestEnv(t, "order_failure_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}
	ct := &courseTest{env}
	rt := &cartTest{env}

	c := ct.createCourseOK(t, 700)

	env.login(t, "student-2", "STUDENT")
	rt.addItemOK(t, "/cart", c.ID)

	orderID, paymentID, payerID := ot.checkoutOK(t)

	env.Gateway.FailExecute(true)
	resp := ot.confirm(t, orderID, paymentID, payerID, http.StatusBadGateway)
	if !resp.Retryable {
		t.Fatal("a gateway failure should be reported as retryable")
	}
	env.Gateway.FailExecute(false)

	if ov := ot.showOK(t, orderID); ov.Status != order.Failed {
		t.Fatalf("expected order status %q, got %q", order.Failed, ov.Status)
	}
	if n := ot.entitlementCount(t, "student-2"); n != 0 {
		t.Fatalf("a failed payment granted %d entitlements", n)
	}

	// The failed order is terminal, even with a working gateway again.
	ot.confirm(t, orderID, paymentID, payerID, http.StatusUnprocessableEntity)

	// A fresh checkout of the untouched cart succeeds independently.
	orderID2, paymentID2, payerID2 := ot.checkoutOK(t)
	if orderID2 == orderID {
		t.Fatal("a new checkout reused the failed order")
	}
	ot.confirm(t, orderID2, paymentID2, payerID2, http.StatusOK)
	if n := ot.entitlementCount(t, "student-2"); n != 1 {
		t.Fatalf("expected 1 entitlement after the retried checkout, got %d", n)
	}
}

func TestOrderCancel(t *testing.T) {
	env, err := NewTestEnv(t, "order_cancel_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}
	ct := &courseTest{env}
	rt := &cartTest{env}

	c := ct.createCourseOK(t, 300)

	env.login(t, "student-3", "STUDENT")
	rt.addItemOK(t, "/cart", c.ID)

	orderID, paymentID, payerID := ot.checkoutOK(t)

	var out order.ConfirmOut
	ot.do(t, http.MethodPost, "/orders/"+orderID+"/cancel", nil, &out, http.StatusOK)
	if out.Status != order.Cancelled {
		t.Fatalf("expected status %q, got %q", order.Cancelled, out.Status)
	}

	// Cancellation is terminal: no payment, no second cancel.
	ot.confirm(t, orderID, paymentID, payerID, http.StatusUnprocessableEntity)
	ot.do(t, http.MethodPost, "/orders/"+orderID+"/cancel", nil, nil, http.StatusUnprocessableEntity)

	if n := ot.entitlementCount(t, "student-3"); n != 0 {
		t.Fatalf("a cancelled order granted %d entitlements", n)
	}
}
