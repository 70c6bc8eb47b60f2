package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/go-cmp/cmp"
)

// session returns a manager and a context with a fresh session loaded. The
// stores under test must share the manager, scs scopes session data to it.
func session(t *testing.T) (*scs.SessionManager, context.Context) {
	t.Helper()

	sm := scs.New()
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("loading session: %v", err)
	}
	return sm, ctx
}

func item(id string, price int) Item {
	return Item{
		CourseID: id,
		Name:     "course " + id,
		Price:    price,
		AddedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAddIsIdempotent(t *testing.T) {
	sm, ctx := session(t)
	crt := NewCart(sm)

	crt.Add(ctx, item("c1", 500))
	crt.Add(ctx, item("c1", 500))
	crt.Add(ctx, item("c1", 999))

	got := crt.Items(ctx)
	want := []Item{item("c1", 500)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected cart items (-want +got):\n%s", diff)
	}
}

func TestRemoveThenContains(t *testing.T) {
	sm, ctx := session(t)
	crt := NewCart(sm)

	crt.Add(ctx, item("c1", 500))
	crt.Add(ctx, item("c2", 1500))

	crt.Remove(ctx, "c1")
	if crt.Contains(ctx, "c1") {
		t.Fatal("cart still contains a removed course")
	}
	if !crt.Contains(ctx, "c2") {
		t.Fatal("cart lost an unrelated course")
	}

	crt.Remove(ctx, "absent")
	if got := len(crt.Items(ctx)); got != 1 {
		t.Fatalf("expected 1 item after removing an absent id, got %d", got)
	}
}

func TestTotalTracksMutations(t *testing.T) {
	sm, ctx := session(t)
	crt := NewCart(sm)

	if got := crt.Total(ctx); got != 0 {
		t.Fatalf("empty cart total: expected 0, got %d", got)
	}

	crt.Add(ctx, item("c1", 500))
	crt.Add(ctx, item("c2", 1500))
	if got := crt.Total(ctx); got != 2000 {
		t.Fatalf("expected total 2000, got %d", got)
	}

	crt.Add(ctx, item("c2", 1500))
	if got := crt.Total(ctx); got != 2000 {
		t.Fatalf("duplicate add changed the total to %d", got)
	}

	crt.Remove(ctx, "c1")
	if got := crt.Total(ctx); got != 1500 {
		t.Fatalf("expected total 1500 after removal, got %d", got)
	}

	crt.Clear(ctx)
	if got := crt.Total(ctx); got != 0 {
		t.Fatalf("expected total 0 after clear, got %d", got)
	}
}

func TestCartAndWishlistAreIndependent(t *testing.T) {
	sm, ctx := session(t)
	crt := NewCart(sm)
	wsh := NewWishlist(sm)

	crt.Add(ctx, item("c1", 500))
	wsh.Add(ctx, item("c2", 1500))

	if crt.Contains(ctx, "c2") {
		t.Fatal("wishlist item leaked into the cart")
	}
	if wsh.Contains(ctx, "c1") {
		t.Fatal("cart item leaked into the wishlist")
	}

	crt.Clear(ctx)
	if !wsh.Contains(ctx, "c2") {
		t.Fatal("clearing the cart emptied the wishlist")
	}
}
