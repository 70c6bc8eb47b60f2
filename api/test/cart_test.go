package test

import (
	"net/http"
	"testing"

	"github.com/irsalhamdi/course-market/core/cart"
)

type cartTest struct {
	*TestEnv
}

func (rt *cartTest) addItemOK(t *testing.T, base string, courseID string) cart.View {
	t.Helper()

	var v cart.View
	in := map[string]string{"courseId": courseID}
	rt.do(t, http.MethodPut, base+"/items", in, &v, http.StatusOK)
	return v
}

func (rt *cartTest) showOK(t *testing.T, base string) cart.View {
	t.Helper()

	var v cart.View
	rt.do(t, http.MethodGet, base, nil, &v, http.StatusOK)
	return v
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{env}
	rt := &cartTest{env}

	c1 := ct.createCourseOK(t, 500)
	c2 := ct.createCourseOK(t, 1500)

	env.login(t, "student-1", "STUDENT")
	defer env.logout(t)

	v := rt.showOK(t, "/cart")
	if len(v.Items) != 0 || v.Total == nil || *v.Total != 0 {
		t.Fatalf("expected an empty cart with total 0, got %+v", v)
	}

	rt.addItemOK(t, "/cart", c1.ID)
	v = rt.addItemOK(t, "/cart", c1.ID)
	if len(v.Items) != 1 {
		t.Fatalf("adding the same course twice produced %d entries", len(v.Items))
	}

	v = rt.addItemOK(t, "/cart", c2.ID)
	if *v.Total != 2000 {
		t.Fatalf("expected cart total 2000, got %d", *v.Total)
	}

	// The wishlist is independent and shows no total.
	wv := rt.addItemOK(t, "/wishlist", c1.ID)
	if len(wv.Items) != 1 || wv.Total != nil {
		t.Fatalf("unexpected wishlist view %+v", wv)
	}

	env.do(t, http.MethodDelete, "/cart/items/"+c1.ID, nil, nil, http.StatusOK)
	v = rt.showOK(t, "/cart")
	if len(v.Items) != 1 || v.Items[0].CourseID != c2.ID || *v.Total != 1500 {
		t.Fatalf("unexpected cart after removal: %+v", v)
	}

	wv = rt.showOK(t, "/wishlist")
	if len(wv.Items) != 1 {
		t.Fatal("cart removal touched the wishlist")
	}

	env.do(t, http.MethodDelete, "/cart", nil, nil, http.StatusNoContent)
	v = rt.showOK(t, "/cart")
	if len(v.Items) != 0 {
		t.Fatal("cart is not empty after clearing")
	}

	// Unknown courses cannot be added.
	in := map[string]string{"courseId": "1b4e28ba-2fa1-11d2-883f-0016d3cca427"}
	env.do(t, http.MethodPut, "/cart/items", in, nil, http.StatusNotFound)
}
