package test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/irsalhamdi/course-market/core/course"
)

type courseTest struct {
	*TestEnv
}

var courseSeq int

// createCourseOK creates a course as an admin and restores the previous
// session afterwards.
func (ct *courseTest) createCourseOK(t *testing.T, price int) course.Course {
	t.Helper()

	ct.login(t, "admin-1", "ADMIN")
	defer ct.logout(t)

	courseSeq++
	in := map[string]any{
		"name":           fmt.Sprintf("Course %d", courseSeq),
		"description":    "a test course",
		"instructorId":   "inst-1",
		"instructorName": "Jamie Doe",
		"imageUrl":       "https://img.test/course.png",
		"price":          price,
	}

	var c course.Course
	ct.do(t, http.MethodPost, "/courses", in, &c, http.StatusCreated)
	return c
}

func (ct *courseTest) updatePriceOK(t *testing.T, id string, price int) {
	t.Helper()

	ct.login(t, "admin-1", "ADMIN")
	defer ct.logout(t)

	in := map[string]any{"price": price}
	ct.do(t, http.MethodPut, "/courses/"+id, in, nil, http.StatusOK)
}

func (ct *courseTest) listOwnedOK(t *testing.T, want []course.Course) {
	t.Helper()

	var got []course.Course
	ct.do(t, http.MethodGet, "/courses/owned", nil, &got, http.StatusOK)

	opts := []cmp.Option{
		cmpopts.IgnoreFields(course.Course{}, "CreatedAt", "UpdatedAt", "Price"),
		cmpopts.SortSlices(func(a, b course.Course) bool { return a.ID < b.ID }),
	}
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("unexpected owned courses (-want +got):\n%s", diff)
	}
}

func TestCourse(t *testing.T) {
	env, err := NewTestEnv(t, "course_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{env}

	c := ct.createCourseOK(t, 500)

	var listed []course.Course
	ct.do(t, http.MethodGet, "/courses", nil, &listed, http.StatusOK)
	if len(listed) != 1 || listed[0].ID != c.ID {
		t.Fatalf("course list does not contain the created course")
	}

	// Anonymous detail view carries no ownership.
	var det course.Details
	ct.do(t, http.MethodGet, "/courses/"+c.ID, nil, &det, http.StatusOK)
	if det.Owned {
		t.Fatal("anonymous caller reported as owning the course")
	}

	ct.updatePriceOK(t, c.ID, 800)
	ct.do(t, http.MethodGet, "/courses/"+c.ID, nil, &det, http.StatusOK)
	if det.Price != 800 {
		t.Fatalf("expected updated price 800, got %d", det.Price)
	}

	// Creation requires the admin role.
	ct.login(t, "student-1", "STUDENT")
	defer ct.logout(t)
	ct.do(t, http.MethodPost, "/courses", map[string]any{"name": "nope"}, nil, http.StatusForbidden)

	ct.listOwnedOK(t, []course.Course{})
}
