package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
)

// View is the list as shown to the client. Total is only present for the
// cart, a wishlist has no total.
type View struct {
	Items []Item `json:"items"`
	Total *int   `json:"total,omitempty"`
}

func view(ctx context.Context, s *Store) View {
	v := View{Items: s.Items(ctx)}
	if v.Items == nil {
		v.Items = []Item{}
	}
	if s.sum {
		tot := s.Total(ctx)
		v.Total = &tot
	}
	return v
}

func HandleShow(s *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, view(ctx, s), http.StatusOK)
	}
}

// HandleCreateItem resolves the course and snapshots it into the list.
func HandleCreateItem(s *Store, db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding item payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := course.Fetch(ctx, db, in.CourseID)
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching course[%s]: %w", in.CourseID, err)
		}

		s.Add(ctx, Item{
			CourseID:       c.ID,
			Name:           c.Name,
			InstructorName: c.InstructorName,
			Price:          c.Price,
			ImageURL:       c.ImageURL,
			AddedAt:        time.Now().UTC(),
		})

		return web.Respond(ctx, w, view(ctx, s), http.StatusOK)
	}
}

func HandleDeleteItem(s *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "course_id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		s.Remove(ctx, id)

		return web.Respond(ctx, w, view(ctx, s), http.StatusOK)
	}
}

func HandleDelete(s *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s.Clear(ctx)

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
