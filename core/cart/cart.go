package cart

import (
	"context"
	"encoding/gob"
	"time"

	"github.com/alexedwards/scs/v2"
)

func init() {
	gob.Register(List{})
}

// Item is a course snapshot taken when the student picked it. The price
// recorded here is the one carried into an order at checkout.
type Item struct {
	CourseID       string    `json:"courseId"`
	Name           string    `json:"name"`
	InstructorName string    `json:"instructorName"`
	Price          int       `json:"price"`
	ImageURL       string    `json:"imageUrl"`
	AddedAt        time.Time `json:"addedAt"`
}

type List struct {
	Items []Item `json:"items"`
}

type ItemNew struct {
	CourseID string `json:"courseId" validate:"required,uuid"`
}

const (
	cartKey     = "cart"
	wishlistKey = "wishlist"
)

// Store keeps one list of course picks in the caller's session, so it
// survives page navigation but dies with the session. Cart and wishlist are
// two independent stores over the same session.
type Store struct {
	session *scs.SessionManager
	key     string
	sum     bool
}

func NewCart(session *scs.SessionManager) *Store {
	return &Store{session: session, key: cartKey, sum: true}
}

func NewWishlist(session *scs.SessionManager) *Store {
	return &Store{session: session, key: wishlistKey}
}

func (s *Store) list(ctx context.Context) List {
	l, _ := s.session.Get(ctx, s.key).(List)
	return l
}

// Add inserts the item unless its course is already present.
func (s *Store) Add(ctx context.Context, item Item) {
	l := s.list(ctx)
	for _, it := range l.Items {
		if it.CourseID == item.CourseID {
			return
		}
	}

	l.Items = append(l.Items, item)
	s.session.Put(ctx, s.key, l)
}

// Remove deletes the matching entry, a no-op when absent.
func (s *Store) Remove(ctx context.Context, courseID string) {
	l := s.list(ctx)
	for i, it := range l.Items {
		if it.CourseID == courseID {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			s.session.Put(ctx, s.key, l)
			return
		}
	}
}

func (s *Store) Contains(ctx context.Context, courseID string) bool {
	for _, it := range s.list(ctx).Items {
		if it.CourseID == courseID {
			return true
		}
	}
	return false
}

func (s *Store) Items(ctx context.Context) []Item {
	return s.list(ctx).Items
}

func (s *Store) Total(ctx context.Context) int {
	tot := 0
	for _, it := range s.list(ctx).Items {
		tot += it.Price
	}
	return tot
}

func (s *Store) Clear(ctx context.Context) {
	s.session.Remove(ctx, s.key)
}
