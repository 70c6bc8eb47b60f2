package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
)

// Session keys for the identity stored by HandleSession.
const (
	userIDKey   = "userID"
	userNameKey = "userName"
	userRoleKey = "userRole"
)

// LoadAndSave loads the request's session into the context and commits it
// back after the handler ran. The response is buffered so the session cookie
// can still be set after the handler wrote its body.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var token string
			if cookie, err := r.Cookie(session.Cookie.Name); err == nil {
				token = cookie.Value
			}

			ctx, err := session.Load(ctx, token)
			if err != nil {
				return fmt.Errorf("loading session: %w", err)
			}

			bw := &bufferedWriter{ResponseWriter: w}
			herr := handler(ctx, bw, r)

			switch session.Status(ctx) {
			case scs.Modified:
				token, expiry, err := session.Commit(ctx)
				if err != nil {
					return fmt.Errorf("committing session: %w", err)
				}
				session.WriteSessionCookie(ctx, w, token, expiry)
			case scs.Destroyed:
				session.WriteSessionCookie(ctx, w, "", time.Time{})
			}

			if bw.wroteHeader {
				w.WriteHeader(bw.code)
			}
			if _, err := w.Write(bw.buf.Bytes()); err != nil {
				return fmt.Errorf("writing buffered response: %w", err)
			}

			return herr
		}
		return h
	}
	return m
}

type bufferedWriter struct {
	http.ResponseWriter
	buf         bytes.Buffer
	code        int
	wroteHeader bool
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	return bw.buf.Write(b)
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if !bw.wroteHeader {
		bw.code = code
		bw.wroteHeader = true
	}
}

// Authenticate turns the session identity into request claims, rejecting
// requests with no established identity.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("no identity in session"))
			}

			clm := claims.Claims{
				UserID: userID,
				Name:   session.GetString(ctx, userNameKey),
				Role:   session.GetString(ctx, userRoleKey),
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Identify attaches claims when the session holds an identity but lets
// anonymous requests through, for routes that only personalize.
func Identify(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if userID := session.GetString(ctx, userIDKey); userID != "" {
				clm := claims.Claims{
					UserID: userID,
					Name:   session.GetString(ctx, userNameKey),
					Role:   session.GetString(ctx, userRoleKey),
				}
				ctx = claims.Set(ctx, clm)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin requires an authenticated session with the admin role.
func Admin(session *scs.SessionManager) web.Middleware {
	authen := Authenticate(session)
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				err := errors.New("user is not an admin")
				return weberr.NewError(err, "forbidden", http.StatusForbidden)
			}
			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}
