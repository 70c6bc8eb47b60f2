package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/validate"
)

// SessionNew is the identity asserted by the trusted upstream provider. The
// core only consumes it, it performs no credential checks of its own.
type SessionNew struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name"`
	Role   string `json:"role" validate:"omitempty,oneof=STUDENT ADMIN"`
}

// HandleSession stores the provided identity in a fresh session.
func HandleSession(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var sn SessionNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding session payload: %w", err))
		}

		if err := validate.Check(sn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if sn.Role == "" {
			sn.Role = "STUDENT"
		}

		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}

		session.Put(ctx, userIDKey, sn.UserID)
		session.Put(ctx, userNameKey, sn.Name)
		session.Put(ctx, userRoleKey, sn.Role)

		return web.Respond(ctx, w, sn, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
