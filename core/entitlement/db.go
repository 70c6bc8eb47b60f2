package entitlement

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Grant records ownership of a course. Granting an already owned course is
// a no-op, so retried confirmations cannot duplicate rows or fail.
func Grant(ctx context.Context, db sqlx.ExtContext, ent Entitlement) error {
	const q = `
	INSERT INTO entitlements (user_id, course_id, created_at)
	VALUES (:user_id, :course_id, :created_at)
	ON CONFLICT (user_id, course_id) DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ent); err != nil {
		return fmt.Errorf("granting entitlement[%s,%s]: %w", ent.UserID, ent.CourseID, err)
	}

	return nil
}

func Has(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) (bool, error) {
	const q = `
	SELECT EXISTS (
		SELECT 1 FROM entitlements
		WHERE user_id = $1 AND course_id = $2
	)`

	var owned bool
	if err := sqlx.GetContext(ctx, db, &owned, q, userID, courseID); err != nil {
		return false, fmt.Errorf("checking entitlement[%s,%s]: %w", userID, courseID, err)
	}

	return owned, nil
}
