package entitlement

import "time"

// Entitlement is the durable record that a student owns a course. Rows are
// only ever inserted; revocation does not exist in this system.
type Entitlement struct {
	UserID    string    `json:"userId" db:"user_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
