package course

import "time"

type Course struct {
	ID             string    `json:"id" db:"course_id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	InstructorID   string    `json:"instructorId" db:"instructor_id"`
	InstructorName string    `json:"instructorName" db:"instructor_name"`
	ImageURL       string    `json:"imageUrl" db:"image_url"`
	Price          int       `json:"price" db:"price"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
	Version        int       `json:"-" db:"version"`
}

type CourseNew struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description" validate:"required"`
	InstructorID   string `json:"instructorId" validate:"required"`
	InstructorName string `json:"instructorName" validate:"required"`
	Price          int    `json:"price" validate:"gte=0,lte=10000"`
	ImageURL       string `json:"imageUrl" validate:"required"`
}

type CourseUp struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	InstructorName *string `json:"instructorName"`
	Price          *int    `json:"price" validate:"omitempty,gte=0,lte=10000"`
	ImageURL       *string `json:"imageUrl"`
}
