package models

import "time"

// User is a row of the users table.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Age       int       `json:"age" db:"age"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NewUser holds validated, trimmed input for an insert. The id and
// timestamps are assigned by the database.
type NewUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

const (
	NameMaxLength  = 100
	EmailMaxLength = 255
	AgeMin         = 0
	AgeMax         = 150
)
