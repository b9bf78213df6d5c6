package user

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%-]+@[A-Za-z0-9.-]+[.][A-Za-z]+$`)

type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
}

// New validates the email and builds a fresh user. Repositories rehydrate
// rows into the struct directly; this path is only for caller-supplied input.
func New(email, name string) (*User, error) {
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	return &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}, nil
}
