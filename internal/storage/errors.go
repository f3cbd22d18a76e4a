package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference is returned when a foreign key points at a missing row.
	ErrInvalidReference = errors.New("invalid reference")
)

// Constraint names carried by ConstraintError. The unique and foreign key
// names match the schema in migrations/; the reference names are reported
// when a slug given for a title does not resolve.
const (
	UsersUsernameKey       = "users_username_key"
	UsersEmailKey          = "users_email_key"
	CategoriesSlugKey      = "categories_slug_key"
	GenresSlugKey          = "genres_slug_key"
	UniqueReviewConstraint = "unique_author_for_a_title"

	CategoryReference = "category"
	GenreReference    = "genre"
)

// ConstraintError carries the name of the violated database constraint.
type ConstraintError struct {
	Err        error
	Constraint string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Constraint returns the violated constraint name carried by err, if any.
func Constraint(err error) string {
	var cErr *ConstraintError
	if errors.As(err, &cErr) {
		return cErr.Constraint
	}
	return ""
}
