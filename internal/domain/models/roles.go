package models

import (
	"errors"
	"regexp"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role together with the staff and superuser
// flags grants administrative rights.
func IsAdmin(role Role, isStaff, isSuperuser bool) bool {
	return role == RoleAdmin || isStaff || isSuperuser
}

func IsModerator(role Role) bool {
	return role == RoleModerator
}

const (
	UsernameMaxLength = 150
	reservedUsername  = "me"
)

var (
	usernameRx = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)

	ErrUsernameReserved     = errors.New(`username "me" is reserved`)
	ErrUsernameInvalidChars = errors.New("username may contain only letters, digits and @/./+/-/_")
	ErrUsernameTooLong      = errors.New("username is too long")
	ErrUsernameEmpty        = errors.New("username is required")
)

// ValidateUsername is shared by every input that accepts a username:
// sign-up, token exchange, admin user management and profile updates.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return ErrUsernameEmpty
	case strings.EqualFold(username, reservedUsername):
		return ErrUsernameReserved
	case len(username) > UsernameMaxLength:
		return ErrUsernameTooLong
	case !usernameRx.MatchString(username):
		return ErrUsernameInvalidChars
	}
	return nil
}
