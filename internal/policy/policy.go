// Package policy decides whether a requester may perform an operation.
//
// Every check is a pure function of the request method class, the requester
// and, for object-level checks, the id of the object's author. Checks run
// before the operation executes; nothing is applied on denial.
package policy

import (
	"net/http"

	"yamdb/proj/internal/domain/models"
)

type Decision int

const (
	Allow Decision = iota
	// Unauthenticated means the request needs credentials it does not carry.
	Unauthenticated
	Forbidden
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// IsSafeMethod reports whether the method only reads state.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Permission is a collection-level check.
type Permission func(method string, user *models.User) Decision

// ObjectPermission is an object-level check against the object's author.
type ObjectPermission func(method string, user *models.User, authorID int64) Decision

func deny(user *models.User) Decision {
	if user.IsAnonymous() {
		return Unauthenticated
	}
	return Forbidden
}

func Authenticated(_ string, user *models.User) Decision {
	if user.IsAnonymous() {
		return Unauthenticated
	}
	return Allow
}

func AdminOnly(_ string, user *models.User) Decision {
	if !user.IsAnonymous() && user.IsAdmin() {
		return Allow
	}
	return deny(user)
}

func AdminOrReadOnly(method string, user *models.User) Decision {
	if IsSafeMethod(method) {
		return Allow
	}
	return AdminOnly(method, user)
}

// AuthorModeratorAdminOrReadOnly lets anyone read and any authenticated user
// write at collection level.
func AuthorModeratorAdminOrReadOnly(method string, user *models.User) Decision {
	if IsSafeMethod(method) {
		return Allow
	}
	return Authenticated(method, user)
}

// AuthorModeratorAdminOrReadOnlyObject restricts unsafe methods on an object
// to its author, moderators and admins.
func AuthorModeratorAdminOrReadOnlyObject(method string, user *models.User, authorID int64) Decision {
	if IsSafeMethod(method) {
		return Allow
	}
	if user.IsAnonymous() {
		return Unauthenticated
	}
	if user.ID == authorID || user.IsModerator() || user.IsAdmin() {
		return Allow
	}
	return Forbidden
}
