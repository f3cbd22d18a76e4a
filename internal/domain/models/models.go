package models

import (
	"time"

	"yamdb/proj/internal/domain/fields"
)

type User struct {
	ID          int64  `json:"-"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Bio         string `json:"bio"`
	Role        Role   `json:"role"`
	IsStaff     bool   `json:"-"`
	IsSuperuser bool   `json:"-"`
	IsActive    bool   `json:"-"`
	// Hash of the last issued confirmation code, nil once consumed.
	ConfirmationCode      *string    `json:"-"`
	ConfirmationExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"-"`
}

var AnonymousUser = &User{}

func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser || u.ID == 0
}

func (u *User) IsAdmin() bool {
	if u.IsAnonymous() {
		return false
	}
	return IsAdmin(u.Role, u.IsStaff, u.IsSuperuser)
}

func (u *User) IsModerator() bool {
	if u.IsAnonymous() {
		return false
	}
	return IsModerator(u.Role)
}

type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Genre struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Title struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Year        int32          `json:"year"`
	Description string         `json:"description"`
	Rating      *fields.Rating `json:"rating"`
	Genre       []Genre        `json:"genre"`
	Category    *Category      `json:"category"`
}

// TitleInput holds writable title fields. Nil pointers are left untouched
// on update, as is a nil GenreSlugs.
type TitleInput struct {
	Name         *string
	Year         *int32
	Description  *string
	CategorySlug *string
	GenreSlugs   []string
}

type TitleFilter struct {
	Category string `schema:"category"`
	Genre    string `schema:"genre"`
	Name     string `schema:"name"`
	Year     int32  `schema:"year"`
}

type Review struct {
	ID      int64     `json:"id"`
	TitleID int64     `json:"title"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int32     `json:"score"`
	PubDate time.Time `json:"pub_date"`
	// AuthorID is used for ownership checks, never serialized.
	AuthorID int64 `json:"-"`
}

type Comment struct {
	ID       int64     `json:"id"`
	ReviewID int64     `json:"review"`
	Text     string    `json:"text"`
	Author   string    `json:"author"`
	PubDate  time.Time `json:"pub_date"`
	AuthorID int64     `json:"-"`
}

type AuthToken struct {
	Token string `json:"token"`
}
