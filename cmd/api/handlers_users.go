package main

import (
	"net/http"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/services/users"

	"github.com/go-chi/chi/v5"
)

type createUserRequest struct {
	Username  string      `json:"username" validate:"required,max=150,username"`
	Email     string      `json:"email" validate:"required,max=254,email"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role" validate:"omitempty,role"`
}

type updateUserRequest struct {
	Username  *string      `json:"username" validate:"omitempty,max=150,username"`
	Email     *string      `json:"email" validate:"omitempty,max=254,email"`
	FirstName *string      `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string      `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role" validate:"omitempty,role"`
}

func (req updateUserRequest) patch() users.Patch {
	return users.Patch{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}
}

func (app *Application) listUsers(w http.ResponseWriter, r *http.Request) {
	q, ok := app.readListQuery(w, r, users.SortSafelist)
	if !ok {
		return
	}
	result, total, err := app.users.List(r.Context(), q.Search, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, newPage(result, total, q.NextPage(total)))
}

func (app *Application) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	user, err := app.users.Create(r.Context(), &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, user)
}

func (app *Application) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, user)
}

func (app *Application) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	user, err := app.users.Update(r.Context(), chi.URLParam(r, "username"), req.patch())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, user)
}

func (app *Application) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := app.users.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) getMe(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, requestUser(r))
}

func (app *Application) updateMe(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	user, err := app.users.UpdateMe(r.Context(), requestUser(r), req.patch())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, user)
}
