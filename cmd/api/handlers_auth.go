package main

import (
	"net/http"

	"yamdb/proj/internal/domain/models"
)

type signupRequest struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,max=254,email"`
}

func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	user, err := app.auth.Signup(r.Context(), req.Username, req.Email)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, signupRequest{Username: user.Username, Email: user.Email})
}

type tokenRequest struct {
	Username         string `json:"username" validate:"required,max=150,username"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

func (app *Application) obtainToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !app.decodeAndValidate(w, r, &req) {
		return
	}
	token, err := app.auth.ObtainToken(r.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, models.AuthToken{Token: token})
}
