package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/services/auth"
	"yamdb/proj/internal/services/catalog"
	"yamdb/proj/internal/services/reviews"
	"yamdb/proj/internal/services/users"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

func (app *Application) extractIDParam(w http.ResponseWriter, r *http.Request, name string) (id int64, extracted bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		app.Http.NotFound(w, r, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	if id < 1 {
		app.Http.NotFound(w, r, fmt.Sprintf("%s must be greater than zero", name))
		return 0, false
	}
	return id, true
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	src := http.MaxBytesReader(w, r.Body, int64(maxBytes))
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}

// decodeAndValidate reads a JSON body into dst and validates it, writing the
// error response itself. It reports whether the handler may proceed.
func (app *Application) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := app.readJSON(w, r, dst); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return false
	}
	if errs := validator.ValidateStruct(app.validator, dst); errs != nil {
		app.Http.ValidationError(w, r, errs)
		return false
	}
	return true
}

// readQuery decodes the query string into dst with gorilla/schema and
// validates the result.
func (app *Application) readQuery(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := app.decoder.Decode(dst, r.URL.Query()); err != nil {
		errs := make(map[string]string)
		var multiErr schema.MultiError
		if errors.As(err, &multiErr) {
			for field := range multiErr {
				errs[field] = "This field is invalid"
			}
		} else {
			errs["query"] = err.Error()
		}
		app.Http.ValidationError(w, r, errs)
		return false
	}
	if errs := validator.ValidateStruct(app.validator, dst); errs != nil {
		app.Http.ValidationError(w, r, errs)
		return false
	}
	return true
}

type listQuery struct {
	filters.Filters
	Search string `schema:"search" validate:"max=256"`
}

func (app *Application) readListQuery(w http.ResponseWriter, r *http.Request, safelist []string) (listQuery, bool) {
	q := listQuery{Filters: filters.Filters{SortSafelist: safelist}}
	if !app.readQuery(w, r, &q) {
		return q, false
	}
	if !q.ValidSort() {
		app.Http.ValidationError(w, r, map[string]string{"ordering": "Unsupported ordering field"})
		return q, false
	}
	return q, true
}

func requestUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(CtxKeyUser).(*models.User)
	if !ok || user == nil {
		return models.AnonymousUser
	}
	return user
}

// handleServiceError maps service errors onto HTTP responses.
func (app *Application) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs validator.Errors
	switch {
	case errors.As(err, &fieldErrs):
		app.Http.ValidationError(w, r, fieldErrs)
	case errors.Is(err, reviews.ErrReviewAlreadyExists):
		app.Http.ValidationError(w, r, map[string]string{"title": reviews.ErrReviewAlreadyExists.Error()})
	case errors.Is(err, auth.ErrInvalidConfirmationCode):
		app.Http.ValidationError(w, r, map[string]string{"confirmation_code": "Invalid confirmation code"})
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, users.ErrUserNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrGenreNotFound),
		errors.Is(err, catalog.ErrTitleNotFound),
		errors.Is(err, reviews.ErrTitleNotFound),
		errors.Is(err, reviews.ErrReviewNotFound),
		errors.Is(err, reviews.ErrCommentNotFound):
		app.Http.NotFound(w, r, err.Error())
	default:
		app.Http.ServerError(w, r, err, "")
	}
}
