package main

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"yamdb/proj/internal/config"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Http struct {
	log *slog.Logger
	cfg *config.Config
}

type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Page is the body of every list endpoint. NextPage is null on the last page.
type Page struct {
	Count    int  `json:"count"`
	NextPage *int `json:"next_page"`
	Results  any  `json:"results"`
}

func newPage[T any](results []T, total, nextPage int) Page {
	if results == nil {
		results = []T{}
	}
	p := Page{Count: total, Results: results}
	if nextPage > 0 {
		p.NextPage = &nextPage
	}
	return p
}

func processMsg(status int, msg string) string {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return msg
}

func (h *Http) setupLogPerReq(r *http.Request) *slog.Logger {
	return h.log.With(
		"request_id",
		middleware.GetReqID(r.Context()),
		"method",
		r.Method,
		"path",
		r.URL.Path,
	)
}

func (h *Http) JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func (h *Http) Ok(w http.ResponseWriter, r *http.Request, data any) {
	h.JSON(w, r, data, http.StatusOK)
}

func (h *Http) Created(w http.ResponseWriter, r *http.Request, data any) {
	h.JSON(w, r, data, http.StatusCreated)
}

func (h *Http) NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Http) Error(w http.ResponseWriter, r *http.Request, errs map[string]string, msg string, status int) {
	h.JSON(w, r, ErrorResponse{Success: false, Message: processMsg(status, msg), Errors: errs}, status)
}

func (h *Http) BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, nil, msg, http.StatusBadRequest)
}

func (h *Http) ValidationError(w http.ResponseWriter, r *http.Request, errs map[string]string) {
	h.Error(w, r, errs, "Validation failed", http.StatusBadRequest)
}

func (h *Http) Unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	h.Error(w, r, nil, msg, http.StatusUnauthorized)
}

func (h *Http) Forbidden(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, nil, msg, http.StatusForbidden)
}

func (h *Http) NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	h.Error(w, r, nil, msg, http.StatusNotFound)
}

func (h *Http) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Error(w, r, nil, "", http.StatusMethodNotAllowed)
}

func (h *Http) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	h.Error(w, r, nil, "Rate limit exceeded", http.StatusTooManyRequests)
}

func (h *Http) ServerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := http.StatusInternalServerError
	defaultErrMsg := "Sorry! Can't process your request. Please try again later."
	log := h.setupLogPerReq(r)
	if err != nil {
		log.Error(err.Error())
	}
	if msg == "" {
		msg = defaultErrMsg
	}
	if h.cfg.Debug && err != nil {
		msg = err.Error() + "\n" + string(debug.Stack())
		w.WriteHeader(status)
		w.Write([]byte(msg))
		return
	}
	h.Error(w, r, nil, msg, status)
}
