package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/policy"
	"yamdb/proj/internal/services/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func (app *Application) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				w.Header().Set("Connection", "close")
				app.Http.ServerError(w, r, err, "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

const clientIdleTTL = 5 * time.Minute

func (app *Application) RateLimiter(next http.Handler) http.Handler {
	const op = "middlewares.RateLimiter"
	log := app.log.With("op", op)
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	clients := make(map[string]*client)
	var mu sync.Mutex
	if app.cfg.Limiter.Enabled {
		go func() {
			for {
				time.Sleep(clientIdleTTL)
				mu.Lock()
				for ip, client := range clients {
					if time.Since(client.lastSeen) > clientIdleTTL {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			}
		}()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !app.cfg.Limiter.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		mu.Lock()
		c, ok := clients[ip]
		if !ok {
			c = &client{limiter: rate.NewLimiter(rate.Limit(app.cfg.Limiter.Rps), app.cfg.Limiter.Burst)}
			clients[ip] = c
		}
		c.lastSeen = time.Now()
		allowed := c.limiter.Allow()
		mu.Unlock()
		if !allowed {
			log.Warn("rate limit exceeded", "ip", ip)
			app.metrics.RateLimited.Inc()
			app.Http.TooManyRequests(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type CtxKey string

const CtxKeyUser CtxKey = "user"

func contextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, CtxKeyUser, user)
}

// Authenticate resolves the bearer token, if any, to a user. Requests without
// an Authorization header proceed as anonymous.
func (app *Application) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		user := models.AnonymousUser

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			const bearerPrefix = "Bearer "
			token, found := strings.CutPrefix(authHeader, bearerPrefix)
			if !found || token == "" {
				app.metrics.AuthFailures.WithLabelValues("malformed_header").Inc()
				app.Http.Unauthorized(w, r, "Invalid Authorization header, should be 'Bearer <token>'")
				return
			}
			var err error
			user, err = app.auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrInvalidToken):
					app.metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
					app.Http.Unauthorized(w, r, "Invalid or expired token")
				case errors.Is(err, auth.ErrUserInactive):
					app.metrics.AuthFailures.WithLabelValues("inactive_user").Inc()
					app.Http.Unauthorized(w, r, "User account is not activated")
				default:
					app.Http.ServerError(w, r, err, "")
				}
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

func (app *Application) deny(w http.ResponseWriter, r *http.Request, decision policy.Decision) {
	if decision == policy.Unauthenticated {
		app.Http.Unauthorized(w, r, "Authentication credentials were not provided")
		return
	}
	app.Http.Forbidden(w, r, "You do not have permission to perform this action")
}

// requirePermission runs a collection-level policy check before next.
func (app *Application) requirePermission(perm policy.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if decision := perm(r.Method, requestUser(r)); !decision.Allowed() {
				app.deny(w, r, decision)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkObjectPermission writes the denial response and returns false when the
// requester may not modify an object owned by authorID.
func (app *Application) checkObjectPermission(w http.ResponseWriter, r *http.Request, authorID int64) bool {
	decision := policy.AuthorModeratorAdminOrReadOnlyObject(r.Method, requestUser(r), authorID)
	if !decision.Allowed() {
		app.deny(w, r, decision)
		return false
	}
	return true
}

func (app *Application) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		app.metrics.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		app.metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
