package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"yamdb/proj/internal/lib/logger"
)

func (app *Application) newServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(app.cfg.Server.Host, app.cfg.Server.Port),
		Handler:      app.routes(),
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
		ErrorLog:     logger.LogAdapter(app.log),
	}
}

// serve listens on ln until ctx is cancelled, then drains in-flight requests
// for at most Server.ShutdownTimeout.
func (app *Application) serve(ctx context.Context, ln net.Listener) error {
	const op = "main.Application.serve"
	log := app.log.With("op", op)
	server := app.newServer()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", ln.Addr().String(), "version", version)
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("%s: %w", op, err)
	case <-ctx.Done():
	}

	log.Info("shutting down the server gracefully", "timeout", app.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("graceful shutdown timed out, forcing exit")
			server.Close()
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("server stopped")
	return nil
}

// listen binds the configured address.
func (app *Application) listen() (net.Listener, error) {
	return net.Listen("tcp", net.JoinHostPort(app.cfg.Server.Host, app.cfg.Server.Port))
}
