package logger

import (
	"bytes"
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	"yamdb/proj/internal/lib/logger/handlers/slogpretty"
)

// SetupLogger logs to stdout tagged with the binary that produced the record.
func SetupLogger(debug bool, component string) *slog.Logger {
	return New(os.Stdout, debug).With("component", component)
}

// New writes coloured text at debug level when debug is set and JSON at
// info level otherwise.
func New(w io.Writer, debug bool) *slog.Logger {
	var handler slog.Handler
	if debug {
		handler = slogpretty.NewPrettyHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

type stdWriter struct {
	log   *slog.Logger
	level slog.Level
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg := string(bytes.TrimRight(p, "\n"))
	w.log.Log(context.Background(), w.level, msg, "source", "net/http")
	return len(p), nil
}

// LogAdapter bridges a *log.Logger to slog. http.Server only writes
// connection and handler errors to ErrorLog, so they are logged as warnings.
func LogAdapter(logger *slog.Logger) *log.Logger {
	return log.New(stdWriter{log: logger, level: slog.LevelWarn}, "", 0)
}
