package help

import (
	"io"
	"log/slog"
	"os"
)

func Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	h := slog.NewJSONHandler(os.Stdout, opts)

	return slog.New(h).With(
		slog.String("service", "ashCompactor"),
		slog.String("env", "test"),
	)
}

// Discard drops every record; used where log output only adds noise.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
