package logger

import (
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options configures Init.
type Options struct {
	Development bool
	SentryDSN   string
	Environment string
	Release     string
}

// Init installs the default logger.
// Development: text on stdout at debug level. Otherwise JSON at info level.
// With a Sentry DSN, error records are also sent to Sentry.
func Init(opts Options) *slog.Logger {
	level := slog.LevelInfo
	var base slog.Handler
	if opts.Development {
		level = slog.LevelDebug
		base = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		base = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	handlers := []slog.Handler{base}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			Environment:      opts.Environment,
			Release:          opts.Release,
			TracesSampleRate: 0.2,
		})
		if err != nil {
			slog.New(base).Warn("sentry disabled", "error", err)
		} else {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	handler := base
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	}

	log := slog.New(handler).With("service", "claimguard")
	slog.SetDefault(log)
	return log
}
