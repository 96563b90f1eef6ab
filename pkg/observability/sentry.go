package observability

import (
	"time"

	"medrec/pkg/config"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// InitSentry is a no-op when no DSN is configured; the returned flush func is
// always safe to defer.
func InitSentry(conf config.Sentry, serviceName string, logger *zap.SugaredLogger) func() {
	if conf.DSN == "" {
		logger.Info("sentry disabled: no DSN configured")
		return func() {}
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              conf.DSN,
		AttachStacktrace: true,
		Release:          conf.Release,
		Environment:      conf.Environment,
		ServerName:       serviceName,
		SampleRate:       1,
	})
	if err != nil {
		logger.Errorf("sentry init error: %v", err)
		return func() {}
	}

	return func() { sentry.Flush(2 * time.Second) }
}

// CaptureError reports to sentry when initialized, tagged with the component
// that hit the error.
func CaptureError(err error, component string) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		hub.CaptureException(err)
	})
}

// CaptureMessage reports a plain alert message, e.g. stuck outbox records.
func CaptureMessage(msg string, component string) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		scope.SetLevel(sentry.LevelWarning)
		hub.CaptureMessage(msg)
	})
}
