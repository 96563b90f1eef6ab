package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDetermineLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"DEBUG", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"fatal", zap.FatalLevel},
		{"", zap.InfoLevel},
		{"bogus", zap.InfoLevel},
	}
	for _, c := range cases {
		if got := DetermineLogLevel(c.in); got != c.want {
			t.Errorf("DetermineLogLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestInitLoggerNamedForService(t *testing.T) {
	logger := InitLogger("error", "billing")

	ce := logger.Desugar().Check(zapcore.ErrorLevel, "check")
	if ce == nil {
		t.Fatal("error level must be enabled")
	}
	if ce.LoggerName != "billing" {
		t.Fatalf("logger name: got %q, want %q", ce.LoggerName, "billing")
	}

	if logger.Desugar().Check(zapcore.InfoLevel, "check") != nil {
		t.Fatal("info must be disabled at error level")
	}
}
