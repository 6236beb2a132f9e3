package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"DEBUG":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"WARNING": WarnLevel,
		"warn":    WarnLevel,
		"ERROR":   ErrorLevel,
		"bogus":   DebugLevel,
	}
	for in, want := range cases {
		if got := NormalizeLevel(in); got != want {
			t.Errorf("NormalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToZapLevel(t *testing.T) {
	if toZapLevel(WarnLevel) != zapcore.WarnLevel {
		t.Fatalf("warn level not mapped")
	}
	if toZapLevel("nope") != defaultZapLevel {
		t.Fatalf("unknown level should fall back to %v", defaultZapLevel)
	}
}

func TestNilLoggerNamedFallsBackToNop(t *testing.T) {
	var l *Logger
	if l.Named("x") == nil {
		t.Fatalf("expected nop logger")
	}
}
