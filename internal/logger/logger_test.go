package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewHonorsLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{name: "default is info", level: "", want: zerolog.InfoLevel},
		{name: "debug", level: "debug", want: zerolog.DebugLevel},
		{name: "warn", level: "warn", want: zerolog.WarnLevel},
		{name: "garbage falls back to info", level: "loud", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)

			log := New()
			if log.GetLevel() != tt.want {
				t.Errorf("New() level = %v, want %v", log.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("receipt_id", "r-1").Msg("receipt ingested")

	output := buf.String()
	if !strings.Contains(output, "receipt ingested") {
		t.Errorf("expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, "receipt_id") {
		t.Errorf("expected output to contain receipt_id field, got: %s", output)
	}
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	ctx := WithContext(context.Background(), log)
	got := FromContext(ctx)
	got.Info().Msg("from context")

	if !strings.Contains(buf.String(), "from context") {
		t.Error("expected logger stored in context to be returned")
	}
}

func TestFromContextReturnsDefault(t *testing.T) {
	log := FromContext(context.Background())

	if log.GetLevel() == zerolog.Disabled {
		t.Error("expected a usable default logger when none is in context")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log = WithFields(log, map[string]interface{}{
		"vendor":   "Rewe",
		"job_type": "extract_receipt",
	})
	log.Info().Msg("audit complete")

	output := buf.String()
	for _, want := range []string{"vendor", "Rewe", "job_type", "extract_receipt"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got: %s", want, output)
		}
	}
}
