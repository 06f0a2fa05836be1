package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	t.Run("defaults to stderr with nil writer", func(t *testing.T) {
		logger := NewLogger(nil)
		if logger == nil {
			t.Fatal("expected logger instance")
		}
	})

	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		logger.Info("session created", "backend", "memory")

		out := buf.String()
		if !strings.Contains(out, "session created") {
			t.Errorf("expected log output to contain message, got %q", out)
		}
		if !strings.Contains(out, "backend") {
			t.Errorf("expected log output to contain key, got %q", out)
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)

		logger.Debug("should be filtered")
		logger.Warn("should appear")

		out := buf.String()
		if strings.Contains(out, "should be filtered") {
			t.Errorf("debug entry should have been filtered, got %q", out)
		}
		if !strings.Contains(out, "should appear") {
			t.Errorf("warn entry missing from output %q", out)
		}
	})

	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "server")

		logger.Info("listening")

		if !strings.Contains(buf.String(), "component") {
			t.Errorf("expected child logger field in output %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid v4 string of length 36, got %d (%s)", len(a), a)
	}
	if strings.Count(a, "-") != 4 {
		t.Errorf("expected canonical uuid formatting, got %s", a)
	}
}
