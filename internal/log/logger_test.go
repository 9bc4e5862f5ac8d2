package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithComponentTagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})

	logger.WithComponent(ComponentWorker).Info("ready")

	out := buf.String()
	if !strings.Contains(out, FieldComponent+"="+ComponentWorker) {
		t.Errorf("output %q missing %s=%s", out, FieldComponent, ComponentWorker)
	}
}

func TestWithCarriesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewTextHandler(&buf, nil)})

	logger.With("backend", "sqlite").Info("starting")

	if !strings.Contains(buf.String(), "backend=sqlite") {
		t.Errorf("output %q missing backend attr", buf.String())
	}
}

func TestNewDefaultsToTextHandler(t *testing.T) {
	logger := New(DefaultConfig())
	if logger.Logger == nil {
		t.Fatal("expected a usable logger")
	}
}
