package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(NewHandler(&out, &errOut, nil))

	logger.Info("server started", "addr", ":8080")
	logger.Warn("discarding unreadable cookie")
	logger.Error("failed to restore session")
	logger.Debug("hidden")

	if !strings.Contains(out.String(), "server started") || !strings.Contains(out.String(), "discarding unreadable cookie") {
		t.Errorf("expected INFO and WARN on stdout, got %q", out.String())
	}
	if strings.Contains(out.String(), "failed to restore session") {
		t.Error("ERROR must not go to stdout")
	}
	if !strings.Contains(errOut.String(), "failed to restore session") {
		t.Errorf("expected ERROR on stderr, got %q", errOut.String())
	}
	if strings.Contains(out.String()+errOut.String(), "hidden") {
		t.Error("DEBUG must be dropped")
	}
}

func TestWithAttrsKeepsRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(NewHandler(&out, &errOut, nil)).With("component", "web")

	logger.Error("boom")
	if !strings.Contains(errOut.String(), "component=web") {
		t.Errorf("expected attrs on stderr record, got %q", errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", out.String())
	}
}
