package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTrace_Gated(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(prev)
		SetTrace(false)
	})

	SetTrace(false)
	Trace("hidden tick", "phase", "near")
	if buf.Len() != 0 {
		t.Errorf("disabled trace wrote %q", buf.String())
	}
	if TraceEnabled() {
		t.Error("TraceEnabled() = true, want false")
	}

	SetTrace(true)
	if !TraceEnabled() {
		t.Error("TraceEnabled() = false, want true")
	}
	Trace("visible tick", "phase", "critical")
	if !strings.Contains(buf.String(), "visible tick") || !strings.Contains(buf.String(), "critical") {
		t.Errorf("enabled trace wrote %q", buf.String())
	}
}
