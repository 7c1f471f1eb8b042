package telemetry

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestActionLogTruncatesOncePerOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tool-actions.log")
	l, err := OpenActionLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.ToolCall("search", map[string]any{"queries": []string{"go"}})
	l.ToolResult(strings.Repeat("x", 500))
	l.Response("router", "done")
	_ = l.Close()

	l2, err := OpenActionLog(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	l2.Note("second session")
	_ = l2.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(b)
	if strings.Count(got, "Session:") != 1 || strings.Contains(got, "[search]") {
		t.Fatalf("previous session not truncated:\n%s", got)
	}
}

func TestActionLogFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewActionLog(&buf)
	l.ToolCall("reflect", map[string]any{"thought": "hm"})
	l.ToolResult(strings.Repeat("y", 400))
	got := buf.String()
	if !strings.Contains(got, "[reflect]\n{\"thought\":\"hm\"}") {
		t.Fatalf("tool input not logged:\n%s", got)
	}
	if strings.Contains(got, strings.Repeat("y", 301)) || !strings.Contains(got, "→ "+strings.Repeat("y", 300)) {
		t.Fatalf("output preview not truncated to 300")
	}

	var nilLog *ActionLog
	nilLog.ToolCall("x", nil)
	nilLog.Response("a", "b")
}

func TestMetrics(t *testing.T) {
	tel := NewTelemetry()
	tel.RecordToolCall("search")
	tel.RecordToolCall("search")
	tel.RecordLLMCall("mini", errors.New("boom"))
	tel.RecordTurn("ok", time.Second)
	tel.RecordSaved(2)

	if got := testutil.ToFloat64(tel.toolCalls.WithLabelValues("search")); got != 2 {
		t.Fatalf("tool calls = %v", got)
	}
	if got := testutil.ToFloat64(tel.llmCalls.WithLabelValues("mini", "error")); got != 1 {
		t.Fatalf("llm errors = %v", got)
	}
	if got := testutil.ToFloat64(tel.saved); got != 2 {
		t.Fatalf("saved = %v", got)
	}

	var nilTel *Telemetry
	nilTel.RecordTurn("ok", time.Second)
	if nilTel.Handler() == nil {
		t.Fatalf("nil telemetry should still serve a handler")
	}
}
