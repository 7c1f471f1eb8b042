package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/utils"
)

const outputPreview = 300

// ActionLog is a human-readable trail of model replies and tool invocations,
// meant for `tail -f`. It is opened once per process, truncating the
// previous session. Writes are advisory: failures are dropped.
// A nil *ActionLog is a no-op.
type ActionLog struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// OpenActionLog truncates path and writes the session header.
func OpenActionLog(path string) (*ActionLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open action log: %w", err)
	}
	l := NewActionLog(f)
	l.c = f
	return l, nil
}

// NewActionLog writes to w, e.g. a buffer in tests.
func NewActionLog(w io.Writer) *ActionLog {
	l := &ActionLog{w: w}
	l.printf("Session: %s\n%s\n", time.Now().Format("2006-01-02 15:04:05"), "==================================================")
	return l
}

func (l *ActionLog) Response(agent, content string) {
	if l == nil || content == "" {
		return
	}
	l.printf("\n[Response] (%s)\n%s\n", agent, content)
}

func (l *ActionLog) ToolCall(name string, args map[string]any) {
	if l == nil {
		return
	}
	input, err := json.Marshal(args)
	if err != nil {
		input = []byte(fmt.Sprint(args))
	}
	l.printf("\n[%s]\n%s\n", name, input)
}

func (l *ActionLog) ToolResult(output string) {
	if l == nil {
		return
	}
	l.printf("→ %s\n", utils.Truncate(output, outputPreview))
}

func (l *ActionLog) Note(format string, args ...any) {
	if l == nil {
		return
	}
	l.printf("\n# "+format+"\n", args...)
}

func (l *ActionLog) Close() error {
	if l == nil || l.c == nil {
		return nil
	}
	return l.c.Close()
}

func (l *ActionLog) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.w, format, args...)
}
