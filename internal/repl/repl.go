// Package repl is the interactive terminal front end.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
)

const helpText = `Commands:
  /topics               list topics
  /scout <slug> [task]  find new content for a topic right away
  /thread               show the conversation id
  /help                 show this help
  /exit                 quit

Anything else is sent to the assistant.`

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	askStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Assistant is what the REPL drives.
type Assistant interface {
	Chat(ctx context.Context, threadID, text string) (core.TurnResult, error)
	ScoutTopic(ctx context.Context, slug, task string) (core.ScoutState, error)
}

type TopicLister interface {
	ListTopics(ctx context.Context) ([]string, error)
}

type REPL struct {
	Assistant Assistant
	Topics    TopicLister
	In        io.Reader
	Out       io.Writer
	ThreadID  string
	Spinner   bool
}

// Run reads lines until /exit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if r.ThreadID == "" {
		r.ThreadID = core.NewThreadID()
	}
	fmt.Fprintln(r.Out, "Content Scout. Type /help for commands.")
	sc := bufio.NewScanner(r.In)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.Out, promptStyle.Render("You: "))
		if !sc.Scan() {
			fmt.Fprintln(r.Out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out, quit := r.Handle(ctx, line)
		if out != "" {
			fmt.Fprintln(r.Out, out)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// Handle runs one input line and returns what to print.
func (r *REPL) Handle(ctx context.Context, line string) (string, bool) {
	if strings.HasPrefix(line, "/") {
		return r.command(ctx, line)
	}
	var res core.TurnResult
	err := r.busy(ctx, "Thinking...", func(ctx context.Context) error {
		var err error
		res, err = r.Assistant.Chat(ctx, r.ThreadID, line)
		return err
	})
	if err != nil {
		return errStyle.Render("Error: " + err.Error()), false
	}
	if res.Suspension != nil {
		return askStyle.Render("Assistant: " + res.Response), false
	}
	return replyStyle.Render("Assistant: " + res.Response), false
}

func (r *REPL) command(ctx context.Context, line string) (string, bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return "Bye.", true
	case "/help":
		return helpText, false
	case "/thread":
		return "Thread: " + r.ThreadID, false
	case "/topics":
		slugs, err := r.Topics.ListTopics(ctx)
		if err != nil {
			return errStyle.Render("Error: " + err.Error()), false
		}
		return core.FormatTopicList(slugs), false
	case "/scout":
		if len(fields) < 2 {
			return "Usage: /scout <slug> [task]", false
		}
		slug, task := fields[1], strings.Join(fields[2:], " ")
		var st core.ScoutState
		err := r.busy(ctx, "Scouting "+slug+"...", func(ctx context.Context) error {
			var err error
			st, err = r.Assistant.ScoutTopic(ctx, slug, task)
			return err
		})
		if errors.Is(err, core.ErrNeedsInput) {
			return askStyle.Render(strings.TrimPrefix(err.Error(), core.ErrNeedsInput.Error()+": ")), false
		}
		if err != nil {
			return errStyle.Render("Error: " + err.Error()), false
		}
		return replyStyle.Render(st.Summary), false
	}
	return fmt.Sprintf("Unknown command: %s. Type /help for commands.", fields[0]), false
}

func (r *REPL) busy(ctx context.Context, label string, work func(context.Context) error) error {
	if !r.Spinner {
		return work(ctx)
	}
	return runWithSpinner(ctx, r.Out, label, work)
}
