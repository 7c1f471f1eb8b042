package core

import (
	"context"
	"errors"
	"log"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/telemetry"
	"github.com/juhapellotsalo/agentic-content-scout/models"
)

// loopWorker is a worker driven entirely by an Executor: the router and the
// profile manager.
type loopWorker struct {
	kind      AgentKind
	exec      *Executor
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

func (w *loopWorker) Kind() AgentKind { return w.kind }

func (w *loopWorker) Run(ctx context.Context, st *State) (*ResumePoint, error) {
	res, err := w.exec.Run(ctx, st.Messages)
	if err != nil {
		return nil, err
	}
	return w.apply(st, res)
}

func (w *loopWorker) Resume(ctx context.Context, st *State, rp ResumePoint, answer string) (*ResumePoint, error) {
	if rp.Loop == nil {
		return nil, errors.New("resume point has no loop checkpoint")
	}
	res, err := w.exec.Resume(ctx, st.Messages, *rp.Loop, answer)
	if err != nil {
		return nil, err
	}
	return w.apply(st, res)
}

func (w *loopWorker) apply(st *State, res LoopResult) (*ResumePoint, error) {
	st.Messages = append(st.Messages, res.Messages...)
	switch {
	case res.Suspend != nil:
		return &ResumePoint{Agent: w.kind, Stage: StageToolLoop, Question: res.Suspend.Question, Loop: res.Suspend}, nil
	case res.Handoff != nil:
		if err := res.Handoff.Apply(st, w.kind); err != nil {
			return nil, err
		}
		w.telemetry.RecordHandoff(w.kind.String(), res.Handoff.To.String())
	case w.kind != Router:
		w.logger.Printf("warn: %s replied without handing back; it stays active", w.kind)
	}
	return nil, nil
}

// scoutWorker wraps the pipeline and always hands back to the router with
// the pipeline summary as a plain reply.
type scoutWorker struct {
	pipeline  *ScoutPipeline
	telemetry *telemetry.Telemetry
}

func (w *scoutWorker) Kind() AgentKind { return ContentScout }

func (w *scoutWorker) Run(ctx context.Context, st *State) (*ResumePoint, error) {
	task := st.TopicContext["task"]
	out, err := w.pipeline.Run(ctx, task, st.TopicContext["topic_slug"])
	if err != nil {
		return nil, err
	}
	return w.apply(st, out)
}

func (w *scoutWorker) Resume(ctx context.Context, st *State, rp ResumePoint, answer string) (*ResumePoint, error) {
	if rp.Scout == nil {
		return nil, errors.New("resume point has no scout checkpoint")
	}
	out, err := w.pipeline.Resume(ctx, *rp.Scout, answer)
	if err != nil {
		return nil, err
	}
	return w.apply(st, out)
}

func (w *scoutWorker) apply(st *State, out ScoutOutcome) (*ResumePoint, error) {
	if out.Suspend != nil {
		return &ResumePoint{Agent: ContentScout, Stage: StageResolveTopic, Question: out.Suspend.Question, Scout: out.Suspend}, nil
	}
	summary := out.State.Summary
	if summary == "" {
		summary = "Scout completed."
	}
	back := Handoff{To: Router, Summary: summary}
	if err := back.Apply(st, ContentScout); err != nil {
		return nil, err
	}
	w.telemetry.RecordHandoff(ContentScout.String(), Router.String())
	st.Messages = append(st.Messages, models.AssistantMessage(summary))
	return nil, nil
}
