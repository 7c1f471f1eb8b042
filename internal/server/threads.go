package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/core"
	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/labstack/echo/v4"
)

// Assistant is the part of the orchestrator the HTTP API drives.
type Assistant interface {
	Chat(ctx context.Context, threadID, text string) (core.TurnResult, error)
	Thread(ctx context.Context, threadID string) (*core.State, error)
	ScoutTopic(ctx context.Context, slug, task string) (core.ScoutState, error)
	DeleteThread(ctx context.Context, threadID string) error
}

type ThreadsHandler struct {
	Assistant Assistant
}

func (h *ThreadsHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.POST("/:id/messages", h.message)
	g.DELETE("/:id", h.delete)
}

// create opens a thread, running the first turn when a message is supplied.
func (h *ThreadsHandler) create(c echo.Context) error {
	var req MessageRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	id := core.NewThreadID()
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusCreated, ThreadResponse{ThreadID: id})
	}
	res, err := h.Assistant.Chat(c.Request().Context(), id, req.Message)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, turnResponse(res))
}

func (h *ThreadsHandler) message(c echo.Context) error {
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	res, err := h.Assistant.Chat(c.Request().Context(), c.Param("id"), req.Message)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, turnResponse(res))
}

func (h *ThreadsHandler) get(c echo.Context) error {
	st, err := h.Assistant.Thread(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if st == nil {
		return echo.NewHTTPError(http.StatusNotFound, "thread not found")
	}
	resp := ThreadDetailResponse{
		ThreadID:     st.ThreadID,
		ActiveAgent:  st.ActiveAgent.String(),
		Messages:     st.Messages,
		MessageCount: len(st.Messages),
	}
	if st.Pending != nil {
		resp.Pending = st.Pending.Question
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ThreadsHandler) delete(c echo.Context) error {
	if err := h.Assistant.DeleteThread(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func turnResponse(res core.TurnResult) TurnResponse {
	out := TurnResponse{ThreadID: res.ThreadID, Response: res.Response}
	if s := res.Suspension; s != nil {
		out.Suspended = true
		out.Question = s.Question
		out.Agent = s.Agent.String()
		out.Stage = s.Stage
	}
	return out
}

// httpError maps domain errors onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, core.ErrTurnInProgress), errors.Is(err, core.ErrNeedsInput):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrTopicNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidSlug), errors.Is(err, models.ErrInvalidTopic):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrDispatchLimit):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	}
	return err
}
