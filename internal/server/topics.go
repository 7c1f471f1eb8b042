package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/juhapellotsalo/agentic-content-scout/internal/library"
	"github.com/juhapellotsalo/agentic-content-scout/repository"
	"github.com/labstack/echo/v4"
)

type TopicsHandler struct {
	Topics    repository.TopicRepository
	Library   *library.Library
	Assistant Assistant
}

func (h *TopicsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:slug", h.get)
	g.POST("/:slug/scout", h.scout)
}

func (h *TopicsHandler) list(c echo.Context) error {
	slugs, err := h.Topics.ListTopics(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if slugs == nil {
		slugs = []string{}
	}
	return c.JSON(http.StatusOK, TopicListResponse{Topics: slugs})
}

func (h *TopicsHandler) get(c echo.Context) error {
	t, err := h.Topics.GetTopic(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, TopicDetailResponse{Slug: t.Slug, Preferences: t.Preferences, Links: t.Links})
}

// scout runs the pipeline on an existing topic without a conversation.
func (h *TopicsHandler) scout(c echo.Context) error {
	var req ScoutRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	ctx := c.Request().Context()
	slug := c.Param("slug")
	if _, err := h.Topics.ReadPreferences(ctx, slug); err != nil {
		return httpError(err)
	}
	st, err := h.Assistant.ScoutTopic(ctx, slug, req.Task)
	if err != nil {
		return httpError(err)
	}
	saved := st.Saved
	if saved == nil {
		saved = []string{}
	}
	return c.JSON(http.StatusOK, ScoutResponse{Topic: st.TopicSlug, Summary: st.Summary, Saved: saved})
}

// searchLibrary serves GET /api/library?q=...&k=...
func (h *TopicsHandler) searchLibrary(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))
	hits, err := h.Library.Search(c.Request().Context(), q, k)
	if err != nil {
		return err
	}
	if hits == nil {
		hits = []library.Hit{}
	}
	return c.JSON(http.StatusOK, hits)
}
