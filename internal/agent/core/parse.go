package core

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/juhapellotsalo/agentic-content-scout/utils"
)

const (
	summaryFallbackLimit = 500

	noArticlesSummary    = "No articles found."
	foundArticlesSummary = "Found articles."
)

var jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

type recommendation struct {
	Articles *[]models.Article `json:"articles"`
	Summary  *string           `json:"summary"`
}

// ParseRecommendations reads the search stage's final reply. A fenced json
// block wins over the whole reply; anything unparsable becomes the summary,
// cut to 500 runes, with no articles. It never fails.
func ParseRecommendations(reply string) ([]models.Article, string) {
	if strings.TrimSpace(reply) == "" {
		return nil, noArticlesSummary
	}
	raw := reply
	if m := jsonFence.FindStringSubmatch(reply); m != nil {
		raw = m[1]
	}
	var rec recommendation
	// null and objects carrying neither field fall back like broken JSON
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || (rec.Articles == nil && rec.Summary == nil) {
		return nil, utils.Truncate(reply, summaryFallbackLimit)
	}
	summary := foundArticlesSummary
	if rec.Summary != nil && *rec.Summary != "" {
		summary = *rec.Summary
	}
	var articles []models.Article
	if rec.Articles != nil {
		articles = *rec.Articles
	}
	return articles, summary
}

// parseResolution decodes the structured resolution reply; anything else
// counts as no slug with low confidence.
func parseResolution(reply string) models.TopicResolution {
	raw := strings.TrimSpace(reply)
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	var res models.TopicResolution
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return models.TopicResolution{Confidence: models.ConfidenceLow, Reason: "unparsable resolution"}
	}
	if res.Confidence != models.ConfidenceHigh {
		res.Confidence = models.ConfidenceLow
	}
	return res
}

func lastAssistantContent(msgs []models.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant && msgs[i].Content != "" {
			return msgs[i].Content
		}
	}
	return ""
}
