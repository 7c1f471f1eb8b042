package models

import (
	"errors"
	"strings"
)

var (
	// ErrTopicNotFound is returned when a topic is not found
	ErrTopicNotFound = errors.New("topic not found")
	// ErrTopicExists is returned when creating or renaming onto an existing slug
	ErrTopicExists = errors.New("topic already exists")
	// ErrInvalidTopic marks a slug directory that has no preferences file
	ErrInvalidTopic = errors.New("topic has no preferences")
	// ErrInvalidSlug rejects slugs that are not lowercase hyphenated words
	ErrInvalidSlug = errors.New("invalid topic slug")
)

// Topic is a named preference profile. A slug is only a topic while its
// preferences document exists.
type Topic struct {
	Slug        string `json:"slug"`
	Preferences string `json:"preferences"`
	Links       []Link `json:"links,omitempty"`
}

// Link is one saved article in a topic's link list.
type Link struct {
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	Reason string `json:"reason" yaml:"reason"`
	Date   string `json:"date" yaml:"date"`
}

// Article is a recommendation produced by the search stage before it is saved.
type Article struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// TopicResolution is the structured answer of the topic resolution call.
// Slug is nil when the model could not pick one.
type TopicResolution struct {
	Slug       *string    `json:"slug"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
}

// Slugify lowercases, trims and hyphenates a free-form topic name.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
