package repository

import (
	"context"
	"fmt"

	"github.com/juhapellotsalo/agentic-content-scout/models"
	"github.com/juhapellotsalo/agentic-content-scout/repository/file_repository"
)

// TopicRepository defines the interface for topic storage
type TopicRepository interface {
	ListTopics(ctx context.Context) ([]string, error)
	GetTopic(ctx context.Context, slug string) (models.Topic, error)
	CreateTopic(ctx context.Context, slug, preferences string) error
	UpdatePreferences(ctx context.Context, slug, preferences string) error
	DeleteTopic(ctx context.Context, slug string) error
	RenameTopic(ctx context.Context, oldSlug, newSlug string) error
	ReadPreferences(ctx context.Context, slug string) (string, error)
	ReadLinks(ctx context.Context, slug string) ([]models.Link, error)
	WriteLinks(ctx context.Context, slug string, links []models.Link) error
	// AppendLinks stores the links whose URL is new to the topic and
	// returns the added URLs in order.
	AppendLinks(ctx context.Context, slug string, links []models.Link) ([]string, error)
}

type RepoType string

const (
	RepoTypeFile RepoType = "file"
)

func NewTopicRepository(_ context.Context, t RepoType, root string) (TopicRepository, error) {
	switch t {
	case RepoTypeFile, "":
		return file_repository.NewFileTopicRepository(root)
	}
	return nil, fmt.Errorf("invalid repository type: %s", t)
}
