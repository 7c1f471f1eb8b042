package file_repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/juhapellotsalo/agentic-content-scout/models"
	"gopkg.in/yaml.v3"
)

const (
	preferencesFile = "preferences.md"
	linksFile       = "links.yaml"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// FileTopicRepository keeps one directory per topic under root:
//
//	<root>/<slug>/preferences.md
//	<root>/<slug>/links.yaml
//
// Writes to one slug are serialized within the process. There is no
// cross-process locking; a single process per topics root is assumed.
type FileTopicRepository struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFileTopicRepository(root string) (*FileTopicRepository, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("topics root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create topics root: %w", err)
	}
	return &FileTopicRepository{root: root, locks: make(map[string]*sync.Mutex)}, nil
}

// Root returns the directory holding the topic folders.
func (r *FileTopicRepository) Root() string { return r.root }

func (r *FileTopicRepository) ListTopics(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read topics root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if exists(filepath.Join(r.root, e.Name(), preferencesFile)) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *FileTopicRepository) GetTopic(ctx context.Context, slug string) (models.Topic, error) {
	prefs, err := r.ReadPreferences(ctx, slug)
	if err != nil {
		return models.Topic{}, err
	}
	links, err := r.ReadLinks(ctx, slug)
	if err != nil {
		return models.Topic{}, err
	}
	return models.Topic{Slug: slug, Preferences: prefs, Links: links}, nil
}

func (r *FileTopicRepository) CreateTopic(_ context.Context, slug, preferences string) error {
	dir, err := r.dir(slug)
	if err != nil {
		return err
	}
	if exists(dir) {
		return models.ErrTopicExists
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create topic dir: %w", err)
	}
	return writeAtomic(filepath.Join(dir, preferencesFile), []byte(preferences))
}

func (r *FileTopicRepository) UpdatePreferences(_ context.Context, slug, preferences string) error {
	dir, err := r.dir(slug)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, preferencesFile)
	if !exists(path) {
		return models.ErrTopicNotFound
	}
	return writeAtomic(path, []byte(preferences))
}

func (r *FileTopicRepository) DeleteTopic(_ context.Context, slug string) error {
	dir, err := r.dir(slug)
	if err != nil {
		return err
	}
	unlock := r.lock(slug)
	defer unlock()
	if !exists(dir) {
		return models.ErrTopicNotFound
	}
	if !exists(filepath.Join(dir, preferencesFile)) {
		return models.ErrInvalidTopic
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	return nil
}

func (r *FileTopicRepository) RenameTopic(_ context.Context, oldSlug, newSlug string) error {
	oldDir, err := r.dir(oldSlug)
	if err != nil {
		return err
	}
	newDir, err := r.dir(newSlug)
	if err != nil {
		return err
	}
	unlock := r.lock(oldSlug)
	defer unlock()
	if !exists(oldDir) {
		return models.ErrTopicNotFound
	}
	if exists(newDir) {
		return models.ErrTopicExists
	}
	if err := os.Rename(oldDir, newDir); err != nil {
		return fmt.Errorf("failed to rename topic: %w", err)
	}
	return nil
}

func (r *FileTopicRepository) ReadPreferences(_ context.Context, slug string) (string, error) {
	dir, err := r.dir(slug)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(dir, preferencesFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", models.ErrTopicNotFound
		}
		return "", fmt.Errorf("failed to read preferences: %w", err)
	}
	return string(b), nil
}

// ReadLinks returns the saved links, or nil when the topic has none yet.
func (r *FileTopicRepository) ReadLinks(_ context.Context, slug string) ([]models.Link, error) {
	dir, err := r.dir(slug)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(filepath.Join(dir, linksFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read links: %w", err)
	}
	var links []models.Link
	if err := yaml.Unmarshal(b, &links); err != nil {
		return nil, fmt.Errorf("failed to parse links: %w", err)
	}
	return links, nil
}

// WriteLinks replaces the whole link list in one rename.
func (r *FileTopicRepository) WriteLinks(_ context.Context, slug string, links []models.Link) error {
	dir, err := r.dir(slug)
	if err != nil {
		return err
	}
	unlock := r.lock(slug)
	defer unlock()
	if !exists(dir) {
		return models.ErrTopicNotFound
	}
	return r.writeLinks(dir, links)
}

// AppendLinks adds the links whose URL the topic does not hold yet and
// returns the URLs that were added. The read and the write happen under
// the slug's lock, so concurrent appends never drop each other's links.
func (r *FileTopicRepository) AppendLinks(ctx context.Context, slug string, links []models.Link) ([]string, error) {
	dir, err := r.dir(slug)
	if err != nil {
		return nil, err
	}
	unlock := r.lock(slug)
	defer unlock()
	if !exists(dir) {
		return nil, models.ErrTopicNotFound
	}
	current, err := r.ReadLinks(ctx, slug)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(current)+len(links))
	for _, l := range current {
		seen[strings.TrimSpace(l.URL)] = true
	}
	var added []string
	for _, l := range links {
		url := strings.TrimSpace(l.URL)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		l.URL = url
		current = append(current, l)
		added = append(added, url)
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := r.writeLinks(dir, current); err != nil {
		return nil, err
	}
	return added, nil
}

func (r *FileTopicRepository) writeLinks(dir string, links []models.Link) error {
	b, err := yaml.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to marshal links: %w", err)
	}
	return writeAtomic(filepath.Join(dir, linksFile), b)
}

// lock holds the slug's mutex until the returned func is called.
func (r *FileTopicRepository) lock(slug string) func() {
	r.mu.Lock()
	m, ok := r.locks[slug]
	if !ok {
		m = &sync.Mutex{}
		r.locks[slug] = m
	}
	r.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (r *FileTopicRepository) dir(slug string) (string, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	return filepath.Join(r.root, slug), nil
}

// ValidateSlug accepts lowercase alphanumeric words joined by single
// hyphens, which also keeps every slug inside the topics root.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", models.ErrInvalidSlug, slug)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
