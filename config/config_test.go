package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Agents.MaxMessages != 16 || cfg.Agents.MaxToolRounds != 12 || cfg.Agents.ScoutSearchRounds != 6 {
		t.Fatalf("unexpected agent limits %+v", cfg.Agents)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Fatalf("api key fallback not bound: %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Routing.Router != "gpt-5-mini" || cfg.LLM.Routing.ProfileManager != "gpt-5.2" || cfg.LLM.Routing.Scout != "gpt-5-mini" {
		t.Fatalf("routing not normalized: %+v", cfg.LLM.Routing)
	}
	if cfg.Memory.ThreadTTL != 0 || cfg.Storage.Checkpointer != "inmemory" {
		t.Fatalf("unexpected storage defaults %+v %+v", cfg.Memory, cfg.Storage)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
llm:
  routing:
    router: tiny
search:
  provider: brave
  brave_api_key: from-file
storage:
  topics_dir: /tmp/topics
agents:
  max_tool_rounds: 3
memory:
  thread_ttl: 36h
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SCOUT_AGENTS_SCOUT_SEARCH_ROUNDS", "2")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Routing.Router != "tiny" || cfg.Search.APIKey() != "from-file" || cfg.Agents.MaxToolRounds != 3 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Agents.ScoutSearchRounds != 2 {
		t.Fatalf("env override not applied: %d", cfg.Agents.ScoutSearchRounds)
	}
	if cfg.Memory.ThreadTTL != 36*time.Hour {
		t.Fatalf("thread ttl not applied: %v", cfg.Memory.ThreadTTL)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  checkpointer: redis\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected redis validation error")
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("explicit missing file should fail")
	}
}
