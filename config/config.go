package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogDir   string `mapstructure:"log_dir"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	JWTSecret    string        `mapstructure:"jwt_secret"`    // empty disables auth on /api
	PasswordHash string        `mapstructure:"password_hash"` // bcrypt hash accepted by /api/auth/token
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// LLMConfig contains the chat model endpoint and per-worker model routing
type LLMConfig struct {
	Provider    string           `mapstructure:"provider"`
	APIKey      string           `mapstructure:"api_key"`
	BaseURL     string           `mapstructure:"base_url"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	MaxTokens   int              `mapstructure:"max_tokens"`
	Temperature *float64         `mapstructure:"temperature"`
	MiniModel   string           `mapstructure:"mini_model"`
	SmartModel  string           `mapstructure:"smart_model"`
	Routing     LLMRoutingConfig `mapstructure:"routing"`
}

// LLMRoutingConfig defines which model each worker talks to
type LLMRoutingConfig struct {
	Router         string `mapstructure:"router"`
	ProfileManager string `mapstructure:"profile_manager"`
	Scout          string `mapstructure:"scout"`
}

// Normalize fills unset routes from the mini/smart tiers.
func (c LLMConfig) Normalize() LLMConfig {
	if c.Routing.Router == "" {
		c.Routing.Router = c.MiniModel
	}
	if c.Routing.ProfileManager == "" {
		c.Routing.ProfileManager = c.SmartModel
	}
	if c.Routing.Scout == "" {
		c.Routing.Scout = c.MiniModel
	}
	return c
}

func (c LLMConfig) Validate() error {
	if c.Routing.Router == "" || c.Routing.ProfileManager == "" || c.Routing.Scout == "" {
		return errors.New("llm.routing requires a model for every worker")
	}
	if c.Timeout <= 0 {
		return errors.New("llm.timeout must be > 0")
	}
	return nil
}

// SearchConfig selects the web search backend
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"` // tavily, serper, brave
	TavilyAPIKey string        `mapstructure:"tavily_api_key"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// APIKey returns the key of the selected provider.
func (s SearchConfig) APIKey() string {
	switch s.Provider {
	case "serper":
		return s.SerperAPIKey
	case "brave":
		return s.BraveAPIKey
	default:
		return s.TavilyAPIKey
	}
}

func (s SearchConfig) Validate() error {
	switch s.Provider {
	case "tavily", "serper", "brave":
	default:
		return fmt.Errorf("search.provider must be one of tavily, serper, brave (got %q)", s.Provider)
	}
	if s.MaxResults <= 0 {
		return errors.New("search.max_results must be > 0")
	}
	return nil
}

// FetchConfig controls page reading for the read_link tool
type FetchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Fetcher  string        `mapstructure:"fetcher"` // http, chromedp
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// StorageConfig locates topic data and conversation checkpoints
type StorageConfig struct {
	TopicsDir    string      `mapstructure:"topics_dir"`
	Checkpointer string      `mapstructure:"checkpointer"` // inmemory, redis
	Redis        RedisConfig `mapstructure:"redis"`
}

func (s StorageConfig) Validate() error {
	if strings.TrimSpace(s.TopicsDir) == "" {
		return errors.New("storage.topics_dir is required")
	}
	switch s.Checkpointer {
	case "inmemory":
	case "redis":
		return s.Redis.Validate()
	default:
		return fmt.Errorf("storage.checkpointer must be inmemory or redis (got %q)", s.Checkpointer)
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a Redis host is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return errors.New("storage.redis.host is required")
	}
	if r.Port == "" {
		return errors.New("storage.redis.port is required")
	}
	return nil
}

// MemoryConfig controls how long idle conversation threads are kept.
// A zero ThreadTTL keeps them until they are deleted.
type MemoryConfig struct {
	ThreadTTL time.Duration `mapstructure:"thread_ttl"`
}

// AgentsConfig bounds the control plane
type AgentsConfig struct {
	MaxToolRounds     int `mapstructure:"max_tool_rounds"`
	ScoutSearchRounds int `mapstructure:"scout_search_rounds"`
	MaxDispatches     int `mapstructure:"max_dispatches"`
	MaxMessages       int `mapstructure:"max_messages"`
}

func (a AgentsConfig) Validate() error {
	if a.MaxToolRounds <= 0 || a.ScoutSearchRounds <= 0 || a.MaxDispatches <= 0 || a.MaxMessages <= 0 {
		return errors.New("agents limits must all be > 0")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ActionLogFile string `mapstructure:"action_log_file"`
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"` // empty disables span export
}

// SchedulerConfig drives unattended scouting of every topic
type SchedulerConfig struct {
	Cron     string        `mapstructure:"cron"`
	Task     string        `mapstructure:"task"`
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_dir", "logs")
	v.SetDefault("server.address", ":10001")
	v.SetDefault("server.token_ttl", 24*time.Hour)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", 90*time.Second)
	v.SetDefault("llm.mini_model", "gpt-5-mini")
	v.SetDefault("llm.smart_model", "gpt-5.2")
	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout", 20*time.Second)
	v.SetDefault("fetch.enabled", true)
	v.SetDefault("fetch.fetcher", "http")
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.max_chars", 20000)
	v.SetDefault("storage.topics_dir", "topics")
	v.SetDefault("storage.checkpointer", "inmemory")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("memory.thread_ttl", time.Duration(0))
	v.SetDefault("agents.max_tool_rounds", 12)
	v.SetDefault("agents.scout_search_rounds", 6)
	v.SetDefault("agents.max_dispatches", 8)
	v.SetDefault("agents.max_messages", 16)
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.action_log_file", "tool-actions.log")
	v.SetDefault("scheduler.cron", "@daily")
	v.SetDefault("scheduler.task", "Find the best new content for this topic")
	v.SetDefault("scheduler.interval", time.Minute)
}

// LoadConfig reads config.(yaml|json) from path or the usual locations and
// overlays SCOUT_* environment variables. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config") // name of config file (without extension)

	if path == "" {
		v.AddConfigPath("./config") // path to look for the config file in
		v.AddConfigPath(".")        // optionally look for config in the working directory
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)                      // bin/
			v.AddConfigPath(filepath.Join(exeDir, "..")) // repo root
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (SCOUT_*)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("fatal error config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("fatal error config file: %w", err)
	}
	config.LLM = config.LLM.Normalize()

	for _, validate := range []func() error{
		config.LLM.Validate,
		config.Search.Validate,
		config.Storage.Validate,
		config.Agents.Validate,
	} {
		if err := validate(); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// bindEnv exposes keys without defaults to AutomaticEnv and accepts the
// conventional provider variables as fallbacks.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.api_key", "SCOUT_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.routing.router", "SCOUT_LLM_ROUTING_ROUTER")
	_ = v.BindEnv("llm.routing.profile_manager", "SCOUT_LLM_ROUTING_PROFILE_MANAGER")
	_ = v.BindEnv("llm.routing.scout", "SCOUT_LLM_ROUTING_SCOUT")
	_ = v.BindEnv("llm.mini_model", "SCOUT_LLM_MINI_MODEL", "MINI_MODEL")
	_ = v.BindEnv("llm.smart_model", "SCOUT_LLM_SMART_MODEL", "SMART_MODEL")
	_ = v.BindEnv("search.tavily_api_key", "SCOUT_SEARCH_TAVILY_API_KEY", "TAVILY_API_KEY")
	_ = v.BindEnv("search.serper_api_key", "SCOUT_SEARCH_SERPER_API_KEY", "SERPER_API_KEY")
	_ = v.BindEnv("search.brave_api_key", "SCOUT_SEARCH_BRAVE_API_KEY", "BRAVE_API_KEY")
	_ = v.BindEnv("storage.redis.host", "SCOUT_STORAGE_REDIS_HOST", "REDIS_HOST")
	_ = v.BindEnv("storage.redis.password", "SCOUT_STORAGE_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("server.jwt_secret", "SCOUT_SERVER_JWT_SECRET")
	_ = v.BindEnv("server.password_hash", "SCOUT_SERVER_PASSWORD_HASH")
	_ = v.BindEnv("telemetry.otlp_endpoint", "SCOUT_TELEMETRY_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}
