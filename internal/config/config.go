// Package config loads and validates the sparring configuration via
// viper. Defaults mirror the behavior of a fresh install; every value
// can be overridden by the config file or a SPARRING_* environment
// variable.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete sparring configuration.
type Config struct {
	Conversation ConversationConfig `mapstructure:"conversation"`
	Budget       BudgetConfig       `mapstructure:"budget"`
	Ending       EndingConfig       `mapstructure:"ending"`
	Search       SearchConfig       `mapstructure:"search"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	API          APIConfig          `mapstructure:"api"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Log          LogConfig          `mapstructure:"log"`
}

// ConversationConfig controls the turn loop itself.
type ConversationConfig struct {
	// MaxTurns caps the debate length. 0 means no cap; the end
	// detector decides when the conversation is over.
	MaxTurns int `mapstructure:"max_turns"`
	// TurnIntervalMs is the pacing sleep between turns, in
	// milliseconds. Throttle only, no semantic effect.
	TurnIntervalMs int `mapstructure:"turn_interval_ms"`
	// PromptsFile is the YAML file defining the two agents. Empty
	// means the built-in default prompts.
	PromptsFile string `mapstructure:"prompts_file"`
}

// TurnInterval returns the pacing sleep as a time.Duration.
func (c *ConversationConfig) TurnInterval() time.Duration {
	return time.Duration(c.TurnIntervalMs) * time.Millisecond
}

// BudgetConfig controls the token budget tracker.
type BudgetConfig struct {
	// MaxContext is the hard token ceiling. At or above it the
	// history is trimmed.
	MaxContext int `mapstructure:"max_context"`
	// WarningThreshold is where the budget status turns yellow. Must
	// be below MaxContext.
	WarningThreshold int `mapstructure:"warning_threshold"`
	// TargetAfterTrim is what a trim reduces the total to. Must be
	// below WarningThreshold.
	TargetAfterTrim int `mapstructure:"target_after_trim"`
	// MinKeepRecent is the protected suffix of messages a trim never
	// removes.
	MinKeepRecent int `mapstructure:"min_keep_recent"`
	// MaxTrimCount is how many trims are allowed before the session
	// is force-terminated.
	MaxTrimCount int `mapstructure:"max_trim_count"`
}

// EndingConfig controls natural-end detection.
type EndingConfig struct {
	// Enabled turns detection off entirely when false.
	Enabled bool `mapstructure:"enabled"`
	// Marker is the literal string agents emit to propose ending.
	Marker string `mapstructure:"marker"`
	// MinTurnsBeforeEnd is the earliest turn a marker is honored.
	MinTurnsBeforeEnd int `mapstructure:"min_turns_before_end"`
	// AnalysisMinTurns is the earliest turn the analysis heuristic runs.
	AnalysisMinTurns int `mapstructure:"analysis_min_turns"`
	// CheckTurns is the sliding window size for loop detection.
	CheckTurns int `mapstructure:"check_turns"`
	// MinResponseLength rejects short responses from analysis, in runes.
	MinResponseLength int `mapstructure:"min_response_length"`
	// TransitionTurns is the grace period after a detection before the
	// end resolves. 0 stops immediately.
	TransitionTurns int `mapstructure:"transition_turns"`
	// UseScorer enables the model-backed end scorer instead of the
	// local heuristic for the analysis sub-check.
	UseScorer bool `mapstructure:"use_scorer"`
	// EndThreshold is the scorer value at or above which the end fires.
	EndThreshold int `mapstructure:"end_threshold"`
	// WarnThreshold is the scorer value that is logged but not acted on.
	WarnThreshold int `mapstructure:"warn_threshold"`
}

// SearchConfig controls the web search side channel.
type SearchConfig struct {
	// Enabled turns search injection off entirely when false.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is a SearxNG-style JSON search URL. Empty disables
	// search even when Enabled is true.
	Endpoint string `mapstructure:"endpoint"`
	// Interval triggers an automatic search every N turns.
	Interval int `mapstructure:"interval"`
	// MaxResults caps how many results are injected per search.
	MaxResults int `mapstructure:"max_results"`
	// HistoryLimit is how many recent queries duplicate suppression
	// looks at.
	HistoryLimit int `mapstructure:"history_limit"`
	// HistoryFile is the JSON file searches are recorded to. Empty
	// means <storage dir>/search_history.json.
	HistoryFile string `mapstructure:"history_file"`
}

// ToolsConfig controls the context-analyzer tool channel.
type ToolsConfig struct {
	// Enabled turns context injection off entirely when false.
	Enabled bool `mapstructure:"enabled"`
	// Interval triggers a context query every N turns.
	Interval int `mapstructure:"interval"`
}

// APIConfig controls the Anthropic client. The API key is read from
// the ANTHROPIC_API_KEY environment variable only, never from the
// config file.
type APIConfig struct {
	// Model is the model ID used for agent responses.
	Model string `mapstructure:"model"`
	// MaxTokens caps each streamed response.
	MaxTokens int `mapstructure:"max_tokens"`
	// BaseURL overrides the API endpoint. Empty uses the default.
	BaseURL string `mapstructure:"base_url"`
}

// StorageConfig controls where sparring writes data.
type StorageConfig struct {
	// Dir is the data directory. Session records go to <dir>/history.
	// Empty means the XDG data location.
	Dir string `mapstructure:"dir"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
	// Dir is the log directory. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the log rotation threshold.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is how many rotated log files to keep.
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with the stock values.
func Default() *Config {
	return &Config{
		Conversation: ConversationConfig{
			MaxTurns:       0, // No cap; the detector decides
			TurnIntervalMs: 1000,
			PromptsFile:    "",
		},
		Budget: BudgetConfig{
			MaxContext:       150000,
			WarningThreshold: 120000,
			TargetAfterTrim:  80000,
			MinKeepRecent:    10,
			MaxTrimCount:     3,
		},
		Ending: EndingConfig{
			Enabled:           true,
			Marker:            "<!-- END -->",
			MinTurnsBeforeEnd: 10,
			AnalysisMinTurns:  10,
			CheckTurns:        5,
			MinResponseLength: 30,
			TransitionTurns:   2,
			UseScorer:         false,
			EndThreshold:      80,
			WarnThreshold:     60,
		},
		Search: SearchConfig{
			Enabled:      true,
			Endpoint:     "",
			Interval:     5,
			MaxResults:   3,
			HistoryLimit: 5,
			HistoryFile:  "",
		},
		Tools: ToolsConfig{
			Enabled:  true,
			Interval: 5,
		},
		API: APIConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 2048,
			BaseURL:   "",
		},
		Log: LogConfig{
			Level:      "INFO",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Storage: StorageConfig{
			Dir: "",
		},
	}
}

// SetDefaults registers default values with the given viper instance.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("conversation.max_turns", defaults.Conversation.MaxTurns)
	v.SetDefault("conversation.turn_interval_ms", defaults.Conversation.TurnIntervalMs)
	v.SetDefault("conversation.prompts_file", defaults.Conversation.PromptsFile)

	v.SetDefault("budget.max_context", defaults.Budget.MaxContext)
	v.SetDefault("budget.warning_threshold", defaults.Budget.WarningThreshold)
	v.SetDefault("budget.target_after_trim", defaults.Budget.TargetAfterTrim)
	v.SetDefault("budget.min_keep_recent", defaults.Budget.MinKeepRecent)
	v.SetDefault("budget.max_trim_count", defaults.Budget.MaxTrimCount)

	v.SetDefault("ending.enabled", defaults.Ending.Enabled)
	v.SetDefault("ending.marker", defaults.Ending.Marker)
	v.SetDefault("ending.min_turns_before_end", defaults.Ending.MinTurnsBeforeEnd)
	v.SetDefault("ending.analysis_min_turns", defaults.Ending.AnalysisMinTurns)
	v.SetDefault("ending.check_turns", defaults.Ending.CheckTurns)
	v.SetDefault("ending.min_response_length", defaults.Ending.MinResponseLength)
	v.SetDefault("ending.transition_turns", defaults.Ending.TransitionTurns)
	v.SetDefault("ending.use_scorer", defaults.Ending.UseScorer)
	v.SetDefault("ending.end_threshold", defaults.Ending.EndThreshold)
	v.SetDefault("ending.warn_threshold", defaults.Ending.WarnThreshold)

	v.SetDefault("search.enabled", defaults.Search.Enabled)
	v.SetDefault("search.endpoint", defaults.Search.Endpoint)
	v.SetDefault("search.interval", defaults.Search.Interval)
	v.SetDefault("search.max_results", defaults.Search.MaxResults)
	v.SetDefault("search.history_limit", defaults.Search.HistoryLimit)
	v.SetDefault("search.history_file", defaults.Search.HistoryFile)

	v.SetDefault("tools.enabled", defaults.Tools.Enabled)
	v.SetDefault("tools.interval", defaults.Tools.Interval)

	v.SetDefault("api.model", defaults.API.Model)
	v.SetDefault("api.max_tokens", defaults.API.MaxTokens)
	v.SetDefault("api.base_url", defaults.API.BaseURL)

	v.SetDefault("storage.dir", defaults.Storage.Dir)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.dir", defaults.Log.Dir)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
}

// Load reads the configuration out of the viper instance and validates
// it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ResolveStorageDir returns the data directory, defaulting to the XDG
// data location.
func (c *Config) ResolveStorageDir() string {
	if c.Storage.Dir != "" {
		return expandHome(c.Storage.Dir)
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sparring")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sparring"
	}
	return filepath.Join(home, ".local", "share", "sparring")
}

// HistoryDir returns where session records are stored.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.ResolveStorageDir(), "history")
}

// SearchHistoryFile returns the search history path, defaulting to a
// file inside the storage directory.
func (c *Config) SearchHistoryFile() string {
	if c.Search.HistoryFile != "" {
		return expandHome(c.Search.HistoryFile)
	}
	return filepath.Join(c.ResolveStorageDir(), "search_history.json")
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sparring")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sparring"
	}
	return filepath.Join(home, ".config", "sparring")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "sparring.yaml")
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
