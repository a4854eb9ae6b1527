package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultIsValid(t *testing.T) {
	if errs := Default().Validate(); len(errs) > 0 {
		t.Errorf("Default().Validate() = %v, want no errors", ValidationErrors(errs))
	}
}

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Budget.MaxContext != 150000 {
		t.Errorf("Budget.MaxContext = %d, want 150000", cfg.Budget.MaxContext)
	}
	if cfg.Ending.Marker != "<!-- END -->" {
		t.Errorf("Ending.Marker = %q, want the end marker", cfg.Ending.Marker)
	}
	if cfg.Ending.TransitionTurns != 2 {
		t.Errorf("Ending.TransitionTurns = %d, want 2", cfg.Ending.TransitionTurns)
	}
	if cfg.Search.Interval != 5 {
		t.Errorf("Search.Interval = %d, want 5", cfg.Search.Interval)
	}
	if cfg.API.MaxTokens != 2048 {
		t.Errorf("API.MaxTokens = %d, want 2048", cfg.API.MaxTokens)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sparring.yaml")
	content := `
conversation:
  max_turns: 40
budget:
  max_context: 50000
  warning_threshold: 40000
  target_after_trim: 25000
ending:
  min_turns_before_end: 6
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Conversation.MaxTurns != 40 {
		t.Errorf("Conversation.MaxTurns = %d, want 40", cfg.Conversation.MaxTurns)
	}
	if cfg.Budget.MaxContext != 50000 {
		t.Errorf("Budget.MaxContext = %d, want 50000", cfg.Budget.MaxContext)
	}
	if cfg.Ending.MinTurnsBeforeEnd != 6 {
		t.Errorf("Ending.MinTurnsBeforeEnd = %d, want 6", cfg.Ending.MinTurnsBeforeEnd)
	}
	// Untouched keys keep their defaults.
	if cfg.Budget.MinKeepRecent != 10 {
		t.Errorf("Budget.MinKeepRecent = %d, want default 10", cfg.Budget.MinKeepRecent)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("budget.warning_threshold", 200000) // above max_context

	_, err := Load(v)
	if err == nil {
		t.Fatal("Load() accepted warning_threshold above max_context")
	}
}

func TestResolveStorageDirExplicit(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/tmp/sparring-data"
	if got := cfg.ResolveStorageDir(); got != "/tmp/sparring-data" {
		t.Errorf("ResolveStorageDir() = %q, want explicit dir", got)
	}
	if got := cfg.HistoryDir(); got != filepath.Join("/tmp/sparring-data", "history") {
		t.Errorf("HistoryDir() = %q, want history subdirectory", got)
	}
}

func TestSearchHistoryFileDefault(t *testing.T) {
	cfg := Default()
	cfg.Storage.Dir = "/data"
	want := filepath.Join("/data", "search_history.json")
	if got := cfg.SearchHistoryFile(); got != want {
		t.Errorf("SearchHistoryFile() = %q, want %q", got, want)
	}
}
