package config

import (
	"strings"
	"testing"
)

// fieldErrors collects the Field values of a validation result for
// easy membership checks.
func fieldErrors(t *testing.T, errs []ValidationError) map[string]bool {
	t.Helper()
	fields := make(map[string]bool, len(errs))
	for _, e := range errs {
		fields[e.Field] = true
	}
	return fields
}

func TestValidateBudgetOrdering(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "warning at max",
			mutate:    func(c *Config) { c.Budget.WarningThreshold = c.Budget.MaxContext },
			wantField: "budget.warning_threshold",
		},
		{
			name:      "warning above max",
			mutate:    func(c *Config) { c.Budget.WarningThreshold = c.Budget.MaxContext + 1 },
			wantField: "budget.warning_threshold",
		},
		{
			name:      "target at warning",
			mutate:    func(c *Config) { c.Budget.TargetAfterTrim = c.Budget.WarningThreshold },
			wantField: "budget.target_after_trim",
		},
		{
			name:      "zero max context",
			mutate:    func(c *Config) { c.Budget.MaxContext = 0 },
			wantField: "budget.max_context",
		},
		{
			name:      "zero min keep recent",
			mutate:    func(c *Config) { c.Budget.MinKeepRecent = 0 },
			wantField: "budget.min_keep_recent",
		},
		{
			name:      "zero max trim count",
			mutate:    func(c *Config) { c.Budget.MaxTrimCount = 0 },
			wantField: "budget.max_trim_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			fields := fieldErrors(t, cfg.Validate())
			if !fields[tt.wantField] {
				t.Errorf("Validate() reported %v, want an error on %s", fields, tt.wantField)
			}
		})
	}
}

func TestValidateEnding(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty marker",
			mutate:    func(c *Config) { c.Ending.Marker = "" },
			wantField: "ending.marker",
		},
		{
			name:      "check turns below loop size",
			mutate:    func(c *Config) { c.Ending.CheckTurns = 2 },
			wantField: "ending.check_turns",
		},
		{
			name:      "negative transition turns",
			mutate:    func(c *Config) { c.Ending.TransitionTurns = -1 },
			wantField: "ending.transition_turns",
		},
		{
			name:      "warn above end threshold",
			mutate:    func(c *Config) { c.Ending.WarnThreshold = 90 },
			wantField: "ending.warn_threshold",
		},
		{
			name:      "threshold out of range",
			mutate:    func(c *Config) { c.Ending.EndThreshold = 120 },
			wantField: "ending.end_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			fields := fieldErrors(t, cfg.Validate())
			if !fields[tt.wantField] {
				t.Errorf("Validate() reported %v, want an error on %s", fields, tt.wantField)
			}
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "chatty"
	fields := fieldErrors(t, cfg.Validate())
	if !fields["log.level"] {
		t.Error("Validate() accepted an unknown log level")
	}

	cfg.Log.Level = "debug" // lowercase is accepted
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Validate() = %v, want lowercase level accepted", ValidationErrors(errs))
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "budget.max_context", Value: 0, Message: "must be positive"},
		{Field: "api.model", Value: "", Message: "must not be empty"},
	}
	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("Error() = %q, want count prefix", msg)
	}
	if !strings.Contains(msg, "budget.max_context") || !strings.Contains(msg, "api.model") {
		t.Errorf("Error() = %q, want both fields listed", msg)
	}
}
