package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lhartley/sparring/internal/logging"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "budget.max_context")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all
// validation errors found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateConversation()...)
	errors = append(errors, c.validateBudget()...)
	errors = append(errors, c.validateEnding()...)
	errors = append(errors, c.validateSearch()...)
	errors = append(errors, c.validateTools()...)
	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateLog()...)

	return errors
}

func (c *Config) validateConversation() []ValidationError {
	var errors []ValidationError

	if c.Conversation.MaxTurns < 0 {
		errors = append(errors, ValidationError{
			Field:   "conversation.max_turns",
			Value:   c.Conversation.MaxTurns,
			Message: "must be non-negative (0 = no cap)",
		})
	}
	if c.Conversation.TurnIntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "conversation.turn_interval_ms",
			Value:   c.Conversation.TurnIntervalMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateBudget() []ValidationError {
	var errors []ValidationError
	b := c.Budget

	if b.MaxContext <= 0 {
		errors = append(errors, ValidationError{
			Field:   "budget.max_context",
			Value:   b.MaxContext,
			Message: "must be positive",
		})
	}
	if b.WarningThreshold <= 0 {
		errors = append(errors, ValidationError{
			Field:   "budget.warning_threshold",
			Value:   b.WarningThreshold,
			Message: "must be positive",
		})
	}
	if b.TargetAfterTrim <= 0 {
		errors = append(errors, ValidationError{
			Field:   "budget.target_after_trim",
			Value:   b.TargetAfterTrim,
			Message: "must be positive",
		})
	}
	if b.MinKeepRecent <= 0 {
		errors = append(errors, ValidationError{
			Field:   "budget.min_keep_recent",
			Value:   b.MinKeepRecent,
			Message: "must be positive",
		})
	}
	if b.MaxTrimCount <= 0 {
		errors = append(errors, ValidationError{
			Field:   "budget.max_trim_count",
			Value:   b.MaxTrimCount,
			Message: "must be positive",
		})
	}

	// Ordering: target < warning < max, so a trim always lands the
	// total back in the green band.
	if b.MaxContext > 0 && b.WarningThreshold >= b.MaxContext {
		errors = append(errors, ValidationError{
			Field:   "budget.warning_threshold",
			Value:   b.WarningThreshold,
			Message: fmt.Sprintf("must be below budget.max_context (%d)", b.MaxContext),
		})
	}
	if b.WarningThreshold > 0 && b.TargetAfterTrim >= b.WarningThreshold {
		errors = append(errors, ValidationError{
			Field:   "budget.target_after_trim",
			Value:   b.TargetAfterTrim,
			Message: fmt.Sprintf("must be below budget.warning_threshold (%d)", b.WarningThreshold),
		})
	}

	return errors
}

func (c *Config) validateEnding() []ValidationError {
	var errors []ValidationError
	e := c.Ending

	if e.Marker == "" {
		errors = append(errors, ValidationError{
			Field:   "ending.marker",
			Value:   e.Marker,
			Message: "must not be empty",
		})
	}
	if e.MinTurnsBeforeEnd < 0 {
		errors = append(errors, ValidationError{
			Field:   "ending.min_turns_before_end",
			Value:   e.MinTurnsBeforeEnd,
			Message: "must be non-negative",
		})
	}
	if e.AnalysisMinTurns < 0 {
		errors = append(errors, ValidationError{
			Field:   "ending.analysis_min_turns",
			Value:   e.AnalysisMinTurns,
			Message: "must be non-negative",
		})
	}
	if e.CheckTurns < 3 {
		errors = append(errors, ValidationError{
			Field:   "ending.check_turns",
			Value:   e.CheckTurns,
			Message: "must be at least 3 (the loop heuristic compares 3 turns)",
		})
	}
	if e.MinResponseLength < 0 {
		errors = append(errors, ValidationError{
			Field:   "ending.min_response_length",
			Value:   e.MinResponseLength,
			Message: "must be non-negative",
		})
	}
	if e.TransitionTurns < 0 {
		errors = append(errors, ValidationError{
			Field:   "ending.transition_turns",
			Value:   e.TransitionTurns,
			Message: "must be non-negative (0 = immediate stop)",
		})
	}
	if e.EndThreshold < 0 || e.EndThreshold > 100 {
		errors = append(errors, ValidationError{
			Field:   "ending.end_threshold",
			Value:   e.EndThreshold,
			Message: "must be between 0 and 100",
		})
	}
	if e.WarnThreshold < 0 || e.WarnThreshold > 100 {
		errors = append(errors, ValidationError{
			Field:   "ending.warn_threshold",
			Value:   e.WarnThreshold,
			Message: "must be between 0 and 100",
		})
	}
	if e.WarnThreshold > e.EndThreshold {
		errors = append(errors, ValidationError{
			Field:   "ending.warn_threshold",
			Value:   e.WarnThreshold,
			Message: fmt.Sprintf("must not exceed ending.end_threshold (%d)", e.EndThreshold),
		})
	}

	return errors
}

func (c *Config) validateSearch() []ValidationError {
	var errors []ValidationError

	if c.Search.Interval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "search.interval",
			Value:   c.Search.Interval,
			Message: "must be positive",
		})
	}
	if c.Search.MaxResults <= 0 {
		errors = append(errors, ValidationError{
			Field:   "search.max_results",
			Value:   c.Search.MaxResults,
			Message: "must be positive",
		})
	}
	if c.Search.HistoryLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "search.history_limit",
			Value:   c.Search.HistoryLimit,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateTools() []ValidationError {
	var errors []ValidationError

	if c.Tools.Interval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "tools.interval",
			Value:   c.Tools.Interval,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	if c.API.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "api.model",
			Value:   c.API.Model,
			Message: "must not be empty",
		})
	}
	if c.API.MaxTokens <= 0 {
		errors = append(errors, ValidationError{
			Field:   "api.max_tokens",
			Value:   c.API.MaxTokens,
			Message: "must be positive",
		})
	}

	return errors
}

func (c *Config) validateLog() []ValidationError {
	var errors []ValidationError

	if c.Log.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Log.Level)) {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(logging.ValidLevels(), ", ")),
		})
	}
	if c.Log.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "log.max_size_mb",
			Value:   c.Log.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Log.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "log.max_backups",
			Value:   c.Log.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
