// Package budget tracks the estimated token cost of a debate history and
// decides when and how to compact it. The tracker keeps a per-message cost
// slice in lockstep with the history owned by the flow scheduler: same
// length, same order. That lockstep is the package's core invariant; a
// mismatch means a bug upstream and is surfaced as an invariant error.
package budget

import (
	"fmt"
	"sync"
	"unicode/utf8"

	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/transcript"
)

// Status describes how close the running total is to the context limit.
type Status string

const (
	// StatusGreen means the total is below the warning threshold.
	StatusGreen Status = "green"
	// StatusYellow means the total crossed the warning threshold but is
	// still below the context limit.
	StatusYellow Status = "yellow"
	// StatusRed means the total reached the context limit and the
	// history must be trimmed.
	StatusRed Status = "red"
)

// Config holds the token budget thresholds. All values are positive,
// with WarningThreshold < MaxContext and TargetAfterTrim <
// WarningThreshold; internal/config validates the ordering.
type Config struct {
	// MaxContext is the hard context limit. Reaching it turns the
	// status red and forces a trim.
	MaxContext int
	// WarningThreshold is where the status turns yellow.
	WarningThreshold int
	// TargetAfterTrim is the total a trim compacts down toward,
	// leaving room for the history to grow again.
	TargetAfterTrim int
	// MinKeepRecent is the number of most recent messages a trim must
	// keep regardless of their cost.
	MinKeepRecent int
	// MaxTrimCount is how many trims a session tolerates before it is
	// forcibly terminated with a summary.
	MaxTrimCount int
}

// DefaultConfig returns the stock thresholds: a 150k context limit with
// 50k headroom reserved for responses.
func DefaultConfig() Config {
	return Config{
		MaxContext:       150_000,
		WarningThreshold: 120_000,
		TargetAfterTrim:  80_000,
		MinKeepRecent:    10,
		MaxTrimCount:     3,
	}
}

// TrimReport describes what a trim removed.
type TrimReport struct {
	// Removed is the number of messages discarded.
	Removed int
	// TokensBefore is the running total before the trim.
	TokensBefore int
	// TokensAfter is the running total after the trim.
	TokensAfter int
}

// Tracker maintains the running token estimate for a message history.
// It never mutates the history itself; Trim returns a new slice and the
// caller performs the swap.
type Tracker struct {
	mu     sync.Mutex
	cfg    Config
	total  int
	costs  []int // per-message cost, lockstep with the caller's history
	logger *logging.Logger
}

// New creates a Tracker. A nil logger is replaced with a nop logger.
func New(cfg Config, logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		cfg:    cfg,
		logger: logger.WithComponent("budget"),
	}
}

// EstimateTokens estimates the token cost of text as its character count
// divided by 4. This is a fixed approximation, not an exact tokenizer;
// the error is acceptable because the thresholds carry generous headroom.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// Config returns the tracker's thresholds.
func (t *Tracker) Config() Config {
	return t.cfg
}

// AddMessage computes and records the token cost of a new message and
// returns the constructed message for the caller to append to history.
func (t *Tracker) AddMessage(role transcript.Role, content string) transcript.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	cost := EstimateTokens(content)
	t.costs = append(t.costs, cost)
	t.total += cost

	return transcript.Message{Role: role, Content: content}
}

// Total returns the running token estimate for the tracked history.
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Len returns the number of tracked messages.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.costs)
}

// Status reports green, yellow, or red for the current total. The upper
// boundary of each band is inclusive on the next state: a total exactly
// at WarningThreshold is yellow, exactly at MaxContext is red.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *Tracker) statusLocked() Status {
	switch {
	case t.total < t.cfg.WarningThreshold:
		return StatusGreen
	case t.total < t.cfg.MaxContext:
		return StatusYellow
	default:
		return StatusRed
	}
}

// ShouldTrim reports whether the history must be compacted. Equivalent
// to Status() == StatusRed.
func (t *Tracker) ShouldTrim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total >= t.cfg.MaxContext
}

// Trim compacts messages when the total has reached the context limit
// and returns the surviving slice. When no trim is needed, messages is
// returned unchanged with a zero report.
//
// The compaction is greedy, recency-biased, and single-pass: the last
// MinKeepRecent messages are always kept, then older messages are
// prepended newest-first while the accumulated cost stays within
// TargetAfterTrim, stopping at the first message that would exceed it.
// The cost slice is recomputed wholesale from the survivors so the
// lockstep invariant holds exactly after the trim. Order is never
// changed.
func (t *Tracker) Trim(messages []transcript.Message) ([]transcript.Message, TrimReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.total < t.cfg.MaxContext {
		return messages, TrimReport{}
	}
	if len(messages) == 0 {
		return []transcript.Message{}, TrimReport{}
	}

	before := t.total

	minIdx := len(messages) - t.cfg.MinKeepRecent
	if minIdx < 0 {
		minIdx = 0
	}

	// The protected suffix is kept unconditionally.
	accumulated := 0
	for i := minIdx; i < len(messages) && i < len(t.costs); i++ {
		accumulated += t.costs[i]
	}

	// Walk the older prefix most-recent-first, keeping messages while
	// the running cost stays within the post-trim target.
	start := minIdx
	for i := minIdx - 1; i >= 0; i-- {
		if accumulated+t.costs[i] > t.cfg.TargetAfterTrim {
			break
		}
		accumulated += t.costs[i]
		start = i
	}

	kept := make([]transcript.Message, len(messages)-start)
	copy(kept, messages[start:])

	t.costs = make([]int, len(kept))
	t.total = 0
	for i, msg := range kept {
		t.costs[i] = EstimateTokens(msg.Content)
		t.total += t.costs[i]
	}

	report := TrimReport{
		Removed:      start,
		TokensBefore: before,
		TokensAfter:  t.total,
	}
	t.logger.Info("history trimmed",
		"removed", report.Removed,
		"tokens_before", report.TokensBefore,
		"tokens_after", report.TokensAfter,
	)
	return kept, report
}

// Reset discards all tracked costs. Used when the operator clears the
// conversation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.costs = nil
	t.total = 0
}

// Verify checks the lockstep invariant against the caller's history
// length. A mismatch indicates a bug in the tracker or its caller and
// is returned as an unrecoverable invariant error.
func (t *Tracker) Verify(historyLen int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.costs) != historyLen {
		return apperrors.NewInvariantError(
			fmt.Sprintf("token cost slice out of lockstep: %d costs for %d messages", len(t.costs), historyLen),
		)
	}
	return nil
}
