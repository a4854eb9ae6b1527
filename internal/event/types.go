package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "turn.completed", "end.proposed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session Lifecycle Events
// -----------------------------------------------------------------------------

// SessionStartedEvent is emitted when a debate session begins.
type SessionStartedEvent struct {
	baseEvent
	SessionID string // Session identifier
	Topic     string // Debate topic
	AgentA    string // Name of the first speaker
	AgentB    string // Name of the second speaker
}

// NewSessionStartedEvent creates a SessionStartedEvent.
func NewSessionStartedEvent(sessionID, topic, agentA, agentB string) SessionStartedEvent {
	return SessionStartedEvent{
		baseEvent: newBaseEvent("session.started"),
		SessionID: sessionID,
		Topic:     topic,
		AgentA:    agentA,
		AgentB:    agentB,
	}
}

// SessionCompletedEvent is emitted when a session reaches a terminal state.
type SessionCompletedEvent struct {
	baseEvent
	SessionID string // Session identifier
	TurnCount int    // Completed turns
	TrimCount int    // History compactions performed
	Reason    string // Why the session ended ("end detected", "budget exhausted", "quit", "turn limit")
	Location  string // Where the record was persisted (empty if persistence failed)
}

// NewSessionCompletedEvent creates a SessionCompletedEvent.
func NewSessionCompletedEvent(sessionID string, turnCount, trimCount int, reason, location string) SessionCompletedEvent {
	return SessionCompletedEvent{
		baseEvent: newBaseEvent("session.completed"),
		SessionID: sessionID,
		TurnCount: turnCount,
		TrimCount: trimCount,
		Reason:    reason,
		Location:  location,
	}
}

// -----------------------------------------------------------------------------
// Turn Events
// -----------------------------------------------------------------------------

// TurnStartedEvent is emitted before an agent is asked to respond.
type TurnStartedEvent struct {
	baseEvent
	Turn    int    // Turn number about to execute (1-based)
	Speaker string // Agent producing this turn
}

// NewTurnStartedEvent creates a TurnStartedEvent.
func NewTurnStartedEvent(turn int, speaker string) TurnStartedEvent {
	return TurnStartedEvent{
		baseEvent: newBaseEvent("turn.started"),
		Turn:      turn,
		Speaker:   speaker,
	}
}

// TurnCompletedEvent is emitted when an agent response has been appended.
type TurnCompletedEvent struct {
	baseEvent
	Turn        int    // Completed turn number (1-based)
	Speaker     string // Agent that produced this turn
	Content     string // Response text as stored in history
	Tokens      int    // Estimated cost of this response
	TotalTokens int    // Running history total after the append
}

// NewTurnCompletedEvent creates a TurnCompletedEvent.
func NewTurnCompletedEvent(turn int, speaker, content string, tokens, totalTokens int) TurnCompletedEvent {
	return TurnCompletedEvent{
		baseEvent:   newBaseEvent("turn.completed"),
		Turn:        turn,
		Speaker:     speaker,
		Content:     content,
		Tokens:      tokens,
		TotalTokens: totalTokens,
	}
}

// TurnInterruptedEvent is emitted when the operator cancels an in-flight
// response. Nothing is appended and the turn count does not advance.
type TurnInterruptedEvent struct {
	baseEvent
	Turn    int    // Turn that was attempted
	Speaker string // Agent whose response was cancelled
}

// NewTurnInterruptedEvent creates a TurnInterruptedEvent.
func NewTurnInterruptedEvent(turn int, speaker string) TurnInterruptedEvent {
	return TurnInterruptedEvent{
		baseEvent: newBaseEvent("turn.interrupted"),
		Turn:      turn,
		Speaker:   speaker,
	}
}

// -----------------------------------------------------------------------------
// Side-Effect Events
// -----------------------------------------------------------------------------

// SearchTrigger identifies what caused a web search.
type SearchTrigger string

const (
	// TriggerDirective means the previous response requested the search.
	TriggerDirective SearchTrigger = "directive"
	// TriggerInterval means the configured turn interval elapsed.
	TriggerInterval SearchTrigger = "interval"
)

// SearchPerformedEvent is emitted after a search attempt, successful or not.
type SearchPerformedEvent struct {
	baseEvent
	Turn    int           // Turn the result was injected before
	Query   string        // Query sent to the provider
	Trigger SearchTrigger // What caused the search
	Success bool          // Whether a result was injected
}

// NewSearchPerformedEvent creates a SearchPerformedEvent.
func NewSearchPerformedEvent(turn int, query string, trigger SearchTrigger, success bool) SearchPerformedEvent {
	return SearchPerformedEvent{
		baseEvent: newBaseEvent("search.performed"),
		Turn:      turn,
		Query:     query,
		Trigger:   trigger,
		Success:   success,
	}
}

// ContextQueriedEvent is emitted after a context-analyzer attempt.
type ContextQueriedEvent struct {
	baseEvent
	Turn    int  // Turn the summary was injected before
	Success bool // Whether a summary was injected
}

// NewContextQueriedEvent creates a ContextQueriedEvent.
func NewContextQueriedEvent(turn int, success bool) ContextQueriedEvent {
	return ContextQueriedEvent{
		baseEvent: newBaseEvent("context.queried"),
		Turn:      turn,
		Success:   success,
	}
}

// -----------------------------------------------------------------------------
// Budget Events
// -----------------------------------------------------------------------------

// BudgetWarningEvent is emitted the first time the running total crosses
// the warning threshold.
type BudgetWarningEvent struct {
	baseEvent
	Turn        int // Turn after which the threshold was crossed
	TotalTokens int // Running history total
	Threshold   int // The warning threshold
}

// NewBudgetWarningEvent creates a BudgetWarningEvent.
func NewBudgetWarningEvent(turn, totalTokens, threshold int) BudgetWarningEvent {
	return BudgetWarningEvent{
		baseEvent:   newBaseEvent("budget.warning"),
		Turn:        turn,
		TotalTokens: totalTokens,
		Threshold:   threshold,
	}
}

// BudgetTrimmedEvent is emitted after a history compaction.
type BudgetTrimmedEvent struct {
	baseEvent
	Turn         int // Turn after which the trim ran
	Removed      int // Messages discarded
	TokensBefore int // Running total before the trim
	TokensAfter  int // Running total after the trim
	TrimCount    int // Total compactions so far this session
}

// NewBudgetTrimmedEvent creates a BudgetTrimmedEvent.
func NewBudgetTrimmedEvent(turn, removed, tokensBefore, tokensAfter, trimCount int) BudgetTrimmedEvent {
	return BudgetTrimmedEvent{
		baseEvent:    newBaseEvent("budget.trimmed"),
		Turn:         turn,
		Removed:      removed,
		TokensBefore: tokensBefore,
		TokensAfter:  tokensAfter,
		TrimCount:    trimCount,
	}
}

// -----------------------------------------------------------------------------
// End-Detection Events
// -----------------------------------------------------------------------------

// EndProposedEvent is emitted when end detection fires and a grace period
// (or immediate confirmation) begins.
type EndProposedEvent struct {
	baseEvent
	Turn            int    // Turn on which detection fired
	Agent           string // Agent whose response triggered detection
	Method          string // "marker_verified" or "analysis"
	Reason          string // Human-readable detection reason
	TransitionTurns int    // Grace turns before the session may stop
}

// NewEndProposedEvent creates an EndProposedEvent.
func NewEndProposedEvent(turn int, agent, method, reason string, transitionTurns int) EndProposedEvent {
	return EndProposedEvent{
		baseEvent:       newBaseEvent("end.proposed"),
		Turn:            turn,
		Agent:           agent,
		Method:          method,
		Reason:          reason,
		TransitionTurns: transitionTurns,
	}
}

// EndResolvedEvent is emitted when a pending end is confirmed or declined.
type EndResolvedEvent struct {
	baseEvent
	Turn      int  // Turn on which the grace period elapsed
	Confirmed bool // True to terminate, false to keep debating
}

// NewEndResolvedEvent creates an EndResolvedEvent.
func NewEndResolvedEvent(turn int, confirmed bool) EndResolvedEvent {
	return EndResolvedEvent{
		baseEvent: newBaseEvent("end.resolved"),
		Turn:      turn,
		Confirmed: confirmed,
	}
}
