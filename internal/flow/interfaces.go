// Package flow drives the debate: the turn scheduler, conversation
// state, and the interfaces its collaborators implement. All
// collaborator failures are recoverable except invariant violations in
// the engine itself.
package flow

import (
	"context"

	"github.com/lhartley/sparring/internal/session"
	"github.com/lhartley/sparring/internal/transcript"
)

// Response is what an agent returns for one turn.
type Response struct {
	// Text is the agent's reply.
	Text string
	// SearchQuery is set when the agent requested a web search through
	// the structured tool channel. The scheduler runs the search before
	// the next turn.
	SearchQuery string
}

// Callbacks let the scheduler surface turn progress without coupling
// to a renderer. All fields are optional. Streamed response text is
// delivered by the agent layer, not the scheduler.
type Callbacks struct {
	// OnTurnStart fires before an agent is called.
	OnTurnStart func(turn int, speaker string)
	// OnSystem fires for engine-side notices (search injected, trim,
	// end proposals).
	OnSystem func(msg string)
}

// Agent produces one debate response given the conversation so far.
// Implementations must honor ctx cancellation promptly and never
// mutate history. A cancelled call returns an error classified as
// ErrInterrupted.
type Agent interface {
	Respond(ctx context.Context, history []transcript.Message) (Response, error)
}

// SearchProvider runs a web search. Best effort: an error means the
// scheduler skips the injection for this turn.
type SearchProvider interface {
	Search(ctx context.Context, query string) (string, error)
}

// SearchHistory records performed searches and suppresses duplicates.
type SearchHistory interface {
	Record(query, result string) error
	Contains(query string) bool
}

// Analyzer answers a question about the conversation state, injected
// as a context update. Best effort.
type Analyzer interface {
	QueryContext(ctx context.Context, question string, history []transcript.Message) (string, error)
}

// Summarizer produces the closing summary. Total: implementations
// return a fallback string rather than failing.
type Summarizer interface {
	Summarize(ctx context.Context, history []transcript.Message, topic string) string
}

// Store persists the finished debate.
type Store interface {
	Save(ctx context.Context, rec *session.Record) (string, error)
}

// Gate is the scheduler's view of the interactive input channel. A nil
// Gate means auto mode: no interruption, endings auto-confirm.
type Gate interface {
	// Arm registers the cancel function for the in-flight turn;
	// operator input cancels it and buffers the line.
	Arm(cancel context.CancelFunc)
	// Disarm clears the armed cancel function.
	Disarm()
	// TakeLine returns the buffered line that caused an interruption,
	// clearing the interrupt flag.
	TakeLine() (string, bool)
	// ReadLine blocks for one line of operator input.
	ReadLine(ctx context.Context) (string, error)
}
