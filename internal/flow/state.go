package flow

import (
	"sync"

	"github.com/lhartley/sparring/internal/transcript"
)

// State is the mutable conversation state owned by the scheduler.
// All access goes through the mutex; the scheduler is the only writer
// but snapshots may be read from event handlers.
type State struct {
	mu sync.Mutex

	topic      string
	turn       int
	speakerA   bool // true when agent A speaks next
	running    bool
	pendingEnd int // grace turns remaining; 0 = no pending end
	trimCount  int
	summary    string
	history    []transcript.Message
}

// NewState returns a State ready for the first turn, with agent A
// speaking first.
func NewState(topic string) *State {
	return &State{
		topic:    topic,
		speakerA: true,
		running:  true,
	}
}

// Snapshot is a consistent read of the scalar state.
type Snapshot struct {
	Topic      string
	Turn       int
	Running    bool
	PendingEnd int
	TrimCount  int
	Summary    string
	HistoryLen int
}

// Snapshot returns a copy of the scalar fields.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Topic:      s.topic,
		Turn:       s.turn,
		Running:    s.running,
		PendingEnd: s.pendingEnd,
		TrimCount:  s.trimCount,
		Summary:    s.summary,
		HistoryLen: len(s.history),
	}
}

// History returns a copy of the conversation history.
func (s *State) History() []transcript.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transcript.Clone(s.history)
}

func (s *State) appendMessages(msgs ...transcript.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
}

// replaceHistory swaps the entire history in one assignment, used by
// the budget trim.
func (s *State) replaceHistory(history []transcript.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = history
}

func (s *State) historyLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func (s *State) advanceTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn++
	return s.turn
}

func (s *State) currentTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *State) flipSpeaker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakerA = !s.speakerA
}

func (s *State) speakerIsA() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speakerA
}

func (s *State) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *State) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *State) setPendingEnd(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingEnd = n
}

func (s *State) getPendingEnd() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingEnd
}

// decrementPendingEnd decrements the grace counter and returns the new
// value. Calling it at zero is a scheduler bug surfaced by Verify.
func (s *State) decrementPendingEnd() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingEnd--
	return s.pendingEnd
}

func (s *State) incrementTrimCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trimCount++
	return s.trimCount
}

func (s *State) getTrimCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trimCount
}

func (s *State) setSummary(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
}

// reset clears the conversation back to the given seed history, for
// the /clear command.
func (s *State) reset(seed []transcript.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = transcript.Clone(seed)
	s.turn = 0
	s.pendingEnd = 0
	s.speakerA = true
}
