package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lhartley/sparring/internal/budget"
	"github.com/lhartley/sparring/internal/ending"
	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/event"
	"github.com/lhartley/sparring/internal/interact"
	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/search"
	"github.com/lhartley/sparring/internal/session"
	"github.com/lhartley/sparring/internal/transcript"
)

// contextQuestion is the fixed question put to the analyzer on the
// tool interval.
const contextQuestion = "What is the current state of the debate and which points remain unresolved?"

// Config controls the turn loop.
type Config struct {
	// MaxTurns caps the debate. 0 = no cap.
	MaxTurns int
	// TurnInterval is the pacing sleep between turns.
	TurnInterval time.Duration
	// SearchInterval triggers an automatic search every N completed
	// turns. 0 disables the interval trigger (explicit requests still
	// work).
	SearchInterval int
	// ToolInterval triggers a context query every N completed turns.
	// 0 disables it.
	ToolInterval int
}

// Participant binds an agent implementation to its display name.
type Participant struct {
	Name  string
	Agent Agent
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSearch installs the search provider and its history.
func WithSearch(p SearchProvider, h SearchHistory) Option {
	return func(s *Scheduler) {
		s.search = p
		s.searchHistory = h
	}
}

// WithAnalyzer installs the context analyzer.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Scheduler) { s.analyzer = a }
}

// WithSummarizer installs the closing summarizer.
func WithSummarizer(sum Summarizer) Option {
	return func(s *Scheduler) { s.summarizer = sum }
}

// WithStore installs the session store.
func WithStore(st Store) Option {
	return func(s *Scheduler) { s.store = st }
}

// WithGate installs the interactive input gate. Without it the
// scheduler runs in auto mode.
func WithGate(g Gate) Option {
	return func(s *Scheduler) { s.gate = g }
}

// WithBus installs the event bus.
func WithBus(b *event.Bus) Option {
	return func(s *Scheduler) { s.bus = b }
}

// WithCallbacks installs streaming callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(s *Scheduler) { s.callbacks = cb }
}

// WithLogger injects a logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l.WithComponent("flow") }
}

// Scheduler runs the debate turn loop. One Scheduler serves one
// session; create a new one per Run.
type Scheduler struct {
	cfg      Config
	agentA   Participant
	agentB   Participant
	tracker  *budget.Tracker
	detector *ending.Detector

	search        SearchProvider
	searchHistory SearchHistory
	analyzer      Analyzer
	summarizer    Summarizer
	store         Store
	gate          Gate
	bus           *event.Bus
	callbacks     Callbacks
	logger        *logging.Logger

	state        *State
	seed         []transcript.Message
	pendingQuery string
	proposal     *ending.Proposal
	endReason    string
	prevStatus   budget.Status
	failStreak   int
	sessionID    string
	startTime    time.Time
}

// maxFailStreak is how many consecutive failed agent calls the loop
// tolerates before giving up on the session.
const maxFailStreak = 3

// New creates a Scheduler for one debate between agentA and agentB.
// agentA speaks first.
func New(cfg Config, agentA, agentB Participant, tracker *budget.Tracker, detector *ending.Detector, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:        cfg,
		agentA:     agentA,
		agentB:     agentB,
		tracker:    tracker,
		detector:   detector,
		bus:        event.NewBus(),
		logger:     logging.NewNop(),
		prevStatus: budget.StatusGreen,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the event bus the scheduler publishes on.
func (s *Scheduler) Bus() *event.Bus {
	return s.bus
}

// State returns the conversation state. Nil before Run.
func (s *Scheduler) State() *State {
	return s.state
}

// Run executes the debate until an end condition fires, the turn cap
// is reached, or the context is cancelled. The finished record is
// returned even on abort paths so a partially completed session can be
// persisted.
func (s *Scheduler) Run(ctx context.Context, topic string) (*session.Record, error) {
	s.state = NewState(topic)
	s.startTime = time.Now()
	s.sessionID = s.startTime.Format("20060102_150405")

	opening := s.tracker.AddMessage(transcript.RoleUser, openingMessage(topic))
	s.state.appendMessages(opening)
	s.seed = []transcript.Message{opening}

	s.bus.Publish(event.NewSessionStartedEvent(s.sessionID, topic, s.agentA.Name, s.agentB.Name))
	s.logger.Info("session started",
		"topic", topic,
		"agent_a", s.agentA.Name,
		"agent_b", s.agentB.Name,
	)

	var runErr error
	for s.state.isRunning() {
		if err := ctx.Err(); err != nil {
			s.endReason = "cancelled"
			runErr = err
			break
		}
		if s.cfg.MaxTurns > 0 && s.state.currentTurn() >= s.cfg.MaxTurns {
			s.endReason = "turn limit reached"
			break
		}

		if err := s.runTurn(ctx); err != nil {
			s.endReason = "fatal error"
			runErr = fmt.Errorf("flow: turn %d: %w", s.state.currentTurn()+1, err)
			break
		}

		if s.state.isRunning() && s.cfg.TurnInterval > 0 {
			s.pace(ctx)
		}
	}

	rec := s.buildRecord(ctx)
	location := s.persist(ctx, rec)

	s.bus.Publish(event.NewSessionCompletedEvent(
		s.sessionID, rec.TurnCount, rec.TrimCount, s.endReason, location))
	s.logger.Info("session completed",
		"turns", rec.TurnCount,
		"trims", rec.TrimCount,
		"reason", s.endReason,
		"location", location,
	)
	return rec, runErr
}

// runTurn executes one turn of the loop. Recoverable trouble (agent
// failure, interruption, skipped side effects) returns nil; only
// invariant violations return an error.
func (s *Scheduler) runTurn(ctx context.Context) error {
	// Input typed between turns is handled before anything else.
	if s.gate != nil {
		if line, ok := s.gate.TakeLine(); ok {
			s.handleOperatorLine(line)
			if !s.state.isRunning() {
				return nil
			}
		}
	}

	turnNo := s.state.currentTurn() + 1
	speaker, other := s.currentSpeaker()
	inGrace := s.state.getPendingEnd() > 0

	s.bus.Publish(event.NewTurnStartedEvent(turnNo, speaker.Name))
	if cb := s.callbacks.OnTurnStart; cb != nil {
		cb(turnNo, speaker.Name)
	}

	s.maybeSearch(ctx, turnNo)
	s.maybeQueryContext(ctx, turnNo)

	marker := transcript.User(turnMarker(speaker.Name))
	prompt := append(s.state.History(), marker)

	turnCtx, cancel := context.WithCancel(ctx)
	if s.gate != nil {
		s.gate.Arm(cancel)
	}
	resp, err := speaker.Agent.Respond(turnCtx, prompt)
	if s.gate != nil {
		s.gate.Disarm()
	}
	cancel()

	if err != nil {
		if parentErr := ctx.Err(); parentErr != nil {
			return parentErr
		}
		if apperrors.Is(err, apperrors.ErrInterrupted) || apperrors.Is(err, context.Canceled) {
			s.bus.Publish(event.NewTurnInterruptedEvent(turnNo, speaker.Name))
			s.logger.Info("turn interrupted", "turn", turnNo, "speaker", speaker.Name)
			s.consumeInterruption()
			return nil
		}
		// Agent failure: skip the turn and give the floor to the other
		// side.
		s.logger.Warn("agent response failed, skipping turn",
			"turn", turnNo,
			"speaker", speaker.Name,
			"error", err,
		)
		s.failStreak++
		if s.failStreak >= maxFailStreak {
			s.endReason = "repeated agent failures"
			s.state.stop()
		}
		s.state.flipSpeaker()
		return nil
	}
	s.failStreak = 0

	text := cleanEcho(resp.Text, speaker.Name, other.Name)
	s.captureSearchRequest(resp, text)
	text = search.StripDirectives(text)

	stored := text
	var detection ending.Result
	if !inGrace {
		candidate := append(prompt, transcript.Assistant(formatEntry(speaker.Name, text)))
		detection = s.detector.Detect(ctx, text, turnNo, candidate)
		if detection.Detected {
			stored = s.detector.Clean(text)
		}
	}

	markerMsg := s.tracker.AddMessage(transcript.RoleUser, marker.Content)
	entry := s.tracker.AddMessage(transcript.RoleAssistant, formatEntry(speaker.Name, stored))
	s.state.appendMessages(markerMsg, entry)
	completedTurn := s.state.advanceTurn()

	s.bus.Publish(event.NewTurnCompletedEvent(
		completedTurn, speaker.Name, stored,
		budget.EstimateTokens(entry.Content), s.tracker.Total()))

	if detection.Detected {
		s.proposeEnd(ctx, speaker.Name, resp.Text, detection, completedTurn)
	} else if inGrace {
		if s.state.decrementPendingEnd() == 0 {
			if err := s.resolveEnd(ctx, completedTurn); err != nil {
				return err
			}
		}
	}

	if err := s.checkBudget(ctx, completedTurn); err != nil {
		return err
	}
	if err := s.verifyInvariants(); err != nil {
		return err
	}

	s.state.flipSpeaker()
	return nil
}

// proposeEnd registers a detection: either an immediate resolution
// (zero grace) or the start of the countdown.
func (s *Scheduler) proposeEnd(ctx context.Context, agentName, raw string, detection ending.Result, turnNo int) {
	s.proposal = ending.NewProposal(s.detector, agentName, raw)
	s.bus.Publish(event.NewEndProposedEvent(
		turnNo, agentName, string(detection.Method), detection.Reason, detection.TransitionTurns))
	s.logger.Info("end proposed",
		"turn", turnNo,
		"agent", agentName,
		"method", detection.Method,
		"reason", detection.Reason,
		"grace_turns", detection.TransitionTurns,
	)
	if cb := s.callbacks.OnSystem; cb != nil {
		cb(s.proposal.String())
	}

	if detection.TransitionTurns == 0 {
		_ = s.resolveEnd(ctx, turnNo)
		return
	}
	s.state.setPendingEnd(detection.TransitionTurns)
}

// resolveEnd runs when the grace countdown reaches zero (or was zero
// to begin with). Auto mode confirms unconditionally; interactive mode
// asks the operator: an empty line confirms, text continues the debate
// and is injected as a user message.
func (s *Scheduler) resolveEnd(ctx context.Context, turnNo int) error {
	confirmed := true

	if s.gate != nil {
		if cb := s.callbacks.OnSystem; cb != nil {
			cb("debate ready to end: press Enter to confirm, or type to continue")
		}
		line, err := s.gate.ReadLine(ctx)
		if err == nil && strings.TrimSpace(line) != "" {
			confirmed = false
			cmd, text := interact.ParseCommand(line)
			switch cmd {
			case interact.CommandQuit:
				confirmed = true
			case interact.CommandClear:
				s.clearConversation()
			case interact.CommandMessage:
				s.injectUserMessage(text)
			}
		}
	}

	s.bus.Publish(event.NewEndResolvedEvent(turnNo, confirmed))
	if confirmed {
		if s.proposal != nil {
			s.proposal.Confirm()
			if cb := s.callbacks.OnSystem; cb != nil {
				cb(s.proposal.String())
			}
		}
		s.endReason = "natural end"
		s.state.stop()
	} else {
		s.logger.Info("end proposal declined, debate continues", "turn", turnNo)
	}
	s.proposal = nil
	return nil
}

// consumeInterruption handles the operator line that cancelled the
// in-flight turn. The interrupted turn is not advanced and the same
// speaker retries.
func (s *Scheduler) consumeInterruption() {
	if s.gate == nil {
		return
	}
	line, ok := s.gate.TakeLine()
	if !ok {
		return
	}
	s.handleOperatorLine(line)
}

func (s *Scheduler) handleOperatorLine(line string) {
	cmd, text := interact.ParseCommand(line)
	switch cmd {
	case interact.CommandQuit:
		s.endReason = "operator quit"
		s.state.stop()
	case interact.CommandClear:
		s.clearConversation()
		if cb := s.callbacks.OnSystem; cb != nil {
			cb("conversation cleared")
		}
	case interact.CommandMessage:
		if text != "" {
			s.injectUserMessage(text)
			if cb := s.callbacks.OnSystem; cb != nil {
				cb("message injected")
			}
		}
	}
}

// clearConversation resets history to the opening message and the
// tracker with it.
func (s *Scheduler) clearConversation() {
	s.tracker.Reset()
	reseeded := make([]transcript.Message, 0, len(s.seed))
	for _, msg := range s.seed {
		reseeded = append(reseeded, s.tracker.AddMessage(msg.Role, msg.Content))
	}
	s.state.reset(reseeded)
	s.pendingQuery = ""
	s.proposal = nil
	s.logger.Info("conversation cleared")
}

func (s *Scheduler) injectUserMessage(text string) {
	msg := s.tracker.AddMessage(transcript.RoleUser, text)
	s.state.appendMessages(msg)
	s.logger.Info("operator message injected", "length", len(text))
}

// captureSearchRequest records a search request for the next turn,
// preferring the structured tool channel over the inline directive.
func (s *Scheduler) captureSearchRequest(resp Response, text string) {
	if s.search == nil {
		return
	}
	if resp.SearchQuery != "" {
		s.pendingQuery = capRunes(strings.TrimSpace(resp.SearchQuery), search.MaxQueryLen)
		return
	}
	if q, ok := search.ExtractDirective(text); ok {
		s.pendingQuery = q
	}
}

// maybeSearch injects web search results before the turn when an agent
// requested one or the interval elapsed. Failures skip the injection.
func (s *Scheduler) maybeSearch(ctx context.Context, turnNo int) {
	if s.search == nil {
		return
	}

	completed := turnNo - 1
	query := s.pendingQuery
	trigger := event.TriggerDirective
	if query == "" {
		if s.cfg.SearchInterval <= 0 || completed == 0 || completed%s.cfg.SearchInterval != 0 {
			return
		}
		query = search.DeriveQuery(s.state.History(), s.state.Snapshot().Topic)
		trigger = event.TriggerInterval
	}
	s.pendingQuery = ""
	if query == "" {
		return
	}

	if s.searchHistory != nil && s.searchHistory.Contains(query) {
		s.logger.Debug("search skipped, duplicate query", "query", query)
		return
	}

	result, err := s.search.Search(ctx, query)
	if err != nil {
		s.logger.Warn("search failed, skipping injection", "query", query, "error", err)
		s.bus.Publish(event.NewSearchPerformedEvent(turnNo, query, trigger, false))
		return
	}
	if result == "" {
		s.bus.Publish(event.NewSearchPerformedEvent(turnNo, query, trigger, false))
		return
	}

	msg := s.tracker.AddMessage(transcript.RoleUser, "[System message - web search results]\n"+result)
	s.state.appendMessages(msg)
	if s.searchHistory != nil {
		if err := s.searchHistory.Record(query, result); err != nil {
			s.logger.Warn("failed to record search", "error", err)
		}
	}

	s.bus.Publish(event.NewSearchPerformedEvent(turnNo, query, trigger, true))
	if cb := s.callbacks.OnSystem; cb != nil {
		cb("web search results injected: " + query)
	}
}

// maybeQueryContext injects an analyzer summary on the tool interval.
func (s *Scheduler) maybeQueryContext(ctx context.Context, turnNo int) {
	if s.analyzer == nil {
		return
	}
	completed := turnNo - 1
	if s.cfg.ToolInterval <= 0 || completed == 0 || completed%s.cfg.ToolInterval != 0 {
		return
	}

	summary, err := s.analyzer.QueryContext(ctx, contextQuestion, s.state.History())
	if err != nil || summary == "" {
		if err != nil {
			s.logger.Warn("context query failed, skipping injection", "error", err)
		}
		s.bus.Publish(event.NewContextQueriedEvent(turnNo, false))
		return
	}

	msg := s.tracker.AddMessage(transcript.RoleUser, "[Context update]\n"+summary)
	s.state.appendMessages(msg)
	s.bus.Publish(event.NewContextQueriedEvent(turnNo, true))
	if cb := s.callbacks.OnSystem; cb != nil {
		cb("context update injected")
	}
}

// checkBudget trims the history when the tracker is red and forces
// termination once the trim allowance is spent.
func (s *Scheduler) checkBudget(ctx context.Context, turnNo int) error {
	status := s.tracker.Status()
	if status == budget.StatusYellow && s.prevStatus == budget.StatusGreen {
		s.bus.Publish(event.NewBudgetWarningEvent(turnNo, s.tracker.Total(), s.tracker.Config().WarningThreshold))
	}
	s.prevStatus = status

	if !s.tracker.ShouldTrim() {
		return nil
	}

	trimmed, report := s.tracker.Trim(s.state.History())
	s.state.replaceHistory(trimmed)
	count := s.state.incrementTrimCount()

	s.bus.Publish(event.NewBudgetTrimmedEvent(
		turnNo, report.Removed, report.TokensBefore, report.TokensAfter, count))
	s.logger.Info("history trimmed",
		"removed", report.Removed,
		"tokens_after", report.TokensAfter,
		"trim_count", count,
	)
	if cb := s.callbacks.OnSystem; cb != nil {
		cb(fmt.Sprintf("history trimmed: %d messages removed", report.Removed))
	}

	if count >= s.tracker.Config().MaxTrimCount {
		s.endReason = "token budget exhausted"
		s.logger.Warn("trim allowance spent, terminating session", "trim_count", count)
		s.state.stop()
	}
	return nil
}

// verifyInvariants is the per-turn sanity check: cost slice in
// lockstep, grace counter non-negative. Violations are fatal.
func (s *Scheduler) verifyInvariants() error {
	if err := s.tracker.Verify(s.state.historyLen()); err != nil {
		return err
	}
	if s.state.getPendingEnd() < 0 {
		return apperrors.NewInvariantError("grace counter went negative")
	}
	return nil
}

func (s *Scheduler) currentSpeaker() (speaker, other Participant) {
	if s.state.speakerIsA() {
		return s.agentA, s.agentB
	}
	return s.agentB, s.agentA
}

func (s *Scheduler) pace(ctx context.Context) {
	timer := time.NewTimer(s.cfg.TurnInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// buildRecord snapshots the finished session, including the summary.
func (s *Scheduler) buildRecord(ctx context.Context) *session.Record {
	snap := s.state.Snapshot()
	history := s.state.History()

	// The summary and the save must still happen when the run context
	// was cancelled.
	summary := ""
	if s.summarizer != nil && snap.Turn > 0 {
		sumCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 60*time.Second)
		defer cancel()
		summary = s.summarizer.Summarize(sumCtx, history, snap.Topic)
		s.state.setSummary(summary)
	}

	return &session.Record{
		Topic:     snap.Topic,
		StartTime: s.startTime,
		EndTime:   time.Now(),
		TurnCount: snap.Turn,
		AgentA:    s.agentA.Name,
		AgentB:    s.agentB.Name,
		TrimCount: snap.TrimCount,
		Summary:   summary,
		Messages:  history,
	}
}

// persist saves the record if anything happened. Best effort: storage
// failure is logged, not returned.
func (s *Scheduler) persist(ctx context.Context, rec *session.Record) string {
	if s.store == nil || rec.TurnCount == 0 {
		return ""
	}
	location, err := s.store.Save(context.WithoutCancel(ctx), rec)
	if err != nil {
		s.logger.Error("failed to persist session", "error", err)
		return ""
	}
	return location
}

// openingMessage seeds the conversation with the topic and the ground
// rules both agents see first.
func openingMessage(topic string) string {
	return fmt.Sprintf("Debate topic: %s\n\nTake turns making your case. Engage directly with your opponent's latest points.", topic)
}

// turnMarker is the pseudo-message carrying speaker identity, since
// the chat protocol only has user and assistant roles.
func turnMarker(name string) string {
	return fmt.Sprintf("It is now %s's turn to speak.", name)
}

// formatEntry is the canonical stored form of an agent response. The
// shared history carries both agents' turns, so each entry names its
// speaker.
func formatEntry(name, content string) string {
	return fmt.Sprintf("[%s]: %s", name, content)
}

// cleanEcho strips agent-name prefixes the model echoed back, so the
// canonical prefix is not doubled.
func cleanEcho(text string, names ...string) string {
	trimmed := strings.TrimSpace(text)
	for changed := true; changed; {
		changed = false
		for _, name := range names {
			for _, prefix := range []string{"[" + name + "]:", name + ":"} {
				if strings.HasPrefix(trimmed, prefix) {
					trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
					changed = true
				}
			}
		}
	}
	return trimmed
}

// capRunes truncates s to at most n runes.
func capRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
