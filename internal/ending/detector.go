// Package ending decides when a debate should stop. Detection runs on
// every completed agent turn and combines an explicit end marker with a
// repetition heuristic (or an optional LLM scorer), feeding the grace
// period the flow scheduler enforces before the session actually
// terminates.
package ending

import (
	"context"
	"strings"

	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/transcript"
)

// DefaultMarker is the sentinel substring an agent emits to request
// termination. Matched verbatim: case-sensitive, no whitespace
// tolerance.
const DefaultMarker = "<!-- END -->"

// loopWindow is how many recent assistant first-lines must collapse to
// a single distinct value for the heuristic to flag a loop.
const loopWindow = 3

// Method identifies which detection path fired.
type Method string

const (
	// MethodMarker is reserved for the legacy immediate-stop path; the
	// detector itself never fires on a bare marker.
	MethodMarker Method = "marker"
	// MethodMarkerVerified means an explicit marker was confirmed by the
	// analysis sub-check.
	MethodMarkerVerified Method = "marker_verified"
	// MethodAnalysis means the analysis path fired on its own, with no
	// marker present.
	MethodAnalysis Method = "analysis"
)

// Config controls the detector. Zero values disable everything; use
// DefaultConfig for the stock behavior.
type Config struct {
	// Enabled turns detection on. When false, Detect always reports
	// nothing.
	Enabled bool
	// Marker is the explicit end marker to look for.
	Marker string
	// MinTurnsBeforeEnd is the earliest turn at which a marker is
	// honored. Markers seen earlier are silently ignored.
	MinTurnsBeforeEnd int
	// AnalysisEnabled turns on the analysis sub-check. Without it an
	// explicit marker can never be confirmed and detection is
	// effectively off; a marker alone is never sufficient.
	AnalysisEnabled bool
	// AnalysisMinTurns is the earliest turn at which analysis runs.
	AnalysisMinTurns int
	// AnalysisEndThreshold is the scorer score at which the extended
	// mode fires.
	AnalysisEndThreshold int
	// AnalysisWarnThreshold is the scorer score that is logged but does
	// not fire.
	AnalysisWarnThreshold int
	// CheckTurns is the size of the sliding window of recent assistant
	// responses the loop heuristic inspects.
	CheckTurns int
	// MinResponseLength rejects analysis on responses shorter than this
	// many characters.
	MinResponseLength int
	// TransitionTurns is the grace period reported with every detection.
	// 0 preserves the legacy immediate-stop behavior.
	TransitionTurns int
}

// DefaultConfig returns the stock detector configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		Marker:                DefaultMarker,
		MinTurnsBeforeEnd:     10,
		AnalysisEnabled:       true,
		AnalysisMinTurns:      10,
		AnalysisEndThreshold:  80,
		AnalysisWarnThreshold: 60,
		CheckTurns:            5,
		MinResponseLength:     30,
		TransitionTurns:       2,
	}
}

// Result is the outcome of one Detect call. Produced fresh per call and
// never persisted.
type Result struct {
	Detected        bool
	Method          Method
	Reason          string
	TransitionTurns int
	// Score is the scorer composite when the extended mode ran, 0
	// otherwise.
	Score int
}

// Scorer is the optional extended-mode collaborator: an external judge
// returning a 0-100 composite across loop, consensus, and expression
// dimensions, plus a short textual reason.
type Scorer interface {
	Score(ctx context.Context, topic string, history []transcript.Message) (int, string, error)
}

// Option configures a Detector.
type Option func(*Detector)

// WithScorer installs the extended-mode scorer. When set, it replaces
// the repetition heuristic for the analysis sub-check; scorer errors
// fall back to the heuristic.
func WithScorer(s Scorer) Option {
	return func(d *Detector) { d.scorer = s }
}

// WithTopic records the debate topic for the scorer prompt.
func WithTopic(topic string) Option {
	return func(d *Detector) { d.topic = topic }
}

// WithLogger injects a logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Detector) { d.logger = l.WithComponent("ending") }
}

// Detector inspects agent responses for end conditions. One Detector
// serves one conversation: it holds a sliding window of recent assistant
// first-lines used purely for loop detection.
//
// The detector never manages the grace period itself. The caller must
// suppress Detect entirely while a grace countdown is running; a caller
// that keeps invoking Detect during the window will re-trigger the
// countdown indefinitely and never terminate.
type Detector struct {
	cfg    Config
	topic  string
	scorer Scorer
	logger *logging.Logger
	window []string
}

// New creates a Detector for one conversation.
func New(cfg Config, opts ...Option) *Detector {
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	d := &Detector{
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect decides whether the debate should end given the latest agent
// response. history is the full message sequence including the response.
//
// An explicit marker is never sufficient on its own: it must be
// confirmed by the analysis sub-check, otherwise it is overridden and
// ignored. This asymmetry keeps an agent from ending a debate purely by
// emitting a token sequence.
func (d *Detector) Detect(ctx context.Context, response string, currentTurn int, history []transcript.Message) Result {
	if !d.cfg.Enabled {
		return Result{}
	}

	hasMarker := strings.Contains(response, d.cfg.Marker)

	if hasMarker {
		if currentTurn < d.cfg.MinTurnsBeforeEnd {
			// Policy violation, not an error: ignored without logging
			// above debug level.
			d.logger.Debug("end marker before minimum turns, ignored",
				"turn", currentTurn,
				"min_turns", d.cfg.MinTurnsBeforeEnd,
			)
			return Result{}
		}
		if !d.cfg.AnalysisEnabled || history == nil {
			d.logger.Warn("end marker seen but analysis unavailable, marker overridden",
				"turn", currentTurn,
			)
			return Result{}
		}

		agrees, reason, score := d.analyze(ctx, currentTurn, history)
		if !agrees {
			d.logger.Info("end marker not confirmed by analysis, marker overridden",
				"turn", currentTurn,
				"reason", reason,
			)
			return Result{}
		}
		d.logger.Info("end marker confirmed by analysis",
			"turn", currentTurn,
			"reason", reason,
		)
		return Result{
			Detected:        true,
			Method:          MethodMarkerVerified,
			Reason:          "explicit end marker, " + reason,
			TransitionTurns: d.cfg.TransitionTurns,
			Score:           score,
		}
	}

	if d.cfg.AnalysisEnabled && history != nil {
		if agrees, reason, score := d.analyze(ctx, currentTurn, history); agrees {
			d.logger.Info("analysis detected end condition",
				"turn", currentTurn,
				"reason", reason,
			)
			return Result{
				Detected:        true,
				Method:          MethodAnalysis,
				Reason:          reason,
				TransitionTurns: d.cfg.TransitionTurns,
				Score:           score,
			}
		}
	}

	return Result{}
}

// analyze runs the analysis sub-check: the extended-mode scorer when
// configured, falling back to the repetition heuristic on scorer errors.
func (d *Detector) analyze(ctx context.Context, currentTurn int, history []transcript.Message) (bool, string, int) {
	if currentTurn < d.cfg.AnalysisMinTurns {
		return false, "too few turns for analysis", 0
	}

	if d.scorer != nil {
		score, reason, err := d.scorer.Score(ctx, d.topic, history)
		if err == nil {
			if score >= d.cfg.AnalysisEndThreshold {
				return true, reason, score
			}
			if score >= d.cfg.AnalysisWarnThreshold {
				d.logger.Info("end score approaching threshold",
					"score", score,
					"threshold", d.cfg.AnalysisEndThreshold,
					"reason", reason,
				)
			}
			return false, reason, score
		}
		d.logger.Warn("scorer failed, falling back to repetition heuristic", "error", err)
	}

	return d.detectLoop(history)
}

// detectLoop refreshes the sliding window from history and flags a loop
// when the most recent window entries collapse to a single distinct
// value, meaning the agent is repeating itself.
func (d *Detector) detectLoop(history []transcript.Message) (bool, string, int) {
	recent := transcript.LastAssistantContents(history, d.cfg.CheckTurns)

	d.window = d.window[:0]
	for _, content := range recent {
		d.window = append(d.window, transcript.FirstLine(d.Clean(content)))
	}

	if len(recent) == 0 {
		return false, "no assistant responses yet", 0
	}

	latest := d.Clean(recent[len(recent)-1])
	if len([]rune(latest)) < d.cfg.MinResponseLength {
		return false, "latest response too short for analysis", 0
	}

	if len(d.window) < loopWindow {
		return false, "too few responses for loop detection", 0
	}
	tail := d.window[len(d.window)-loopWindow:]
	for _, line := range tail[1:] {
		if line != tail[0] {
			return false, "recent responses are distinct", 0
		}
	}
	return true, "agent is repeating itself", 0
}

// Clean removes every occurrence of the end marker from text and drops
// lines the removal left blank. Pure function; safe for display and for
// storing the response in history without the marker.
func (d *Detector) Clean(text string) string {
	cleaned := strings.ReplaceAll(text, d.cfg.Marker, "")
	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
