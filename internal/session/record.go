// Package session persists completed debates as JSON records and reads
// them back for the sessions CLI.
package session

import (
	"fmt"
	"regexp"
	"time"

	"github.com/lhartley/sparring/internal/transcript"
)

// maxTopicInFilename caps how much of the topic ends up in the file name.
const maxTopicInFilename = 30

// filenameIllegal matches characters that cannot appear in a file name
// on at least one supported platform.
var filenameIllegal = regexp.MustCompile(`[\\/*?:"<>|]`)

// Record is the persisted form of one completed debate.
type Record struct {
	Topic     string               `json:"topic"`
	StartTime time.Time            `json:"start_time"`
	EndTime   time.Time            `json:"end_time"`
	TurnCount int                  `json:"turn_count"`
	AgentA    string               `json:"agent_a"`
	AgentB    string               `json:"agent_b"`
	TrimCount int                  `json:"trim_count"`
	Summary   string               `json:"summary,omitempty"`
	Messages  []transcript.Message `json:"messages"`
}

// Duration returns how long the debate ran.
func (r *Record) Duration() time.Duration {
	if r.EndTime.IsZero() || r.StartTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// Filename derives the record's file name from its topic and start
// time, for example "rust vs go_20250114_153042.json".
func (r *Record) Filename() string {
	return fmt.Sprintf("%s_%s.json", SanitizeTopic(r.Topic), r.StartTime.Format("20060102_150405"))
}

// SanitizeTopic makes a topic safe for use in a file name: characters
// illegal in file names become underscores and the result is capped at
// 30 runes.
func SanitizeTopic(topic string) string {
	safe := filenameIllegal.ReplaceAllString(topic, "_")
	runes := []rune(safe)
	if len(runes) > maxTopicInFilename {
		safe = string(runes[:maxTopicInFilename])
	}
	if safe == "" {
		safe = "untitled"
	}
	return safe
}
