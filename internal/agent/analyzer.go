package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/transcript"
)

// analyzer excerpt sizes: the topic line and each recent response are
// truncated so the injected update stays small.
const (
	analyzerTopicLen    = 100
	analyzerResponses   = 3
	analyzerResponseLen = 150
)

// Analyzer answers the scheduler's periodic context question with a
// locally assembled digest of the conversation. Deliberately offline:
// the digest is injected into API-bound prompts, so building it from an
// API call would double the token cost for no gain.
type Analyzer struct {
	topic  string
	logger *logging.Logger
}

// NewAnalyzer creates an Analyzer for one debate topic. A nil logger is
// replaced with a nop logger.
func NewAnalyzer(topic string, logger *logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		topic:  topic,
		logger: logger.WithComponent("analyzer"),
	}
}

// QueryContext returns the current-state digest. The question is
// echoed as the digest header so the agents see what prompted it.
func (a *Analyzer) QueryContext(_ context.Context, question string, history []transcript.Message) (string, error) {
	recent := transcript.LastAssistantContents(history, analyzerResponses)
	if len(recent) == 0 {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nTopic: %s\n\nMost recent positions:\n", question, truncateRunes(a.topic, analyzerTopicLen))
	for _, content := range recent {
		b.WriteString("- ")
		b.WriteString(truncateRunes(strings.TrimSpace(content), analyzerResponseLen))
		b.WriteString("\n")
	}

	a.logger.Debug("context digest assembled", "responses", len(recent))
	return strings.TrimSpace(b.String()), nil
}
