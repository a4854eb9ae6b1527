package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/transcript"
)

// summaryTailMessages is how many recent messages the summary prompt
// sees, each truncated to summaryTruncateLen runes.
const (
	summaryTailMessages = 20
	summaryTruncateLen  = 150
)

// summaryFallback is returned when the API call fails. The summary is
// best effort; a closing session must never fail on it.
const summaryFallback = "A summary could not be generated for this session."

// Summarizer produces the closing summary of a finished debate.
type Summarizer struct {
	client *Client
	logger *logging.Logger
}

// NewSummarizer creates a Summarizer on the shared client.
func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{
		client: client,
		logger: client.logger.WithComponent("summarizer"),
	}
}

// Summarize returns a markdown summary of the debate. Total: any
// failure yields a placeholder string, never an error.
func (s *Summarizer) Summarize(ctx context.Context, history []transcript.Message, topic string) string {
	if len(history) == 0 {
		return summaryFallback
	}

	prompt := summaryPrompt(history, topic)
	resp, err := s.client.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.client.model,
		MaxTokens: s.client.maxTokens,
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(prompt),
				},
			},
		},
	})
	if err != nil {
		s.logger.Warn("summary generation failed", "error", err)
		return summaryFallback
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	summary := strings.TrimSpace(text.String())
	if summary == "" {
		return summaryFallback
	}
	return summary
}

// summaryPrompt builds the summary request from the debate tail.
func summaryPrompt(history []transcript.Message, topic string) string {
	return fmt.Sprintf(`Summarize the following debate in at most 300 words of markdown with these four sections:

## Topic
## Main positions
## Key points of contention
## Outcome

Debate topic: %s

Recent exchange:
%s`, topic, formatHistoryTail(history, summaryTailMessages, summaryTruncateLen))
}
