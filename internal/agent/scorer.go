package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/transcript"
)

// scorerTailMessages is how many recent messages the scoring prompt
// sees.
const scorerTailMessages = 10

// Scorer judges whether a debate has naturally concluded, returning a
// 0-100 composite across three dimensions. It backs the end detector's
// extended mode; scoring failures are returned as errors so the
// detector can fall back to its repetition heuristic.
type Scorer struct {
	client *Client
	logger *logging.Logger
}

// NewScorer creates a Scorer on the shared client.
func NewScorer(client *Client) *Scorer {
	return &Scorer{
		client: client,
		logger: client.logger.WithComponent("scorer"),
	}
}

// Score asks the model to judge the debate's end state.
func (s *Scorer) Score(ctx context.Context, topic string, history []transcript.Message) (int, string, error) {
	resp, err := s.client.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.client.model,
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(scorerPrompt(topic, history)),
				},
			},
		},
	})
	if err != nil {
		return 0, "", apperrors.NewCollaboratorError("scorer", "scoring call failed", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	var verdict struct {
		Score  int    `json:"score"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text.String())), &verdict); err != nil {
		return 0, "", apperrors.NewCollaboratorError("scorer", "unparseable scoring verdict", err)
	}
	if verdict.Score < 0 || verdict.Score > 100 {
		return 0, "", apperrors.NewCollaboratorError("scorer",
			fmt.Sprintf("score %d out of range", verdict.Score), nil)
	}

	s.logger.Debug("debate scored", "score", verdict.Score, "reason", verdict.Reason)
	return verdict.Score, verdict.Reason, nil
}

// scorerPrompt builds the three-dimension judging request.
func scorerPrompt(topic string, history []transcript.Message) string {
	return fmt.Sprintf(`You are judging whether a debate has naturally concluded. Score three dimensions and sum them:

- repetition (0-30): are the participants repeating earlier arguments?
- consensus (0-40): have the positions converged or been conceded?
- expression (0-30): are the participants signalling they are finished?

Reply with only a JSON object: {"score": <0-100 sum>, "reason": "<one sentence>"}

Debate topic: %s

Recent exchange:
%s`, topic, formatHistoryTail(history, scorerTailMessages, summaryTruncateLen))
}

// extractJSON strips a markdown code fence around a JSON payload, if
// present, and trims to the outermost object braces.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
