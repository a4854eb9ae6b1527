// Package agent binds the debate collaborators to the Anthropic
// Messages API: the streaming responders that play the two sides, the
// closing summarizer, the local context analyzer, and the optional end
// scorer. Everything network-facing reports failures as collaborator
// errors so the flow scheduler can skip the turn and keep going.
package agent

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/transcript"
)

// ClientConfig holds the API connection settings.
type ClientConfig struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string
	// BaseURL overrides the API endpoint. Empty uses the default.
	BaseURL string
	// Model is the model identifier used for every call.
	Model string
	// MaxTokens caps the response length per call.
	MaxTokens int
}

// Client wraps the Anthropic API client shared by the responders, the
// summarizer, and the end scorer.
type Client struct {
	api       anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *logging.Logger
}

// NewClient creates the shared API client. A nil logger is replaced
// with a nop logger.
func NewClient(cfg ClientConfig, logger *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewValidationError("API key is required, set ANTHROPIC_API_KEY").WithField("api.key")
	}
	if cfg.Model == "" {
		return nil, apperrors.NewValidationError("model must not be empty").WithField("api.model")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &Client{
		api:       anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(maxTokens),
		logger:    logger.WithComponent("agent"),
	}, nil
}

// convertHistory converts a transcript into Anthropic message params.
// The API expects alternating roles; consecutive messages with the same
// role (turn markers, injected search results) are merged into one turn.
func convertHistory(history []transcript.Message) []anthropic.MessageParam {
	var merged []transcript.Message
	for _, msg := range history {
		if n := len(merged); n > 0 && merged[n-1].Role == msg.Role {
			merged[n-1].Content += "\n\n" + msg.Content
			continue
		}
		merged = append(merged, msg)
	}

	params := make([]anthropic.MessageParam, 0, len(merged))
	for _, msg := range merged {
		role := anthropic.MessageParamRoleUser
		if msg.Role == transcript.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		params = append(params, anthropic.MessageParam{
			Role: role,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(msg.Content),
			},
		})
	}
	return params
}

// formatHistoryTail renders the last n messages as a plain-text
// excerpt for prompts, truncating each message to keep the excerpt
// small.
func formatHistoryTail(history []transcript.Message, n, maxPerMessage int) string {
	start := len(history) - n
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, msg := range history[start:] {
		b.WriteString(string(msg.Role))
		b.WriteString(": ")
		b.WriteString(truncateRunes(msg.Content, maxPerMessage))
		b.WriteString("\n")
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
