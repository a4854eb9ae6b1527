package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/flow"
	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/transcript"
)

// searchToolName is the structured channel an agent uses to request a
// web search for its next turn.
const searchToolName = "request_web_search"

// ResponderConfig configures one debate side.
type ResponderConfig struct {
	// Name is the agent's display name, used in logs and errors.
	Name string
	// SystemPrompt is the persona instruction sent with every call.
	SystemPrompt string
	// SearchTool declares the web search request tool when true.
	SearchTool bool
	// OnText receives each streamed text fragment as it arrives.
	OnText func(text string)
}

// Responder plays one side of the debate over the streaming Messages
// API. It implements the flow scheduler's Agent interface.
type Responder struct {
	client *Client
	cfg    ResponderConfig
	logger *logging.Logger
}

// NewResponder creates a Responder on the shared client.
func NewResponder(client *Client, cfg ResponderConfig) *Responder {
	return &Responder{
		client: client,
		cfg:    cfg,
		logger: client.logger.WithAgent(cfg.Name),
	}
}

// Respond streams one turn. Cancellation mid-stream is reported as an
// interruption; any other failure as a collaborator error, both
// recoverable by the caller.
func (r *Responder) Respond(ctx context.Context, history []transcript.Message) (flow.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     r.client.model,
		MaxTokens: r.client.maxTokens,
		Messages:  convertHistory(history),
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: r.cfg.SystemPrompt},
		},
	}
	if r.cfg.SearchTool {
		params.Tools = []anthropic.ToolUnionParam{searchToolParam()}
	}

	stream := r.client.api.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return flow.Response{}, apperrors.NewCollaboratorError(r.cfg.Name, "accumulating stream events", err)
		}
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if r.cfg.OnText != nil {
					r.cfg.OnText(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil || apperrors.Is(err, context.Canceled) {
			return flow.Response{}, fmt.Errorf("agent: %s response interrupted: %w", r.cfg.Name, apperrors.ErrInterrupted)
		}
		return flow.Response{}, apperrors.NewCollaboratorError(r.cfg.Name, "response stream failed", err)
	}

	resp := extractResponse(message)
	if strings.TrimSpace(resp.Text) == "" {
		return flow.Response{}, apperrors.NewCollaboratorError(r.cfg.Name, "empty response", nil)
	}

	r.logger.Debug("response received",
		"length", len(resp.Text),
		"search_query", resp.SearchQuery,
		"stop_reason", message.StopReason,
	)
	return resp, nil
}

// extractResponse flattens the accumulated message into text plus the
// optional structured search request.
func extractResponse(message anthropic.Message) flow.Response {
	var resp flow.Response
	var text strings.Builder
	for _, block := range message.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if block.Name != searchToolName {
				continue
			}
			var input struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(block.Input), &input); err == nil {
				resp.SearchQuery = strings.TrimSpace(input.Query)
			}
		}
	}
	resp.Text = text.String()
	return resp
}

func searchToolParam() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        searchToolName,
			Description: anthropic.String("Request a web search whose results will be injected before your next turn. Use it when a factual claim needs current evidence."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type: "object",
				Properties: map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query, at most 100 characters.",
					},
				},
			},
		},
	}
}
