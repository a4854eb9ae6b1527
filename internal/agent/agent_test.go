package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/lhartley/sparring/internal/transcript"
)

func TestConvertHistoryMergesConsecutiveRoles(t *testing.T) {
	history := []transcript.Message{
		transcript.User("Debate topic: cats"),
		transcript.User("It is now Proponent's turn to speak."),
		transcript.Assistant("[Proponent]: Cats are great."),
		transcript.User("[System message - web search results]\n1. Cat facts"),
		transcript.User("It is now Challenger's turn to speak."),
	}

	params := convertHistory(history)

	if len(params) != 3 {
		t.Fatalf("len(params) = %d, want 3 after merging", len(params))
	}
	if params[0].Role != anthropic.MessageParamRoleUser {
		t.Errorf("params[0].Role = %q, want user", params[0].Role)
	}
	if params[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("params[1].Role = %q, want assistant", params[1].Role)
	}
	if params[2].Role != anthropic.MessageParamRoleUser {
		t.Errorf("params[2].Role = %q, want user", params[2].Role)
	}
}

func TestConvertHistoryEmpty(t *testing.T) {
	if got := convertHistory(nil); len(got) != 0 {
		t.Errorf("convertHistory(nil) = %v, want empty", got)
	}
}

func TestExtractResponseTextAndSearch(t *testing.T) {
	message := anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "First fragment. "},
			{Type: "text", Text: "Second fragment."},
			{Type: "tool_use", Name: searchToolName, Input: json.RawMessage(`{"query":" recent studies "}`)},
			{Type: "tool_use", Name: "unrelated_tool", Input: json.RawMessage(`{"query":"ignored"}`)},
		},
	}

	resp := extractResponse(message)

	if resp.Text != "First fragment. Second fragment." {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.SearchQuery != "recent studies" {
		t.Errorf("SearchQuery = %q, want trimmed query", resp.SearchQuery)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"score": 85, "reason": "done"}`, `{"score": 85, "reason": "done"}`},
		{"fenced", "```json\n{\"score\": 85}\n```", `{"score": 85}`},
		{"fence without language", "```\n{\"score\": 85}\n```", `{"score": 85}`},
		{"surrounding prose", `Here is my verdict: {"score": 40} as requested.`, `{"score": 40}`},
		{"no object", "no json here", "no json here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatHistoryTail(t *testing.T) {
	history := []transcript.Message{
		transcript.User("oldest, should be dropped"),
		transcript.Assistant("[A]: " + strings.Repeat("x", 200)),
		transcript.User("short"),
	}

	got := formatHistoryTail(history, 2, 50)

	if strings.Contains(got, "oldest") {
		t.Error("tail includes a message beyond the window")
	}
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[0], "...") {
		t.Errorf("long message not truncated: %q", lines[0])
	}
	if lines[1] != "user: short" {
		t.Errorf("lines[1] = %q", lines[1])
	}
}

func TestAnalyzerDigest(t *testing.T) {
	a := NewAnalyzer("should cities ban cars from their centers entirely", nil)
	history := []transcript.Message{
		transcript.User("Debate topic: cars"),
		transcript.Assistant("[Proponent]: Bans reduce pollution measurably."),
		transcript.Assistant("[Challenger]: Deliveries and disabled access need vehicles."),
	}

	got, err := a.QueryContext(context.Background(), "Where does the debate stand?", history)
	if err != nil {
		t.Fatalf("QueryContext() error = %v", err)
	}
	if !strings.HasPrefix(got, "Where does the debate stand?") {
		t.Errorf("digest missing the question header: %q", got)
	}
	if !strings.Contains(got, "Bans reduce pollution") || !strings.Contains(got, "Deliveries and disabled") {
		t.Errorf("digest missing recent positions: %q", got)
	}
}

func TestAnalyzerNoResponsesYet(t *testing.T) {
	a := NewAnalyzer("anything", nil)
	got, err := a.QueryContext(context.Background(), "status?", []transcript.Message{
		transcript.User("Debate topic: anything"),
	})
	if err != nil {
		t.Fatalf("QueryContext() error = %v", err)
	}
	if got != "" {
		t.Errorf("digest = %q, want empty before any responses", got)
	}
}

func TestSummaryPromptShape(t *testing.T) {
	history := []transcript.Message{
		transcript.Assistant("[A]: opening position"),
	}
	got := summaryPrompt(history, "test topic")

	for _, section := range []string{"## Topic", "## Main positions", "## Key points of contention", "## Outcome"} {
		if !strings.Contains(got, section) {
			t.Errorf("summary prompt missing section %q", section)
		}
	}
	if !strings.Contains(got, "test topic") {
		t.Error("summary prompt missing the topic")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{Model: "m"}, nil); err == nil {
		t.Error("NewClient without API key did not fail")
	}
	if _, err := NewClient(ClientConfig{APIKey: "k"}, nil); err == nil {
		t.Error("NewClient without model did not fail")
	}
	if _, err := NewClient(ClientConfig{APIKey: "k", Model: "m"}, nil); err != nil {
		t.Errorf("NewClient() error = %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("日本語のテキスト", 3); got != "日本語..." {
		t.Errorf("truncateRunes = %q", got)
	}
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("truncateRunes = %q", got)
	}
}
