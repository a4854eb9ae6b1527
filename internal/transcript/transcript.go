// Package transcript defines the message data model shared by the debate
// engine: the ordered history of user and assistant messages that every
// other component reads from or appends to.
package transcript

import "strings"

// Role identifies who produced a message in the chat protocol.
type Role string

const (
	// RoleUser marks operator input and synthetic system-injected messages.
	RoleUser Role = "user"

	// RoleAssistant marks agent responses.
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the debate history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// User constructs a user-role message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant constructs an assistant-role message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Clone returns a copy of the history. Callers that hand the history to a
// collaborator use this so the collaborator can never mutate the original.
func Clone(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}

// LastAssistantContents returns the contents of the most recent n
// assistant messages in chronological order. Fewer are returned if the
// history does not contain n assistant messages.
func LastAssistantContents(messages []Message, n int) []string {
	if n <= 0 {
		return nil
	}
	var out []string
	for i := len(messages) - 1; i >= 0 && len(out) < n; i-- {
		if messages[i].Role == RoleAssistant {
			out = append(out, messages[i].Content)
		}
	}
	// Collected newest-first; flip to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// LastAssistant returns the content of the most recent assistant message,
// or "" if the history contains none.
func LastAssistant(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant {
			return messages[i].Content, true
		}
	}
	return "", false
}

// FirstLine returns the first non-empty line of s, trimmed of surrounding
// whitespace.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
