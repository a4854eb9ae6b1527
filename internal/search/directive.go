// Package search gives the debate engine a best-effort web search
// capability: a JSON-endpoint provider, the inline-directive
// compatibility shim agents use to request a query mid-response, and a
// file-backed history used for duplicate suppression.
package search

import (
	"regexp"
	"strings"

	"github.com/lhartley/sparring/internal/transcript"
)

// MaxQueryLen caps every derived or extracted query.
const MaxQueryLen = 100

// directivePattern matches the inline search directive. The structured
// tool-call channel on the agent is the primary request path; this
// string form is kept as a compatibility shim, accepting both the
// English and the legacy CJK marker.
var directivePattern = regexp.MustCompile(`\[(?:search|搜索):\s*([^\]]+)\]`)

// HasDirective reports whether a response contains an inline search
// directive.
func HasDirective(response string) bool {
	return response != "" && directivePattern.MatchString(response)
}

// ExtractDirective returns the query from the first inline directive in
// response, trimmed and capped at MaxQueryLen.
func ExtractDirective(response string) (string, bool) {
	if response == "" {
		return "", false
	}
	m := directivePattern.FindStringSubmatch(response)
	if m == nil {
		return "", false
	}
	return capQuery(strings.TrimSpace(m[1])), true
}

// StripDirectives removes every inline directive from a response so the
// request string does not end up in the stored transcript.
func StripDirectives(response string) string {
	return strings.TrimSpace(directivePattern.ReplaceAllString(response, ""))
}

// DeriveQuery picks a search query from the conversation when no
// explicit request exists. Preference order: the most recent real user
// message (turn markers, injected system results, and commands are
// skipped), then the first five words of the most recent assistant
// message, then the topic.
func DeriveQuery(history []transcript.Message, topic string) string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != transcript.RoleUser {
			continue
		}
		content := strings.TrimSpace(msg.Content)
		if content == "" || isSynthetic(content) {
			continue
		}
		return capQuery(content)
	}

	if last, ok := transcript.LastAssistant(history); ok {
		words := strings.Fields(last)
		if len(words) > 5 {
			words = words[:5]
		}
		if len(words) > 0 {
			return capQuery(strings.Join(words, " "))
		}
	}

	return capQuery(strings.TrimSpace(topic))
}

// isSynthetic reports whether a user message was injected by the engine
// rather than typed by the operator.
func isSynthetic(content string) bool {
	if strings.HasPrefix(content, "It is now ") && strings.Contains(content, "turn to speak") {
		return true
	}
	if strings.HasPrefix(content, "[System message") || strings.HasPrefix(content, "[Context update]") {
		return true
	}
	if strings.HasPrefix(content, "Debate topic:") {
		return true
	}
	for _, cmd := range []string{"/quit", "/exit", "/clear"} {
		if strings.HasPrefix(content, cmd) {
			return true
		}
	}
	return false
}

func capQuery(q string) string {
	runes := []rune(q)
	if len(runes) > MaxQueryLen {
		return string(runes[:MaxQueryLen])
	}
	return q
}
