package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/transcript"
)

func TestHasDirective(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"english form", "Let me check. [search: rust memory safety]", true},
		{"legacy form", "查一下 [搜索: 内存安全]", true},
		{"no directive", "Nothing to see here", false},
		{"empty", "", false},
		{"unclosed bracket", "[search: dangling", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasDirective(tt.response); got != tt.want {
				t.Errorf("HasDirective(%q) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestExtractDirective(t *testing.T) {
	got, ok := ExtractDirective("I need data. [search:  benchmark results 2025 ] and more")
	if !ok {
		t.Fatal("ExtractDirective() found nothing")
	}
	if got != "benchmark results 2025" {
		t.Errorf("ExtractDirective() = %q, want %q", got, "benchmark results 2025")
	}
}

func TestExtractDirectiveCapsLength(t *testing.T) {
	long := strings.Repeat("q", 300)
	got, ok := ExtractDirective("[search: " + long + "]")
	if !ok {
		t.Fatal("ExtractDirective() found nothing")
	}
	if len([]rune(got)) != MaxQueryLen {
		t.Errorf("extracted query length = %d, want %d", len([]rune(got)), MaxQueryLen)
	}
}

func TestStripDirectives(t *testing.T) {
	in := "My point stands. [search: counterexamples] Regardless."
	got := StripDirectives(in)
	if HasDirective(got) {
		t.Errorf("StripDirectives(%q) = %q, directive still present", in, got)
	}
}

func TestDeriveQueryPrefersRealUserMessage(t *testing.T) {
	history := []transcript.Message{
		transcript.User("Debate topic: container orchestration"),
		transcript.Assistant("Kubernetes is overkill for most teams."),
		transcript.User("It is now Challenger's turn to speak."),
		transcript.User("[System message - web search results]\nold stuff"),
		transcript.User("what about nomad?"),
		transcript.User("It is now Proponent's turn to speak."),
	}

	got := DeriveQuery(history, "container orchestration")
	if got != "what about nomad?" {
		t.Errorf("DeriveQuery() = %q, want the real user message", got)
	}
}

func TestDeriveQueryFallsBackToAssistantWords(t *testing.T) {
	history := []transcript.Message{
		transcript.User("Debate topic: container orchestration"),
		transcript.Assistant("Kubernetes is overkill for most small teams today."),
	}

	got := DeriveQuery(history, "container orchestration")
	if got != "Kubernetes is overkill for most" {
		t.Errorf("DeriveQuery() = %q, want first five assistant words", got)
	}
}

func TestDeriveQueryFallsBackToTopic(t *testing.T) {
	got := DeriveQuery(nil, "container orchestration")
	if got != "container orchestration" {
		t.Errorf("DeriveQuery() = %q, want topic", got)
	}
}

func TestProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "test query" {
			t.Errorf("endpoint received q = %q, want %q", got, "test query")
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("endpoint received format = %q, want json", got)
		}
		w.Write([]byte(`{"results":[
			{"title":"First","url":"https://a.example","content":"alpha"},
			{"title":"Second","url":"https://b.example","content":"beta"},
			{"title":"Third","url":"https://c.example","content":"gamma"},
			{"title":"Fourth","url":"https://d.example","content":"delta"}
		]}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, 2, nil)
	got, err := p.Search(context.Background(), "test query")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !strings.Contains(got, "First") || !strings.Contains(got, "Second") {
		t.Errorf("Search() = %q, want top results present", got)
	}
	if strings.Contains(got, "Third") {
		t.Errorf("Search() = %q, want results capped at maxResults", got)
	}
}

func TestProviderSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, 3, nil)
	got, err := p.Search(context.Background(), "obscure")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got != "" {
		t.Errorf("Search() = %q, want empty string for no results", got)
	}
}

func TestProviderSearchErrorsAreRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, 3, nil)
	_, err := p.Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("Search() on a 500 returned nil error")
	}
	if !apperrors.IsCollaborator(err) {
		t.Errorf("Search() error = %v, want CollaboratorError", err)
	}
	if !apperrors.IsRecoverable(err) {
		t.Error("search failure must be recoverable")
	}
}

func TestHistoryRecordAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_history.json")
	h, err := NewHistory(path, 2, nil)
	if err != nil {
		t.Fatalf("NewHistory() error = %v", err)
	}

	for _, q := range []string{"first", "second", "third"} {
		if err := h.Record(q, "result for "+q); err != nil {
			t.Fatalf("Record(%q) error = %v", q, err)
		}
	}

	// Limit is 2: only the two most recent queries suppress duplicates.
	if !h.Contains("third") {
		t.Error("Contains(third) = false, want true")
	}
	if !h.Contains("SECOND") {
		t.Error("Contains(SECOND) = false, want case-insensitive true")
	}
	if h.Contains("first") {
		t.Error("Contains(first) = true, want false outside the recent window")
	}
}

func TestHistoryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_history.json")

	h1, err := NewHistory(path, 5, nil)
	if err != nil {
		t.Fatalf("NewHistory() error = %v", err)
	}
	if err := h1.Record("persisted query", "some result"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	h2, err := NewHistory(path, 5, nil)
	if err != nil {
		t.Fatalf("reopen NewHistory() error = %v", err)
	}
	if h2.Len() != 1 {
		t.Fatalf("reopened history Len() = %d, want 1", h2.Len())
	}
	recent := h2.Recent(1)
	if recent[0].Query != "persisted query" {
		t.Errorf("Recent()[0].Query = %q, want %q", recent[0].Query, "persisted query")
	}
}

func TestHistoryCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	h, err := NewHistory(path, 5, nil)
	if err != nil {
		t.Fatalf("NewHistory() on corrupt file error = %v", err)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after corrupt file", h.Len())
	}
}
