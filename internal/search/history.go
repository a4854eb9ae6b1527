package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lhartley/sparring/internal/logging"
)

// DefaultHistoryLimit is how many recent entries duplicate suppression
// looks at.
const DefaultHistoryLimit = 5

// Entry is one recorded search.
type Entry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
	Result    string    `json:"result"`
}

// historyFile is the on-disk shape.
type historyFile struct {
	Searches []Entry `json:"searches"`
}

// History is a JSON-file-backed log of performed searches, scoped to
// one session. It backs the duplicate-query suppression in the turn
// loop. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	path    string
	limit   int
	entries []Entry
	logger  *logging.Logger
}

// NewHistory opens (or creates) a history file. A corrupt file is
// replaced with an empty one rather than failing the session. limit
// values below 1 fall back to DefaultHistoryLimit.
func NewHistory(path string, limit int, logger *logging.Logger) (*History, error) {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &History{
		path:   path,
		limit:  limit,
		logger: logger.WithComponent("search"),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("search: create history directory: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fresh session, empty history.
	case err != nil:
		return nil, fmt.Errorf("search: read history file: %w", err)
	default:
		var f historyFile
		if jerr := json.Unmarshal(data, &f); jerr != nil {
			h.logger.Warn("history file corrupt, starting empty", "path", path, "error", jerr)
		} else {
			h.entries = f.Searches
		}
	}

	return h, nil
}

// Record appends a completed search and persists the file.
func (h *History) Record(query, result string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, Entry{
		Query:     query,
		Timestamp: time.Now(),
		Result:    result,
	})
	return h.saveLocked()
}

// Recent returns the n most recent entries, newest first.
func (h *History) Recent(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Contains reports whether query matches one of the recent entries
// within the configured limit. Comparison is case-insensitive.
func (h *History) Contains(query string) bool {
	for _, e := range h.Recent(h.limit) {
		if strings.EqualFold(e.Query, query) {
			return true
		}
	}
	return false
}

// Len returns the number of recorded searches.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *History) saveLocked() error {
	data, err := json.MarshalIndent(historyFile{Searches: h.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("search: marshal history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		return fmt.Errorf("search: write history file: %w", err)
	}
	return nil
}
