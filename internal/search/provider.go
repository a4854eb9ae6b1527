package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/lhartley/sparring/internal/errors"
	"github.com/lhartley/sparring/internal/logging"
)

// Provider queries a SearxNG-style JSON search endpoint. Failures are
// wrapped as recoverable collaborator errors; the scheduler skips the
// injection and moves on.
type Provider struct {
	endpoint   string
	maxResults int
	client     *http.Client
	logger     *logging.Logger
}

// result is one entry of the endpoint's results array.
type result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// NewProvider creates a Provider against the given endpoint URL. A nil
// logger is replaced with a nop logger; maxResults values below 1 fall
// back to 3.
func NewProvider(endpoint string, maxResults int, logger *logging.Logger) *Provider {
	if maxResults < 1 {
		maxResults = 3
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provider{
		endpoint:   endpoint,
		maxResults: maxResults,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     logger.WithComponent("search"),
	}
}

// Search runs the query and formats the top results as plain text for
// injection into the conversation. An empty string with a nil error
// means the endpoint answered but found nothing.
func (p *Provider) Search(ctx context.Context, query string) (string, error) {
	if p.endpoint == "" {
		return "", apperrors.ErrNoProvider
	}

	reqURL := fmt.Sprintf("%s?q=%s&format=json", p.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", apperrors.NewCollaboratorError("search", "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperrors.NewCollaboratorError("search", "endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewCollaboratorError("search",
			fmt.Sprintf("endpoint returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.NewCollaboratorError("search", "read response", err)
	}

	var payload struct {
		Results []result `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", apperrors.NewCollaboratorError("search", "decode response", err)
	}

	if len(payload.Results) == 0 {
		p.logger.Debug("search returned no results", "query", query)
		return "", nil
	}

	n := len(payload.Results)
	if n > p.maxResults {
		n = p.maxResults
	}
	var sb strings.Builder
	for i, r := range payload.Results[:n] {
		fmt.Fprintf(&sb, "%d. %s\n%s\n", i+1, r.Title, strings.TrimSpace(r.Content))
		if r.URL != "" {
			fmt.Fprintf(&sb, "Source: %s\n", r.URL)
		}
		if i < n-1 {
			sb.WriteString("\n")
		}
	}

	p.logger.Info("search completed", "query", query, "results", n)
	return strings.TrimRight(sb.String(), "\n"), nil
}
