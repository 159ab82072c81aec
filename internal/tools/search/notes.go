package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
	"github.com/AiWaldoh/a-i-d-a/internal/recall"
)

const (
	defaultNotesTopK = 5
	maxNotesTopK     = 20
)

// NotesSearcher is the slice of the recall index this tool needs.
type NotesSearcher interface {
	Search(query string, k int) ([]recall.Result, error)
}

// searchNotesImpl runs a keyword search over the notes index.
func searchNotesImpl(searcher NotesSearcher, query string, topK int) (string, error) {
	if topK <= 0 {
		topK = defaultNotesTopK
	}
	if topK > maxNotesTopK {
		topK = maxNotesTopK
	}

	hits, err := searcher.Search(query, topK)
	if err != nil {
		return "", fmt.Errorf("notes search failed: %w", err)
	}

	type noteHit struct {
		Path    string  `json:"path"`
		Title   string  `json:"title"`
		Score   float64 `json:"score"`
		Snippet string  `json:"snippet"`
	}
	results := make([]noteHit, len(hits))
	for i, hit := range hits {
		results[i] = noteHit{
			Path:    hit.Path,
			Title:   hit.Title,
			Score:   hit.Score,
			Snippet: hit.Snippet,
		}
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return "", err
	}

	return string(responseJSON), nil
}

// NewSearchNotesTool creates an engine.Tool that wraps the search_notes functionality.
func NewSearchNotesTool(searcher NotesSearcher) engine.Tool {
	return engine.Tool{
		Name:        "search_notes",
		Description: "Keyword search over the engagement notes directory. Use this to recall earlier findings, credentials, and host details before repeating work. Each hit carries a path you can pass to read_file for the full note.",
		SchemaJSON:  `{"type":"object","properties":{"query":{"type":"string","description":"Keywords to search for, e.g. a hostname, service, or credential"},"top_k":{"type":"integer","minimum":1,"maximum":20,"description":"Maximum number of notes to return (default: 5)"}},"required":["query"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			query, ok := args["query"].(string)
			if !ok {
				return "", fmt.Errorf("query must be a string")
			}
			topK := defaultNotesTopK
			if k, ok := args["top_k"].(float64); ok {
				topK = int(k)
			}
			return searchNotesImpl(searcher, query, topK)
		},
	}
}
