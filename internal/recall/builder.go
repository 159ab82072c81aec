package recall

import (
	"context"
	"fmt"
	"strings"
)

const defaultTopK = 5

// Searcher is the slice of Index the builder needs.
type Searcher interface {
	Search(query string, k int) ([]Result, error)
}

// Builder renders relevant notes into a context block for the agent loop.
// On any failure it returns an empty block; stale or missing recall never
// blocks a run.
type Builder struct {
	searcher Searcher
	topK     int
}

// NewBuilder creates a context builder over a notes searcher.
func NewBuilder(searcher Searcher) *Builder {
	return &Builder{
		searcher: searcher,
		topK:     defaultTopK,
	}
}

// Build searches the notes index with the task text and formats the hits.
// Returns "" when there is nothing worth injecting.
func (b *Builder) Build(ctx context.Context, task string) string {
	if b == nil || b.searcher == nil || strings.TrimSpace(task) == "" {
		return ""
	}

	results, err := b.searcher.Search(task, b.topK)
	if err != nil || len(results) == 0 {
		return ""
	}

	parts := []string{"### Relevant notes:\n"}
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("\n📄 %s - %s (score: %.2f)", r.Path, r.Title, r.Score))
		if r.Snippet != "" {
			parts = append(parts, r.Snippet)
		}
	}

	return strings.Join(parts, "\n")
}
