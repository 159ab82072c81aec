package search

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/AiWaldoh/a-i-d-a/internal/recall"
)

type fakeSearcher struct {
	results []recall.Result
	err     error
	gotK    int
}

func (f *fakeSearcher) Search(query string, k int) ([]recall.Result, error) {
	f.gotK = k
	return f.results, f.err
}

func TestSearchNotesImpl(t *testing.T) {
	searcher := &fakeSearcher{
		results: []recall.Result{
			{Path: "recon/services.md", Title: "Service scan", Score: 1.8, Snippet: "22/tcp open ssh"},
			{Path: "creds.md", Title: "Credentials", Score: 0.9, Snippet: "admin / Summer2024!"},
		},
	}

	resultJSON, err := searchNotesImpl(searcher, "ssh", 0)
	if err != nil {
		t.Fatalf("searchNotesImpl() error = %v", err)
	}
	if searcher.gotK != defaultNotesTopK {
		t.Errorf("k = %d, want default %d", searcher.gotK, defaultNotesTopK)
	}

	var response struct {
		Query   string `json:"query"`
		Count   int    `json:"count"`
		Results []struct {
			Path    string  `json:"path"`
			Title   string  `json:"title"`
			Score   float64 `json:"score"`
			Snippet string  `json:"snippet"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultJSON), &response); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if response.Query != "ssh" {
		t.Errorf("query = %q, want ssh", response.Query)
	}
	if response.Count != 2 {
		t.Errorf("count = %d, want 2", response.Count)
	}
	if response.Results[0].Path != "recon/services.md" {
		t.Errorf("first hit path = %q, want recon/services.md", response.Results[0].Path)
	}
	if response.Results[0].Snippet != "22/tcp open ssh" {
		t.Errorf("first hit snippet = %q", response.Results[0].Snippet)
	}
}

func TestSearchNotesClampsTopK(t *testing.T) {
	searcher := &fakeSearcher{}

	if _, err := searchNotesImpl(searcher, "anything", 500); err != nil {
		t.Fatalf("searchNotesImpl() error = %v", err)
	}
	if searcher.gotK != maxNotesTopK {
		t.Errorf("k = %d, want clamped to %d", searcher.gotK, maxNotesTopK)
	}
}

func TestSearchNotesEmptyResults(t *testing.T) {
	searcher := &fakeSearcher{}

	resultJSON, err := searchNotesImpl(searcher, "nothing matches", 5)
	if err != nil {
		t.Fatalf("searchNotesImpl() error = %v", err)
	}

	var response struct {
		Count   int           `json:"count"`
		Results []interface{} `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultJSON), &response); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if response.Count != 0 {
		t.Errorf("count = %d, want 0", response.Count)
	}
	if len(response.Results) != 0 {
		t.Errorf("results = %v, want empty", response.Results)
	}
}

func TestSearchNotesError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("index closed")}

	if _, err := searchNotesImpl(searcher, "query", 5); err == nil {
		t.Error("searchNotesImpl() with failing searcher, want error")
	}
}
