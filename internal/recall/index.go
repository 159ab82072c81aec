// Package recall maintains a BM25 index over engagement notes. Notes are
// plain markdown or text files dropped into the notes directory by the
// operator or by the agent itself; the index backs the search_notes tool and
// the context block injected at the start of a loop run.
package recall

import (
	"bufio"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const snippetLength = 240

// Result is a single note hit.
type Result struct {
	Path    string
	Title   string
	Score   float64
	Snippet string
}

// Index provides BM25 keyword search over the notes directory. Notes are
// indexed whole; they are short enough that chunking buys nothing.
type Index struct {
	index    bleve.Index
	path     string
	notesDir string
}

// Open opens or creates the notes index under dataDir.
// If the index is corrupted, it is deleted and recreated; the next Reindex
// repopulates it from the notes directory.
func Open(notesDir, dataDir string) (*Index, error) {
	indexPath := filepath.Join(dataDir, "recall.bleve")

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		indexMapping := buildIndexMapping()
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create notes index: %w", err)
		}
		log.Println("📚 Notes index created")
	} else if err != nil {
		log.Printf("⚠️  Notes index appears corrupted (error: %v), recreating...", err)

		if index != nil {
			index.Close()
		}

		if err := os.RemoveAll(indexPath); err != nil {
			log.Printf("⚠️  Failed to remove corrupted index directory: %v", err)
		}

		indexMapping := buildIndexMapping()
		index, err = bleve.New(indexPath, indexMapping)
		if err != nil {
			return nil, fmt.Errorf("failed to recreate notes index: %w", err)
		}
		log.Println("✅ Notes index recreated (corrupted index was deleted)")
	}

	return &Index{
		index:    index,
		path:     indexPath,
		notesDir: notesDir,
	}, nil
}

// buildIndexMapping creates the index mapping for note documents.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	noteMapping := bleve.NewDocumentMapping()

	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	pathField.Index = true
	noteMapping.AddFieldMappingsAt("path", pathField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	titleField.Index = true
	noteMapping.AddFieldMappingsAt("title", titleField)

	// Stored so hits can carry a snippet without a second disk read.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	textField.Index = true
	noteMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = noteMapping

	return indexMapping
}

// IsNote reports whether a path looks like a note file.
func IsNote(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// IndexFile reads a note from the notes directory and indexes it.
// The relative path doubles as the document ID.
func (ix *Index) IndexFile(relPath string) error {
	content, err := os.ReadFile(filepath.Join(ix.notesDir, relPath))
	if err != nil {
		return fmt.Errorf("failed to read note %s: %w", relPath, err)
	}

	doc := map[string]interface{}{
		"path":  relPath,
		"title": noteTitle(string(content), relPath),
		"text":  string(content),
	}

	return ix.index.Index(relPath, doc)
}

// Remove deletes a note from the index.
func (ix *Index) Remove(relPath string) error {
	return ix.index.Delete(relPath)
}

// Reindex walks the notes directory and indexes every note file it finds.
// Returns the number of notes indexed.
func (ix *Index) Reindex() (int, error) {
	batch := ix.index.NewBatch()
	count := 0

	err := filepath.WalkDir(ix.notesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != ix.notesDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !IsNote(path) {
			return nil
		}

		relPath, err := filepath.Rel(ix.notesDir, path)
		if err != nil {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("⚠️  Failed to read note %s: %v", relPath, err)
			return nil
		}

		doc := map[string]interface{}{
			"path":  relPath,
			"title": noteTitle(string(content), relPath),
			"text":  string(content),
		}

		if err := batch.Index(relPath, doc); err != nil {
			return fmt.Errorf("failed to add note %s to batch: %w", relPath, err)
		}
		count++

		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := ix.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("failed to apply index batch: %w", err)
	}

	return count, nil
}

// Search performs a BM25 search and returns the top k notes.
func (ix *Index) Search(query string, k int) ([]Result, error) {
	if k <= 0 {
		k = 5
	}

	q := bleve.NewMatchQuery(query)

	searchRequest := bleve.NewSearchRequest(q)
	searchRequest.Size = k
	searchRequest.Fields = []string{"path", "title", "text"}

	searchResult, err := ix.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("notes search failed: %w", err)
	}

	results := make([]Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		result := Result{
			Path:  hit.ID,
			Score: hit.Score,
		}

		if path, ok := hit.Fields["path"].(string); ok {
			result.Path = path
		}
		if title, ok := hit.Fields["title"].(string); ok {
			result.Title = title
		}
		if text, ok := hit.Fields["text"].(string); ok {
			result.Snippet = makeSnippet(text)
		}

		results = append(results, result)
	}

	return results, nil
}

// Close closes the underlying index.
func (ix *Index) Close() error {
	return ix.index.Close()
}

// GetPath returns the filesystem path of the index.
func (ix *Index) GetPath() string {
	return ix.path
}

// NotesDir returns the directory the index is built over.
func (ix *Index) NotesDir() string {
	return ix.notesDir
}

// noteTitle extracts a title from note content: the first markdown heading,
// or the filename without extension.
func noteTitle(content, relPath string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		break
	}

	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// makeSnippet trims note text down to a short preview, breaking on a word
// boundary where possible.
func makeSnippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= snippetLength {
		return text
	}

	cut := text[:snippetLength]
	if idx := strings.LastIndex(cut, " "); idx > snippetLength/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
