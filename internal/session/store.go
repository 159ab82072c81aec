package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

// Record is the persisted form of a session: the full message log in
// arrival order plus accumulated usage.
type Record struct {
	ID        string               `json:"id"`
	Label     Label                `json:"label"`
	Target    string               `json:"target,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Messages  []engine.ChatMessage `json:"messages"`
	Usage     engine.Usage         `json:"usage"`
}

// RecordMeta is the listing view of a record, cheap enough to build for
// every file in a run directory.
type RecordMeta struct {
	ID        string    `json:"id"`
	Label     Label     `json:"label"`
	Target    string    `json:"target,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     int       `json:"turns"`
}

// Store persists session records as JSON documents under
// basePath/runs/<target-hash>/<id>.json, one file per session.
type Store struct {
	basePath string
}

// NewStore creates a store rooted at basePath (typically ~/.aida).
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

// TargetHash derives the directory key for a target. Different spellings
// of the same host hash identically after trimming and lowering.
func TargetHash(target string) string {
	normalized := strings.ToLower(strings.TrimSpace(target))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:12]
}

func (s *Store) runDir(target string) string {
	return filepath.Join(s.basePath, "runs", TargetHash(target))
}

// Save writes the record for target, stamping UpdatedAt and setting
// CreatedAt on first save.
func (s *Store) Save(target string, rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("cannot save record without id")
	}
	dir := s.runDir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Target = target

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	path := filepath.Join(dir, rec.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	return nil
}

// Load reads one record back by id.
func (s *Store) Load(target, id string) (*Record, error) {
	path := filepath.Join(s.runDir(target), id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session record: %w", err)
	}
	return &rec, nil
}

// List returns metadata for every record of a target, most recent first.
// A missing run directory is an empty listing, not an error.
func (s *Store) List(target string) ([]RecordMeta, error) {
	dir := s.runDir(target)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run directory: %w", err)
	}

	var metas []RecordMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		metas = append(metas, RecordMeta{
			ID:        rec.ID,
			Label:     rec.Label,
			Target:    rec.Target,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
			Turns:     len(rec.Messages),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}
