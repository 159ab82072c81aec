package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MockFileSystem is a mock implementation of the FileSystem interface.
type MockFileSystem struct {
	StatFunc      func(name string) (os.FileInfo, error)
	ReadFileFunc  func(name string) ([]byte, error)
	WriteFileFunc func(name string, data []byte, perm os.FileMode) error
	MkdirAllFunc  func(path string, perm os.FileMode) error
}

func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.StatFunc != nil {
		return m.StatFunc(name)
	}
	return nil, os.ErrNotExist
}

func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(name)
	}
	return nil, os.ErrNotExist
}

func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(name, data, perm)
	}
	return nil
}

func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path, perm)
	}
	return nil
}

func TestReadFileImpl(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		mockContent string
		mockErr     error
		wantErr     bool
	}{
		{
			name:        "Read existing file",
			path:        "scan.txt",
			mockContent: "22/tcp open ssh\n80/tcp open http\n",
			wantErr:     false,
		},
		{
			name:    "Read non-existent file",
			path:    "missing.txt",
			mockErr: os.ErrNotExist,
			wantErr: true,
		},
		{
			name:    "Path traversal attempt",
			path:    "../secret.txt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &MockFileSystem{
				ReadFileFunc: func(name string) ([]byte, error) {
					return []byte(tt.mockContent), tt.mockErr
				},
			}

			_, err := readFileImpl(fs, "/work", tt.path, 1, 200)
			if (err != nil) != tt.wantErr {
				t.Errorf("readFileImpl() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadFileWindowing(t *testing.T) {
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	content := strings.Join(lines, "\n") + "\n"

	fs := &MockFileSystem{
		ReadFileFunc: func(name string) ([]byte, error) {
			return []byte(content), nil
		},
	}

	tests := []struct {
		name          string
		startLine     int
		maxLines      int
		wantStart     int
		wantEnd       int
		wantTruncated bool
		wantContent   string
	}{
		{
			name:          "middle window",
			startLine:     3,
			maxLines:      4,
			wantStart:     3,
			wantEnd:       6,
			wantTruncated: true,
			wantContent:   strings.Join(lines[2:6], "\n"),
		},
		{
			name:          "window past end clamps",
			startLine:     8,
			maxLines:      200,
			wantStart:     8,
			wantEnd:       10,
			wantTruncated: false,
			wantContent:   strings.Join(lines[7:], "\n"),
		},
		{
			name:          "start beyond file",
			startLine:     50,
			maxLines:      10,
			wantStart:     50,
			wantEnd:       10,
			wantTruncated: false,
			wantContent:   "",
		},
		{
			name:          "zero start normalized",
			startLine:     0,
			maxLines:      2,
			wantStart:     1,
			wantEnd:       2,
			wantTruncated: true,
			wantContent:   strings.Join(lines[:2], "\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resultJSON, err := readFileImpl(fs, "/work", "scan.txt", tt.startLine, tt.maxLines)
			if err != nil {
				t.Fatalf("readFileImpl() error = %v", err)
			}

			var result struct {
				Content    string `json:"content"`
				StartLine  int    `json:"start_line"`
				EndLine    int    `json:"end_line"`
				TotalLines int    `json:"total_lines"`
				Truncated  bool   `json:"truncated"`
			}
			if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			if result.StartLine != tt.wantStart || result.EndLine != tt.wantEnd {
				t.Errorf("window = %d-%d, want %d-%d", result.StartLine, result.EndLine, tt.wantStart, tt.wantEnd)
			}
			if result.TotalLines != 10 {
				t.Errorf("total_lines = %d, want 10", result.TotalLines)
			}
			if result.Truncated != tt.wantTruncated {
				t.Errorf("truncated = %v, want %v", result.Truncated, tt.wantTruncated)
			}
			if result.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", result.Content, tt.wantContent)
			}
		})
	}
}

func TestWriteFileImpl(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		wantErr bool
	}{
		{
			name:    "Write file",
			path:    "notes/creds.md",
			content: "admin:admin",
			wantErr: false,
		},
		{
			name:    "Path traversal attempt",
			path:    "../loot.txt",
			content: "x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mkdirPath string
			fs := &MockFileSystem{
				MkdirAllFunc: func(path string, perm os.FileMode) error {
					mkdirPath = path
					return nil
				},
				WriteFileFunc: func(name string, data []byte, perm os.FileMode) error {
					return nil
				},
			}

			resultJSON, err := writeFileImpl(fs, "/work", tt.path, tt.content)
			if (err != nil) != tt.wantErr {
				t.Errorf("writeFileImpl() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if mkdirPath != filepath.Join("/work", "notes") {
				t.Errorf("MkdirAll path = %q, want %q", mkdirPath, filepath.Join("/work", "notes"))
			}

			var result struct {
				BytesWritten int  `json:"bytes_written"`
				Success      bool `json:"success"`
			}
			if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if result.BytesWritten != len(tt.content) {
				t.Errorf("bytes_written = %d, want %d", result.BytesWritten, len(tt.content))
			}
			if !result.Success {
				t.Error("success = false, want true")
			}
		})
	}
}

func TestListFilesImpl(t *testing.T) {
	workDir := t.TempDir()

	writeFixture := func(relPath, content string) {
		full := filepath.Join(workDir, relPath)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	writeFixture(".gitignore", "*.pcap\n")
	writeFixture("scan.txt", "nmap output")
	writeFixture("capture.pcap", "binary")
	writeFixture("loot/hashes.txt", "hash")

	resultJSON, err := listFilesImpl(workDir, "", true, -1, 1000, nil)
	if err != nil {
		t.Fatalf("listFilesImpl() error = %v", err)
	}

	var result struct {
		Files     []string `json:"files"`
		Truncated bool     `json:"truncated"`
	}
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	got := strings.Join(result.Files, ",")
	if !strings.Contains(got, "scan.txt") {
		t.Errorf("files = %v, want scan.txt present", result.Files)
	}
	if !strings.Contains(got, filepath.Join("loot", "hashes.txt")) {
		t.Errorf("files = %v, want loot/hashes.txt present", result.Files)
	}
	if strings.Contains(got, "capture.pcap") {
		t.Errorf("files = %v, want capture.pcap ignored", result.Files)
	}
	if result.Truncated {
		t.Error("truncated = true, want false")
	}

	if _, err := listFilesImpl(workDir, "../outside", false, -1, 1000, nil); err == nil {
		t.Error("listFilesImpl() with traversal path, want error")
	}
}
