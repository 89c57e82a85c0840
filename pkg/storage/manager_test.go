package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tweet_data.txt")

	manager, err := NewManager(path)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.TotalLines() != 0 {
		t.Errorf("Expected initial line count 0, got %d", manager.TotalLines())
	}
	if manager.GetOutputPath() != path {
		t.Errorf("Expected output path %s, got %s", path, manager.GetOutputPath())
	}

	if err := manager.AppendLines([]string{"一行目", "二行目"}); err != nil {
		t.Fatalf("Failed to append lines: %v", err)
	}
	if err := manager.AppendLines([]string{"三行目"}); err != nil {
		t.Fatalf("Failed to append lines: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(content) != "一行目\n二行目\n三行目\n" {
		t.Errorf("Unexpected file content %q", content)
	}
	if manager.TotalLines() != 3 {
		t.Errorf("Expected 3 lines, got %d", manager.TotalLines())
	}
}

func TestManagerEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweet_data.txt")

	manager, err := NewManager(path)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if err := manager.AppendLines(nil); err != nil {
		t.Fatalf("Failed to append empty batch: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected file to be created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty file, got %d bytes", info.Size())
	}
}

func TestManagerSeedsFromExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweet_data.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(path)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if manager.TotalLines() != 3 {
		t.Errorf("Expected 3 existing lines, got %d", manager.TotalLines())
	}

	if err := manager.AppendLines([]string{"d"}); err != nil {
		t.Fatal(err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "a\nb\nc\nd\n" {
		t.Errorf("Existing content must be preserved, got %q", content)
	}
}

func TestManagerMissingTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweet_data.txt")
	if err := os.WriteFile(path, []byte("a\nb"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(path)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if manager.TotalLines() != 2 {
		t.Errorf("Expected 2 existing lines, got %d", manager.TotalLines())
	}

	if err := manager.AppendLines([]string{"c"}); err != nil {
		t.Fatal(err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "a\nb\nc\n" {
		t.Errorf("Expected last line kept separate, got %q", content)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"\n", 1},
		{"a", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{strings.Repeat("x\n", 50000), 50000},
	}

	for _, tt := range tests {
		got, _, err := countLines(strings.NewReader(tt.input))
		if err != nil {
			t.Fatalf("countLines error: %v", err)
		}
		if got != tt.want {
			t.Errorf("countLines(%d bytes) = %d, want %d", len(tt.input), got, tt.want)
		}
	}
}

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("今日は\r\n晴れ\n\n最後"), 0644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines error: %v", err)
	}

	want := []string{"今日は", "晴れ", "", "最後"}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	if _, err := ReadLines(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}
