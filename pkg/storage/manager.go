package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager appends normalized posts to a text file, one per line
type Manager struct {
	path         string
	totalLines   int
	needsNewline bool
	mu           sync.Mutex
}

// NewManager creates a storage manager for the file at path. An existing
// file is never truncated; its line count seeds TotalLines.
func NewManager(path string) (*Manager, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	manager := &Manager{path: path}

	if err := manager.scanExistingFile(); err != nil {
		return nil, fmt.Errorf("failed to scan existing file: %w", err)
	}

	return manager, nil
}

// scanExistingFile counts the lines already on disk
func (m *Manager) scanExistingFile() error {
	f, err := os.Open(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	lines, lastByte, err := countLines(f)
	if err != nil {
		return err
	}

	m.totalLines = lines
	// A file written without a trailing newline must not have its last line
	// merged with the next append.
	m.needsNewline = lastByte != 0 && lastByte != '\n'
	return nil
}

// countLines counts lines the way a line iterator does: a final line
// without a terminating newline still counts.
func countLines(r io.Reader) (int, byte, error) {
	buf := make([]byte, 32*1024)
	var count int
	var last byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, 0, err
		}
	}

	if last != 0 && last != '\n' {
		count++
	}
	return count, last, nil
}

// AppendLines opens the file, appends each line followed by a newline and
// closes it again.
func (m *Manager) AppendLines(lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	out, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	w := bufio.NewWriter(out)
	if m.needsNewline && len(lines) > 0 {
		_ = w.WriteByte('\n')
	}
	for _, line := range lines {
		_, _ = w.WriteString(line)
		_ = w.WriteByte('\n')
	}

	err = w.Flush()
	closeErr := out.Close()

	if err != nil {
		return fmt.Errorf("failed to write lines: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if len(lines) > 0 {
		m.needsNewline = false
	}
	m.totalLines += len(lines)
	return nil
}

// GetOutputPath returns the output file path
func (m *Manager) GetOutputPath() string {
	return m.path
}

// TotalLines returns the number of lines in the file, including those that
// were there before the manager was created.
func (m *Manager) TotalLines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLines
}

// ReadLines returns every line of the file at path without line terminators
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var lines []string
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
	}

	return lines, nil
}
