package checkpoint

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"tweetcloud/pkg/logger"
)

const formatVersion = 1

// Checkpoint is the persisted search cursor of one query
type Checkpoint struct {
	Query          string    `json:"query"`
	OutputPath     string    `json:"output_path"`
	Cursor         int64     `json:"cursor"`
	Iterations     int       `json:"iterations"`
	TotalCollected int       `json:"total_collected"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// Manager reads and writes the checkpoint file of one query
type Manager struct {
	path string
	log  logger.Logger
}

// NewManager creates a checkpoint manager for query. An empty dir selects
// the platform data directory.
func NewManager(dir, query string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if dir == "" {
		base, err := getDataDirectory()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		dir = filepath.Join(base, "checkpoints")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{path: filepath.Join(dir, fileName(query)), log: log}, nil
}

// fileName hashes the query so any keyword maps to a safe, stable name
func fileName(query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%x.checkpoint.json", sum[:8])
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.path
}

// Create writes a fresh checkpoint starting at cursor
func (m *Manager) Create(query, outputPath string, cursor int64) (*Checkpoint, error) {
	now := time.Now()
	cp := &Checkpoint{
		Query:      query,
		OutputPath: outputPath,
		Cursor:     cursor,
		CreatedAt:  now,
		Version:    formatVersion,
	}
	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.log.InfoWithFields("checkpoint created", map[string]interface{}{
		"query": query,
		"path":  m.path,
	})
	return cp, nil
}

// Load reads the checkpoint. A missing file yields nil, nil.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	cp := new(Checkpoint)
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", m.path, err)
	}

	m.log.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"query":      cp.Query,
		"cursor":     cp.Cursor,
		"iterations": cp.Iterations,
		"updated_at": cp.UpdatedAt,
	})
	return cp, nil
}

// Save stamps UpdatedAt and replaces the file through a synced temp file
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}
	committed = true

	m.log.DebugWithFields("checkpoint saved", map[string]interface{}{
		"query":  cp.Query,
		"cursor": cp.Cursor,
	})
	return nil
}

// UpdateProgress records a finished iteration. The cursor never moves back.
func (m *Manager) UpdateProgress(cp *Checkpoint, cursor int64, collected int) error {
	cp.Cursor = max(cp.Cursor, cursor)
	cp.Iterations++
	cp.TotalCollected += collected
	return m.Save(cp)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.log.Info("checkpoint deleted")
	return nil
}

// Exists reports whether the checkpoint file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// getDataDirectory returns (and creates) the per-user tweetcloud data dir
func getDataDirectory() (string, error) {
	base, err := dataHome()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, "tweetcloud")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

func dataHome() (string, error) {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
		return "", errors.New("APPDATA environment variable not set")
	}

	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return xdg, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}
