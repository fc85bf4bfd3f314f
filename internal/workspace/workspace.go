package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/doccbuild/internal/logfields"
)

// Manager handles workspace operations (both temporary and persistent).
type Manager struct {
	baseDir    string
	stagingDir string
	persistent bool
}

// NewManager creates a workspace manager with ephemeral timestamped directories.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// NewPersistentManager creates a workspace manager that uses a persistent
// directory. The workspace (baseDir/subdirName) is fixed and never removed
// by Cleanup, so staged snippet pages survive across daemon rebuilds.
func NewPersistentManager(baseDir, subdirName string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdirName == "" {
		subdirName = "staging"
	}
	return &Manager{
		baseDir:    baseDir,
		stagingDir: filepath.Join(baseDir, subdirName),
		persistent: true,
	}
}

// Create ensures the workspace directory exists. In ephemeral mode a new
// timestamped directory is created under the base directory.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.stagingDir, 0o750); err != nil {
			return fmt.Errorf("create persistent workspace directory: %w", err)
		}
		slog.Info("Using persistent workspace", logfields.Path(m.stagingDir))
		return nil
	}

	timestamp := time.Now().Format("20060102-150405")
	stagingDir := filepath.Join(m.baseDir, fmt.Sprintf("doccbuild-%s", timestamp))

	if err := os.MkdirAll(stagingDir, 0o750); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}

	m.stagingDir = stagingDir
	slog.Info("Created workspace", logfields.Path(stagingDir))
	return nil
}

// GetPath returns the path to the workspace directory.
func (m *Manager) GetPath() string {
	return m.stagingDir
}

// Cleanup removes the workspace directory in ephemeral mode. Persistent
// workspaces are kept for incremental builds.
func (m *Manager) Cleanup() error {
	if m.stagingDir == "" {
		return nil
	}

	if m.persistent {
		slog.Debug("Skipping cleanup for persistent workspace", logfields.Path(m.stagingDir))
		return nil
	}

	if err := os.RemoveAll(m.stagingDir); err != nil {
		return fmt.Errorf("cleanup workspace: %w", err)
	}

	slog.Info("Cleaned up workspace", logfields.Path(m.stagingDir))
	m.stagingDir = ""
	return nil
}

// CreateSubdir creates a subdirectory within the workspace.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if m.stagingDir == "" {
		return "", fmt.Errorf("workspace not created")
	}

	subdir := filepath.Join(m.stagingDir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("create subdirectory: %w", err)
	}

	return subdir, nil
}
