package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	stateDir  = ".doctalk"
	stateFile = "current_kb"
)

// StateFilePath returns the path to ~/.doctalk/current_kb, creating the
// state directory if needed.
func StateFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, stateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state directory: %w", err)
	}
	return filepath.Join(dir, stateFile), nil
}

// LoadCurrentFolder loads the CLI's active knowledge-base folder. A missing
// state file means no folder has been selected yet and returns ("", nil).
func LoadCurrentFolder() (string, error) {
	path, err := StateFilePath()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read state file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveCurrentFolder persists the active knowledge-base folder for later CLI
// invocations. The write is atomic (temp file + rename) and serialized
// against concurrent invocations with a file lock.
func SaveCurrentFolder(folder string) error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}

	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	defer fl.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(folder+"\n"), 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// ClearCurrentFolder removes the state file. Idempotent.
func ClearCurrentFolder() error {
	path, err := StateFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
