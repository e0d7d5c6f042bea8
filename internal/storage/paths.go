// Package storage keeps a journal of played games and aggregate statistics
// in a BadgerDB database.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

const (
	appName    = "chessbot"
	journalDir = "journal"
)

// DefaultDir returns the journal directory inside the per-user data location,
// creating it when missing:
//
//	macOS    ~/Library/Application Support/chessbot/journal
//	Windows  %APPDATA%\chessbot\journal
//	others   $XDG_DATA_HOME/chessbot/journal (~/.local/share when unset)
func DefaultDir() (string, error) {
	base, err := userDataDir(runtime.GOOS)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, appName, journalDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	return dir, nil
}

func userDataDir(goos string) (string, error) {
	env := "XDG_DATA_HOME"
	switch goos {
	case "darwin":
		env = ""
	case "windows":
		env = "APPDATA"
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Roaming"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}
