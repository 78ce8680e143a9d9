// Package storage keeps the evaluation cache and audit statistics in BadgerDB
// and knows where the application's data lives on disk.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "shallownnue"

// DataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/shallownnue/
// - Linux: ~/.local/share/shallownnue/
// - Windows: %APPDATA%/shallownnue/
func DataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// XDG_DATA_HOME wins over ~/.local/share
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	return ensureDir(filepath.Join(baseDir, appName))
}

// NNUEDir returns the directory holding network weight files.
func NNUEDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(dataDir, "nnue"))
}

// DatabaseDir returns the directory for the BadgerDB database.
func DatabaseDir() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(dataDir, "db"))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
