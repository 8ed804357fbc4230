package app_dir

import (
	"os"
	"path/filepath"
	"runtime"
)

func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	appDir := filepath.Join(homeDir, ".modresolve")
	if runtime.GOOS == "windows" {
		appDir = filepath.Join(homeDir, "AppData\\Local\\modresolve")
	}

	return appDir, nil
}
