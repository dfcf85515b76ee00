package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PrepareWorkDir creates a unique work directory for one transform run
func PrepareWorkDir(baseDir, runName string) (string, error) {
	// Sanitize the run name to avoid issues with special characters and spaces
	sanitized := sanitizeName(runName)
	timestamp := time.Now().Format("20060102-150405")
	workDir := filepath.Join(baseDir, fmt.Sprintf("%s-%s", sanitized, timestamp))

	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}

	return workDir, nil
}

// sanitizeName removes or replaces characters that might cause issues in file paths
func sanitizeName(name string) string {
	result := ""
	for _, ch := range name {
		if ch == ' ' || ch == '/' || ch == '\\' {
			result += "-"
		} else if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			result += string(ch)
		}
	}
	if result == "" {
		result = "run"
	}
	return result
}
