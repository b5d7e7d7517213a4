package logging

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// LogFilePath builds a session log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// normalizeLevel lowercases and trims a configured level name.
func normalizeLevel(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}
