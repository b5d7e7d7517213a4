package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/motoyard/yardmap/internal/config"
	"github.com/motoyard/yardmap/internal/surface"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) (configDir, dataDir string) {
	t.Helper()
	configDir = t.TempDir()
	dataDir = t.TempDir()
	cfg := map[string]any{
		"logsDir": filepath.Join(configDir, "logs"),
		"storage": map[string]any{
			"type": "file",
			"file": map[string]any{"dir": dataDir},
		},
		"zones": map[string]any{"idScheme": "sequence"},
	}
	body, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, config.FileName), body, 0644))
	return configDir, dataDir
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

func TestRun_ReplaysAndPersists(t *testing.T) {
	t.Cleanup(viper.Reset)
	configDir, dataDir := writeTestConfig(t)

	script := strings.Join([]string{
		`[":ZONE:CREATE:", "Bay 1", "#00FF00", "10", "10", "20", "20"]`,
		`[":MARKERS:SET:", "[{\"id\":\"m1\",\"type\":\"motorcycle\",\"position\":{\"x\":15,\"y\":15}}]"]`,
		`[":ZONE:SELECT:", "zone-1"]`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, run([]string{"--config-dir", configDir}, strings.NewReader(script), &out))

	var frame surface.Frame
	require.NoError(t, json.Unmarshal([]byte(lastLine(out.String())), &frame))
	require.Len(t, frame.Zones, 1)
	assert.Equal(t, "Bay 1", frame.Zones[0].Name)
	assert.True(t, frame.Zones[0].Selected)
	assert.Equal(t, 1, frame.Occupancy["zone-1"])

	saved, err := os.ReadFile(filepath.Join(dataDir, "yard_zones.json"))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "Bay 1")

	logs, err := filepath.Glob(filepath.Join(configDir, "logs", "yardmap.*.log"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRun_ScriptFlagAndBadLine(t *testing.T) {
	t.Cleanup(viper.Reset)
	configDir, _ := writeTestConfig(t)
	script := filepath.Join(t.TempDir(), "cmds.jsonl")
	require.NoError(t, os.WriteFile(script, []byte("[\":ZONE:CREATE:\"]\n{oops\n"), 0644))

	var out bytes.Buffer
	err := run([]string{"--config-dir", configDir, "-s", script, "--storage", "memory"}, strings.NewReader(""), &out)
	assert.ErrorContains(t, err, "line 2")

	// the frame is still printed
	var frame surface.Frame
	require.NoError(t, json.Unmarshal([]byte(lastLine(out.String())), &frame))
	assert.Len(t, frame.Zones, 1)
}

func TestRun_UnknownStorage(t *testing.T) {
	t.Cleanup(viper.Reset)
	configDir, _ := writeTestConfig(t)
	var out bytes.Buffer
	err := run([]string{"--config-dir", configDir, "--storage", "carrier-pigeon"}, strings.NewReader(""), &out)
	assert.ErrorContains(t, err, "carrier-pigeon")
}
