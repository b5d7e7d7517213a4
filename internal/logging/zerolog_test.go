package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "warn", "database")

	logger.Info().Msg("hidden")
	logger.Warn().Str("path", "x.db").Msg("dump slow")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "database", rec["component"])
	assert.Equal(t, "x.db", rec["path"])
	assert.Equal(t, "dump slow", rec["message"])
}
