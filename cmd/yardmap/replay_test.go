package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/motoyard/yardmap/internal/dispatcher"
	"github.com/motoyard/yardmap/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(logging.NewDispatcherLogger(slog.Default()))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	d.Register(":ECHO:", func(e dispatcher.Event) (any, error) {
		return strings.Join(e.Args, ","), nil
	})
	d.Register(":FAIL:", func(dispatcher.Event) (any, error) {
		return nil, errors.New("boom")
	})
	return d
}

func decodeResults(t *testing.T, out string) []replayResult {
	t.Helper()
	var results []replayResult
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var r replayResult
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	return results
}

func TestReplay(t *testing.T) {
	d := newEchoDispatcher(t)
	script := `
# comment
[":ECHO:", "a", "b"]

[":FAIL:"]
[":NOPE:"]
`
	var out bytes.Buffer
	n, err := replay(context.Background(), strings.NewReader(script), &out, d)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results := decodeResults(t, out.String())
	require.Len(t, results, 3)
	assert.Equal(t, replayResult{Line: 3, Command: ":ECHO:", Result: "a,b"}, results[0])
	assert.Equal(t, "boom", results[1].Error)
	assert.Contains(t, results[2].Error, "unknown command")
}

func TestReplay_MalformedLineStops(t *testing.T) {
	d := newEchoDispatcher(t)
	var out bytes.Buffer
	n, err := replay(context.Background(), strings.NewReader("[\":ECHO:\"]\nnot json\n[\":ECHO:\"]\n"), &out, d)
	assert.ErrorContains(t, err, "line 2")
	assert.Equal(t, 1, n)

	_, err = replay(context.Background(), strings.NewReader("[]\n"), &out, d)
	assert.ErrorContains(t, err, "empty command")
}

func TestReplay_Cancelled(t *testing.T) {
	d := newEchoDispatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	_, err := replay(ctx, strings.NewReader("[\":ECHO:\"]\n"), &out, d)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
