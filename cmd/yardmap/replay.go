package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/motoyard/yardmap/internal/dispatcher"
)

// replayResult is written to the output for every command line.
type replayResult struct {
	Line    int    `json:"line"`
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// replay reads one command per line from r and dispatches it. A command line
// is a JSON array of strings whose first element is the command name. Blank
// lines and lines starting with # are skipped. Command errors are reported
// in the output and do not stop the replay; malformed lines do.
func replay(ctx context.Context, r io.Reader, w io.Writer, d *dispatcher.Dispatcher) (int, error) {
	enc := json.NewEncoder(w)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	n := 0
	for lineNo := 1; sc.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var fields []string
		if err := json.Unmarshal([]byte(line), &fields); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(fields) == 0 {
			return n, fmt.Errorf("line %d: empty command", lineNo)
		}

		out := replayResult{Line: lineNo, Command: fields[0]}
		res, err := d.Dispatch(dispatcher.Event{Command: fields[0], Args: fields[1:]})
		if err != nil {
			out.Error = err.Error()
		} else {
			out.Result = res
		}
		if err := enc.Encode(out); err != nil {
			return n, err
		}
		n++
	}
	return n, sc.Err()
}
