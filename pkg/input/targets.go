// pkg/input/targets.go
package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/waftester/nucleibudget/pkg/jsonutil"
)

// TargetSource consolidates all target input methods
type TargetSource struct {
	URLs     []string // From -u flags (repeated or comma-separated via StringSliceFlag)
	ListFile string   // From -l flag
	Stdin    bool     // Pipe input detection

	// stdin is swapped in tests.
	stdin io.Reader
}

// Stream sends deduplicated events to out in input order and closes out when
// every source is exhausted. Lines are read lazily so a long stdin feed is
// batched as it arrives.
//
// A line starting with '{' is decoded as a JSON Event, which is how
// technology records are supplied. Blank lines and '#' comments are skipped.
func (ts *TargetSource) Stream(ctx context.Context, out chan<- Event) error {
	defer close(out)

	seen := make(map[string]bool)
	emit := func(line string) error {
		ev, ok, err := ParseLine(line)
		if err != nil || !ok {
			return err
		}
		key := string(ev.Kind) + "\x00" + ev.Data
		if seen[key] {
			return nil
		}
		seen[key] = true
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- ev:
			return nil
		}
	}

	// 1. From URLs slice
	for _, u := range ts.URLs {
		if err := emit(u); err != nil {
			return err
		}
	}

	// 2. From file
	if ts.ListFile != "" {
		f, err := os.Open(ts.ListFile)
		if err != nil {
			return fmt.Errorf("open target list: %w", err)
		}
		err = scanLines(f, emit)
		f.Close()
		if err != nil {
			return err
		}
	}

	// 3. From stdin (if enabled and stdin is a pipe)
	if ts.Stdin {
		r := ts.stdin
		if r == nil {
			if !stdinIsPipe() {
				return nil
			}
			r = os.Stdin
		}
		return scanLines(r, emit)
	}
	return nil
}

// GetTargets collects every event. Use Stream for large inputs.
func (ts *TargetSource) GetTargets(ctx context.Context) ([]Event, error) {
	ch := make(chan Event)
	errc := make(chan error, 1)
	go func() { errc <- ts.Stream(ctx, ch) }()

	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events, <-errc
}

// ParseLine turns one input line into an Event.
// ok is false for blank lines and comments.
func ParseLine(line string) (ev Event, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Event{}, false, nil
	}
	if strings.HasPrefix(line, "{") {
		if err := jsonutil.Unmarshal([]byte(line), &ev); err != nil {
			return Event{}, false, fmt.Errorf("decode event %q: %w", line, err)
		}
		if ev.Data == "" {
			ev.Data = ev.Host
		}
		if ev.Host == "" {
			ev.Host = Hostname(ev.Data)
		}
		if ev.Kind == "" {
			ev.Kind = KindURL
		}
		if ev.Data == "" {
			return Event{}, false, nil
		}
		return ev, true, nil
	}
	return NewURLEvent(line), true, nil
}

func scanLines(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
