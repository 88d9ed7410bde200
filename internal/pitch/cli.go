package pitch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"quaver/internal/services"
)

var commandContext = exec.CommandContext

// CLI runs an external pitch model. The tool receives the audio path as its
// final argument and prints one JSON event per line on stdout:
//
//	{"time": 0.0, "frequency": 440.0, "confidence": 0.93}
//
// Blank lines are skipped; anything else is a model invocation failure.
type CLI struct {
	binary    string
	extraArgs []string
}

func NewCLI(binary string, extraArgs []string) *CLI {
	return &CLI{binary: binary, extraArgs: extraArgs}
}

func (c *CLI) Track(ctx context.Context, audioPath string) ([]Event, error) {
	if c.binary == "" {
		return nil, services.Wrap(services.ErrModelInvocation, "extracting-pitch", "configure", "no pitch binary configured", nil)
	}

	args := append(append([]string{}, c.extraArgs...), audioPath)
	cmd := commandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, services.Wrap(services.ErrModelInvocation, "extracting-pitch", "run", fmt.Sprintf("%s failed: %s", filepath.Base(c.binary), detail), err)
	}

	events, err := parseEvents(&stdout)
	if err != nil {
		return nil, services.Wrap(services.ErrModelInvocation, "extracting-pitch", "parse", fmt.Sprintf("%s produced malformed output", filepath.Base(c.binary)), err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Time < events[j].Time })
	return events, nil
}

func parseEvents(r *bytes.Buffer) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
