package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultScripts maps targets to script paths relative to the scripts dir.
var DefaultScripts = map[Target]string{
	TargetTrend:   "ai_trend.py",
	TargetScoring: "ai_scoring.py",
	TargetAgent:   "ai_agent.py",
	TargetSeyna:   filepath.Join("agents", "seyna.py"),
	TargetPixel:   filepath.Join("agents", "pixel.py"),
}

// ProcessTransport runs one interpreter process per call, writes the payload
// to its stdin and returns its stdout.
type ProcessTransport struct {
	Command    string
	ScriptsDir string
	Scripts    map[Target]string
}

// NewProcessTransport returns a transport using the default script layout.
func NewProcessTransport(command, scriptsDir string) *ProcessTransport {
	return &ProcessTransport{Command: command, ScriptsDir: scriptsDir, Scripts: DefaultScripts}
}

func (p *ProcessTransport) Name() string { return "process" }

func (p *ProcessTransport) Do(ctx context.Context, target Target, body []byte) ([]byte, error) {
	script, ok := p.Scripts[target]
	if !ok {
		return nil, &Error{Kind: KindLaunch, Target: target, Transport: p.Name(), Err: fmt.Errorf("no script for target %q", target)}
	}

	cmd := exec.CommandContext(ctx, p.Command, script)
	cmd.Dir = p.ScriptsDir
	cmd.Stdin = bytes.NewReader(body)
	// Orphaned grandchildren holding the pipes must not outlive the deadline.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if kind, done := contextKind(ctx); done {
		return nil, &Error{Kind: kind, Target: target, Transport: p.Name(), Diagnostic: truncate(stderr.Bytes()), Err: ctx.Err()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &Error{Kind: KindExit, Target: target, Transport: p.Name(), Diagnostic: truncate(stderr.Bytes()), Err: err}
		}
		return nil, &Error{Kind: KindLaunch, Target: target, Transport: p.Name(), Diagnostic: truncate(stderr.Bytes()), Err: err}
	}
	return stdout.Bytes(), nil
}
