package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Config holds the summarizer subprocess settings.
type Config struct {
	// Interpreter to spawn, e.g. "python3"
	Command string

	// Script passed as the single argument, e.g. "summarize.py"
	Script string

	// Hard deadline after which the subprocess is killed
	Timeout time.Duration
}

// LoadFromEnv loads summarizer configuration from environment variables.
//
// Environment variables:
//   - SUMMARIZER_CMD: interpreter to spawn (default: "python3")
//   - SUMMARIZER_SCRIPT: script path (default: "summarize.py")
//   - SUMMARIZER_TIMEOUT: Go duration string, e.g. "90s" (default: 60s)
func LoadFromEnv() Config {
	cmd := strings.TrimSpace(os.Getenv("SUMMARIZER_CMD"))
	if cmd == "" {
		cmd = "python3"
	}

	script := strings.TrimSpace(os.Getenv("SUMMARIZER_SCRIPT"))
	if script == "" {
		script = "summarize.py"
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("SUMMARIZER_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		}
	}

	return Config{Command: cmd, Script: script, Timeout: timeout}
}

// Validate checks that the configuration can spawn anything at all.
func (c Config) Validate() error {
	if c.Command == "" {
		return errors.New("summarizer command is empty")
	}
	if c.Script == "" {
		return errors.New("summarizer script is empty")
	}
	if c.Timeout <= 0 {
		return errors.New("summarizer timeout must be positive")
	}
	return nil
}

// Engine is the handler-facing summarization interface.
type Engine interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Summarizer runs the external summarizer process. Protocol: write
// {"text": ...} to stdin, close stdin, read stdout to EOF, parse as
// JSON. Any stderr output is a failure even if stdout parsed.
type Summarizer struct {
	cfg Config
}

func NewSummarizer(cfg Config) *Summarizer {
	return &Summarizer{cfg: cfg}
}

type summarizeInput struct {
	Text string `json:"text"`
}

type summarizeOutput struct {
	Summary string `json:"summary"`
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(summarizeInput{Text: norm.NFC.String(text)})
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, s.cfg.Command, s.cfg.Script)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return "", ErrProcessingTimeout
	}
	if stderr.Len() > 0 {
		return "", fmt.Errorf("%w: %s", ErrSubprocess, strings.TrimSpace(stderr.String()))
	}
	if runErr != nil {
		return "", fmt.Errorf("%w: %v", ErrSubprocess, runErr)
	}

	var out summarizeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProcessing, err)
	}
	return out.Summary, nil
}
