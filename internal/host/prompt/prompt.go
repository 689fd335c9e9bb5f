// Package prompt implements the host's confirmation dialog
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/celestiaorg/reloader/internal/logger"
)

// Mode selects how confirmations are answered
type Mode string

// Confirmation modes
const (
	// ModeAlways approves every request
	ModeAlways Mode = "always"
	// ModeNever declines every request
	ModeNever Mode = "never"
	// ModeTerminal asks the operator on a terminal
	ModeTerminal Mode = "terminal"
)

// ParseMode converts a configuration value to a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAlways, ModeNever, ModeTerminal:
		return m, nil
	default:
		return "", fmt.Errorf("unknown confirm mode %q", s)
	}
}

// Prompt answers confirmation requests
type Prompt struct {
	mode Mode
	mu   sync.Mutex
	in   *bufio.Reader
	out  io.Writer
}

// New creates a prompt. in and out are only used in ModeTerminal.
func New(mode Mode, in io.Reader, out io.Writer) *Prompt {
	p := &Prompt{mode: mode, out: out}
	if in != nil {
		p.in = bufio.NewReader(in)
	}
	return p
}

// Confirm asks for approval. In ModeTerminal only an answer starting with
// "y" approves; anything else, including end of input, declines.
func (p *Prompt) Confirm(ctx context.Context, title, message string) (bool, error) {
	switch p.mode {
	case ModeAlways:
		logger.Debugf("prompt: auto-approved %q", title)
		return true, nil
	case ModeNever:
		logger.Debugf("prompt: auto-declined %q", title)
		return false, nil
	case ModeTerminal:
		return p.ask(ctx, title, message)
	default:
		return false, fmt.Errorf("unknown confirm mode %q", p.mode)
	}
}

type answer struct {
	line string
	err  error
}

func (p *Prompt) ask(ctx context.Context, title, message string) (bool, error) {
	if p.in == nil || p.out == nil {
		return false, fmt.Errorf("terminal prompt has no input or output")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "%s\n%s\nProceed? [y/N]: ", title, message); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, fmt.Errorf("failed to read answer: %w", a.err)
		}
		reply := strings.ToLower(strings.TrimSpace(a.line))
		return strings.HasPrefix(reply, "y"), nil
	}
}
