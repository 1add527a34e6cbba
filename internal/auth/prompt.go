package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when manual input is impossible because stdin is
// not an interactive terminal.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// TerminalPrompter reads one line from an interactive terminal.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

// Prompt prints message and waits for a line or for ctx to end. On
// cancellation the pending read is abandoned.
func (p *TerminalPrompter) Prompt(ctx context.Context, message string) (string, error) {
	if !isTerminal(int(p.in.Fd())) {
		return "", ErrNoTerminal
	}
	if _, err := fmt.Fprint(p.out, message+"\n> "); err != nil {
		return "", err
	}

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(p.in).ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
