package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/efactura/internal/logging"
)

// DefaultConnectorGrace is how long a connector must stay up after start.
const DefaultConnectorGrace = 10 * time.Second

// NopConnector is used when the redirect host is provisioned externally.
type NopConnector struct{}

func (NopConnector) Start(context.Context) error { return nil }
func (NopConnector) Stop(context.Context) error  { return nil }

// CommandConnector runs an external process (a tunnel client, typically)
// for the duration of the interactive flow.
type CommandConnector struct {
	argv  []string
	grace time.Duration
	log   logging.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	err  error
	out  syncBuffer
}

// NewCommandConnector splits command on whitespace; quoting is not supported.
func NewCommandConnector(command string, grace time.Duration, log logging.Logger) *CommandConnector {
	if grace <= 0 {
		grace = DefaultConnectorGrace
	}
	return &CommandConnector{argv: strings.Fields(command), grace: grace, log: log}
}

// Start launches the process and fails if it exits within the grace period.
func (c *CommandConnector) Start(ctx context.Context) error {
	if len(c.argv) == 0 {
		return errors.New("empty connector command")
	}

	c.mu.Lock()
	cmd := exec.Command(c.argv[0], c.argv[1:]...)
	cmd.Stdout = &c.out
	cmd.Stderr = &c.out
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start %s: %w", c.argv[0], err)
	}
	c.cmd = cmd
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(done)
	}()

	c.log.Info(ctx, "connector started", "command", strings.Join(c.argv, " "), "pid", cmd.Process.Pid)

	timer := time.NewTimer(c.grace)
	defer timer.Stop()

	select {
	case <-done:
		c.mu.Lock()
		err := c.err
		c.mu.Unlock()
		return fmt.Errorf("connector exited during startup (%v): %s", err, c.output())
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stop interrupts the process, then kills it if it does not exit in time.
func (c *CommandConnector) Stop(ctx context.Context) error {
	c.mu.Lock()
	cmd, done := c.cmd, c.done
	c.cmd = nil
	c.mu.Unlock()

	if cmd == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
	}

	select {
	case <-done:
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
	}
	c.log.Info(ctx, "connector stopped")
	return nil
}

func (c *CommandConnector) output() string {
	out := strings.TrimSpace(c.out.String())
	if out == "" {
		return "(no output)"
	}
	return out
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
