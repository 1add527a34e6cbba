package auth

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/efactura/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test; the connector tests run the test
// binary itself as the external command.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("EFACTURA_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("EFACTURA_HELPER_MODE") {
	case "exit":
		fmt.Println("tunnel credentials rejected")
		os.Exit(3)
	default:
		time.Sleep(time.Minute)
		os.Exit(0)
	}
}

func helperCommand(t *testing.T, mode string) string {
	t.Helper()
	t.Setenv("EFACTURA_HELPER_PROCESS", "1")
	t.Setenv("EFACTURA_HELPER_MODE", mode)
	return os.Args[0] + " -test.run=^TestHelperProcess$"
}

func TestCommandConnector_SurvivesGraceThenStops(t *testing.T) {
	c := NewCommandConnector(helperCommand(t, "run"), 100*time.Millisecond, logging.NewDiscardLogger())

	require.NoError(t, c.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	select {
	case <-c.done:
	default:
		t.Fatal("process still running after Stop")
	}
	require.NoError(t, c.Stop(ctx), "stop is idempotent")
}

func TestCommandConnector_EarlyExitFails(t *testing.T) {
	c := NewCommandConnector(helperCommand(t, "exit"), 5*time.Second, logging.NewDiscardLogger())

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tunnel credentials rejected")
	require.NoError(t, c.Stop(context.Background()))
}

func TestCommandConnector_CancelDuringGrace(t *testing.T) {
	c := NewCommandConnector(helperCommand(t, "run"), time.Minute, logging.NewDiscardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.Start(ctx), context.DeadlineExceeded)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, c.Stop(stopCtx))
}

func TestCommandConnector_BadCommand(t *testing.T) {
	require.Error(t, NewCommandConnector("", 0, logging.NewDiscardLogger()).Start(context.Background()))
	require.Error(t, NewCommandConnector("/definitely/not/here", 0, logging.NewDiscardLogger()).Start(context.Background()))
}

func TestNopConnector(t *testing.T) {
	var c Connector = NopConnector{}
	assert.NoError(t, c.Start(context.Background()))
	assert.NoError(t, c.Stop(context.Background()))
}
