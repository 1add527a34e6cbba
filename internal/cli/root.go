package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/efactura/internal/buildinfo"
	"github.com/dmitrijs2005/efactura/internal/common"
	"github.com/dmitrijs2005/efactura/internal/config"
	"github.com/spf13/cobra"
)

// Exit statuses.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitAuth     = 3
	ExitCanceled = 130
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCanceled
	case errors.Is(err, common.ErrMissingCredentials):
		return ExitConfig
	case errors.Is(err, common.ErrAuthExhausted),
		errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrAuth):
		return ExitAuth
	default:
		return ExitFailure
	}
}

// Execute loads the configuration, runs the command line in args and
// returns the exit status.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		fmt.Fprintf(stderr, "efactura: %v\n", err)
		return ExitConfig
	}

	root := NewRootCommand(cfg, stdout, stderr)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "efactura: %v\n", err)
	}
	return ExitCode(err)
}

// NewRootCommand builds the command tree over cfg. Flags write into cfg.
func NewRootCommand(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "efactura",
		Short:         "Download ANAF e-Factura messages for registered taxpayers",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	config.BindFlags(root.PersistentFlags(), cfg)

	// The App is built after flag parsing so it sees the final config.
	withApp := func(run appFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			app := NewApp(cfg, stdout, stderr)
			defer app.Close()
			return run(cmd.Context(), app, args)
		}
	}

	root.AddCommand(
		fetchCmd(cfg, withApp),
		tokenCmd(withApp),
		historyCmd(withApp),
	)
	return root
}

type (
	appFunc   func(ctx context.Context, a *App, args []string) error
	appRunner func(run appFunc) func(*cobra.Command, []string) error
)
