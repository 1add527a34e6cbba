package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/efactura/internal/config"
	"github.com/spf13/cobra"
)

func fetchCmd(cfg *config.Config, withApp appRunner) *cobra.Command {
	var cuis []string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Authenticate, then download the messages of the last days",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Fetch(ctx, cuis)
		}),
	}

	fs := cmd.Flags()
	fs.StringSliceVar(&cuis, "cui", nil, "taxpayer CUI/CIF (repeatable)")
	fs.IntVar(&cfg.Days, "days", cfg.Days, "day window of the message list")
	fs.BoolVar(&cfg.PDF, "pdf", cfg.PDF, "also render XML invoices as PDF")
	fs.BoolVar(&cfg.ForceLogin, "force-login", cfg.ForceLogin, "ignore the stored token and log in again")
	fs.StringVar(&cfg.RedirectURI, "redirect-uri", cfg.RedirectURI, "OAuth redirect URI registered with ANAF")
	fs.IntVar(&cfg.CallbackPort, "port", cfg.CallbackPort, "local port the redirect is forwarded to")
	fs.StringVar(&cfg.ConnectorCmd, "connector", cfg.ConnectorCmd, "command exposing the local port publicly, run during login")
	_ = cmd.MarkFlagRequired("cui")

	return cmd
}

// Fetch authenticates and runs the retrieval pipeline for cuis.
func (a *App) Fetch(ctx context.Context, cuis []string) error {
	if len(cuis) == 0 {
		return errors.New("at least one --cui is required")
	}
	if err := a.config.Validate(); err != nil {
		return err
	}

	tok, err := a.newFlow().Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	svc, err := a.pipeline(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Run(ctx, cuis, tok)
	return err
}
