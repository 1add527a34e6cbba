package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/efactura/internal/tokens"
	"github.com/spf13/cobra"
)

func tokenCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Show whether a token is stored and when it expires",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.TokenStatus(ctx)
		}),
	}
}

// TokenStatus reports the stored token without contacting ANAF.
func (a *App) TokenStatus(ctx context.Context) error {
	tok, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	if tok == nil {
		a.console.Warnf("no token stored in %s", a.config.TokenFile)
		return nil
	}

	expires := tok.ExpiresAt.Local().Format(time.RFC3339)
	if a.store.IsValid(tok) {
		a.console.Okf("access token valid until %s", expires)
	} else {
		a.console.Warnf("access token expired at %s", expires)
	}
	if exp, ok := tokens.ServerExpiry(tok.AccessToken); ok {
		a.console.Infof("server-side expiry %s", exp.Local().Format(time.RFC3339))
	}
	if tok.RefreshToken == "" {
		a.console.Warnf("no refresh token, the next fetch needs an interactive login")
	} else {
		a.console.Infof("refresh token present")
	}
	return nil
}
