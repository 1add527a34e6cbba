package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func historyCmd(withApp appRunner) *cobra.Command {
	var (
		cui   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent fetch runs of a taxpayer",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.History(ctx, cui, limit)
		}),
	}
	cmd.Flags().StringVar(&cui, "cui", "", "taxpayer CUI/CIF")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	_ = cmd.MarkFlagRequired("cui")

	return cmd
}

func (a *App) History(ctx context.Context, cui string, limit int) error {
	l, err := a.openLedger(ctx)
	if err != nil {
		return err
	}
	runs, err := l.History(ctx, cui, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		a.console.Infof("no runs recorded for %s", cui)
		return nil
	}

	for _, r := range runs {
		line := fmt.Sprintf("%s  %3dd  listed %d, saved %d, skipped %d, failed %d",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Days, r.Listed, r.Saved, r.Skipped, r.Failed)
		if r.Error != "" {
			a.console.Errorf("%s  error: %s", line, r.Error)
			continue
		}
		a.console.Infof("%s", line)
	}
	return nil
}
