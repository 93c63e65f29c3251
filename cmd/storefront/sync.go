package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newSyncCmd(sess *session) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push reviews saved while offline",
		Long: "Refresh the review list and push every review still pending locally. " +
			"With --watch, keep retrying every RECONCILE_INTERVAL until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := sess.adapter.LoadReviews(ctx); err != nil {
				return err
			}
			if _, err := sess.adapter.Reconcile(ctx); err != nil {
				sess.log.WarnContext(ctx, "sync incomplete", slog.String("error", err.Error()))
			}

			if watch {
				sess.log.InfoContext(ctx, "watching for pending reviews",
					slog.Duration("interval", sess.cfg.ReconcileInterval),
				)
				sess.adapter.RunReconciler(ctx, sess.cfg.ReconcileInterval)
			}

			pending := 0
			for _, m := range sess.adapter.Reviews() {
				if m.Pending() {
					pending++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d review(s) still pending.\n", pending)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep reconciling until interrupted")
	return cmd
}
