package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := sess.adapter.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", resp.Status, resp.Message, resp.Timestamp.Format(time.RFC3339))
			return nil
		},
	}
}
