package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync round with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connectClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			summary, err := c.SyncOnce(cmd.Context())
			if err != nil {
				return err
			}

			printRoundSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
