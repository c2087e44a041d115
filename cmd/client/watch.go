package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the workspace and sync continuously",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connectClient(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			defer slog.Info("Bye!")
			if err := c.Watch(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
