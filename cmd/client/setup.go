package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkpress/inkpress/internal/client"
)

func init() {
	rootCmd.AddCommand(newSetupCmd())
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Connect a directory to an inkpress server",
		Long: "Turns the directory into a synced workspace: stores the server\n" +
			"URL and credentials under .ink/, logs in, and pulls the current\n" +
			"content.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			c, err := client.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Connect(cmd.Context()); err != nil {
				return err
			}

			// Connect persists rotated tokens on its own; this save also
			// covers servers that run without auth
			if err := cfg.Save(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "workspace ready at %s\n", cfg.Root)
			fmt.Fprintf(out, "server %s as %s\n", cfg.ServerURL, cfg.Email)

			summary, err := c.SyncOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("initial sync: %w", err)
			}
			printRoundSummary(out, summary)

			fmt.Fprintln(out, `write markdown under posts/ and run "ink sync"`)
			return nil
		},
	}
}
