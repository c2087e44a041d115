package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkpress/inkpress/internal/client"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending changes on both sides",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Email == "" {
				return fmt.Errorf(`workspace not set up, run "ink setup" first`)
			}
			cmd.SilenceUsage = true

			// no Connect: status must not steal the lock from a running
			// watch daemon
			c, err := client.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "workspace  %s\n", cfg.Root)
			fmt.Fprintf(out, "server     %s (%s)\n", cfg.ServerURL, cfg.Email)

			local, err := c.LocalChanges()
			if err != nil {
				return err
			}
			printLocalChanges(out, local)

			if err := c.Login(cmd.Context()); err != nil {
				fmt.Fprintf(out, "next sync:\n  unavailable (%v)\n", err)
				return nil
			}

			plan, err := c.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("server status: %w", err)
			}
			printPlan(out, plan)
			return nil
		},
	}
}
