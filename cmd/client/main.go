package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkpress/inkpress/internal/client"
	"github.com/inkpress/inkpress/internal/client/config"
	"github.com/inkpress/inkpress/internal/client/workspace"
	"github.com/inkpress/inkpress/internal/utils"
	"github.com/inkpress/inkpress/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "ink",
	Short:   "Inkpress blog client",
	Long:    "Sync a local folder of markdown posts with an inkpress server.",
	Version: version.Detailed(),
}

// replaced in main with the tint handler; commands that attach file logging
// keep mirroring to it
var consoleHandler = slog.Default().Handler()

func init() {
	registerRootFlags(rootCmd)
}

func registerRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().SortFlags = false
	cmd.PersistentFlags().StringP("dir", "d", ".", "workspace directory")
	cmd.PersistentFlags().StringP("server", "s", "", "url of the inkpress server")
	cmd.PersistentFlags().StringP("email", "e", "", "author email")
	cmd.PersistentFlags().StringP("site-key", "k", "", "site key for the server")
}

func main() {
	consoleHandler = tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(consoleHandler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig assembles the effective client config for the workspace named
// by --dir, merging the stored config file, INK_* environment variables and
// explicit flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir := cmd.Flag("dir").Value.String()
	ws, err := workspace.NewWorkspace(dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(ws.ConfigPath)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config read '%s': %w", ws.ConfigPath, err)
	}

	// bind flags to viper
	v.BindPFlag("server_url", cmd.Flag("server"))
	v.BindPFlag("email", cmd.Flag("email"))
	v.BindPFlag("site_key", cmd.Flag("site-key"))

	// set up environment variables
	v.SetEnvPrefix("INK")
	v.AutomaticEnv()

	cfg := &config.Config{
		ServerURL:    v.GetString("server_url"),
		Email:        v.GetString("email"),
		SiteKey:      v.GetString("site_key"),
		RefreshToken: v.GetString("refresh_token"),
		Root:         ws.Root,
		Path:         ws.ConfigPath,
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = config.DefaultServerURL
	}
	return cfg, nil
}

// connectClient builds and connects a client for the workspace named by
// --dir. The caller owns Close.
func connectClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Email == "" {
		return nil, fmt.Errorf(`workspace not set up, run "ink setup" first`)
	}
	cmd.SilenceUsage = true

	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}

	attachFileLogging(c.Workspace())

	if err := c.Connect(cmd.Context()); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// attachFileLogging mirrors logs into the workspace so daemon runs leave a
// trail even when stderr is lost.
func attachFileLogging(ws *workspace.Workspace) {
	logPath := filepath.Join(ws.LogsDir, "ink.log")
	if err := utils.EnsureParent(logPath); err != nil {
		slog.Warn("log dir", "error", err)
		return
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Warn("log file", "error", err)
		return
	}

	fileHandler := slog.NewTextHandler(utils.NewStampedWriter(file), &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// the writer stamps its own time
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})

	slog.SetDefault(slog.New(utils.NewTeeHandler(consoleHandler, fileHandler)))
}
