package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkpress/inkpress/internal/server"
	"github.com/inkpress/inkpress/internal/version"
)

const (
	defaultContentRoot = "data/content"
	defaultDBPath      = "data/inkpress.db"
)

var rootCmd = &cobra.Command{
	Use:     "inkpress-server",
	Short:   "Inkpress sync and publishing server",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		slog.Info("inkpress-server", "version", version.Version, "revision", version.Revision, "build", version.BuildDate)

		srv, err := server.New(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return srv.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("bind", "b", server.DefaultAddr, "address to bind the server")
	rootCmd.Flags().String("cert", "", "path to the TLS certificate file")
	rootCmd.Flags().String("key", "", "path to the TLS key file")
	rootCmd.Flags().StringP("root", "r", defaultContentRoot, "content root directory")
	rootCmd.Flags().String("db", defaultDBPath, "path to the state database")
	rootCmd.Flags().StringP("author", "a", defaultAuthor(), "default author for posts without one")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (yaml or json)")
}

func main() {
	// a .env beside the binary can seed INKPRESS_* variables
	_ = godotenv.Load()

	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()

	// config path
	if cmd.Flag("config").Changed {
		v.SetConfigFile(cmd.Flag("config").Value.String())
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/inkpress")
		v.SetConfigName("inkpress")
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := os.IsNotExist(err)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	// defaults establish the key set, so environment overrides are picked
	// up on unmarshal
	v.SetDefault("http.addr", server.DefaultAddr)
	v.SetDefault("http.cert_file", "")
	v.SetDefault("http.key_file", "")
	v.SetDefault("http.enable_hsts", false)
	v.SetDefault("http.auth_rate_limit", "")
	v.SetDefault("http.api_rate_limit", "")
	v.SetDefault("content.root", defaultContentRoot)
	v.SetDefault("content.db_path", defaultDBPath)
	v.SetDefault("content.default_author", defaultAuthor())
	v.SetDefault("content.post_globs", []string{})
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_issuer", "")
	v.SetDefault("auth.site_key", "")
	v.SetDefault("auth.access_token_secret", "")
	v.SetDefault("auth.access_token_expiry", time.Hour)
	v.SetDefault("auth.refresh_token_secret", "")
	v.SetDefault("auth.refresh_token_expiry", 30*24*time.Hour)

	// bind flags to viper
	v.BindPFlag("http.addr", cmd.Flags().Lookup("bind"))
	v.BindPFlag("http.cert_file", cmd.Flags().Lookup("cert"))
	v.BindPFlag("http.key_file", cmd.Flags().Lookup("key"))
	v.BindPFlag("content.root", cmd.Flags().Lookup("root"))
	v.BindPFlag("content.db_path", cmd.Flags().Lookup("db"))
	v.BindPFlag("content.default_author", cmd.Flags().Lookup("author"))

	// set up environment variables
	v.SetEnvPrefix("INKPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg server.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return &cfg, nil
}

func defaultAuthor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "author"
}
