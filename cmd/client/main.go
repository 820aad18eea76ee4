package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/rest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		serverURL  string
		logLevel   string
		cachePath  string
		email      string
		password   string
	)

	cmd := &cobra.Command{
		Use:           "wirechat-client",
		Short:         "Terminal client for wirechat servers",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := log.New(logLevel)
			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(config.Config{
				ServerURL: serverURL,
				LogLevel:  logLevel,
				CachePath: cachePath,
			})

			logger := log.New(cfg.LogLevel)
			logger.Debug().Str("config", path).Str("server", cfg.ServerURL).Msg("starting client")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Run(ctx, email, password); err != nil {
				if errors.Is(err, rest.ErrUnauthorized) {
					fmt.Fprintln(os.Stderr, "session expired, sign in again")
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&serverURL, "server", "", "server base URL (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&cachePath, "cache", "", "sqlite cache path (overrides config)")
	cmd.Flags().StringVar(&email, "email", os.Getenv("WIRECHAT_EMAIL"), "sign-in email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("WIRECHAT_PASSWORD"), "sign-in password")

	return cmd
}
