package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/ward-assistant/internal/app"
	"github.com/jwalitptl/ward-assistant/internal/config"
	"github.com/jwalitptl/ward-assistant/internal/console"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ward-assistant",
		Short: "Hospital ward assistant",
	}

	rootCmd.AddCommand(chatCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	var (
		configPath string
		memory     bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session on the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if memory {
				cfg.Store.Backend = "memory"
			}
			return runChat(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml")
	cmd.Flags().BoolVar(&memory, "memory", false, "use the in-memory store with demo data")
	return cmd
}

func runChat(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.NewLogger(cfg.Log)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout+5*time.Second)
	a, err := app.New(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Error(err, "failed to release resources")
		}
	}()

	return console.New(a.Engine, os.Stdin, os.Stdout, logger).Run(ctx)
}
