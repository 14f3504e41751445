package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"newsdigest/internal/app"
	"newsdigest/internal/config"
	"newsdigest/internal/logger"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

// options - общие флаги всех команд.
type options struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "newsdigest",
		Short:         "Personalized daily news digest",
		Long:          `Aggregates RSS/Atom feeds by category, ranks them with your bookmark context and emails an HTML digest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.json", "path to the JSON config file")

	root.AddCommand(
		newSendCommand(opts),
		newPreviewCommand(opts),
		newCollectCommand(opts),
		newServeCommand(opts),
	)
	return root
}

// setup загружает конфигурацию, настраивает логгер и собирает приложение.
func setup(ctx context.Context, opts *options) (*app.App, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("could not setup logger: %w", err)
	}
	slog.SetDefault(appLogger)
	a, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Application init failed", slog.String("component", "app"), slog.Any("error", err))
		return nil, err
	}
	return a, nil
}
