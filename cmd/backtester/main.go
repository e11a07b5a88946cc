package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/curvetrader/config"
	"github.com/spf13/cobra"
)

// app es el estado compartido por los subcomandos.
type app struct {
	configPath string
	verbose    bool
	logFormat  string
	cfg        *config.Config
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "backtester",
		Short:         "Walk-forward backtester for a yield-curve limit-order strategy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "path to config file")
	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "set log level to debug")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "format", "", "log format: text|json (overrides config)")

	rootCmd.AddCommand(newRunCmd(a), newRunsCmd(a), newTradesCmd(a))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("backtester exited with error", "err", err)
		cancel()
		os.Exit(1)
	}
}

// load lee la configuración y deja el logger listo.
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	setupLogger(cfg.Log)
	a.cfg = cfg
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
