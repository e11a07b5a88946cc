package main

import (
	"github.com/alejandrodnm/curvetrader/internal/adapters/notify"
	"github.com/alejandrodnm/curvetrader/internal/adapters/storage"
	"github.com/spf13/cobra"
)

func newRunsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List archived backtest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewSQLiteStorage(a.cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			notify.NewConsole(false, 0).PrintRuns(runs)
			return nil
		},
	}
}

func newTradesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trades RUN_ID",
		Short: "Print the trade ledger of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewSQLiteStorage(a.cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			trades, err := store.GetTradeLedger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			notify.NewConsole(false, 0).PrintTrades(trades)
			return nil
		},
	}
}
