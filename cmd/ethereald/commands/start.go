package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"

	"github.com/exeNyx7/ethereal-sub001/internal/engine"
	"github.com/exeNyx7/ethereal-sub001/internal/ghost"
	"github.com/exeNyx7/ethereal-sub001/internal/resolve"
	"github.com/exeNyx7/ethereal-sub001/internal/rpc"
	"github.com/exeNyx7/ethereal-sub001/internal/scheduler"
	"github.com/exeNyx7/ethereal-sub001/internal/store"
)

// StartCmd runs the node: local store replica, resolution scheduler and the
// RPC surface.
var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the node for the configured community domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		db, err := dbm.NewDB("ethereal", dbm.BackendType(conf.Store.Backend), conf.Store.DBDir(conf.RootDir))
		if err != nil {
			return fmt.Errorf("failed to open store db: %w", err)
		}
		st := store.NewStore(logger.With("module", "store"), db, conf.Store.ReadTimeout)
		defer st.Close()

		metrics := engine.NopMetrics()
		if conf.Instrumentation.Prometheus {
			ns := conf.Instrumentation.Namespace
			metrics = &engine.Metrics{
				Resolve:   resolve.PrometheusMetrics(ns, "moniker", conf.Moniker),
				Ghost:     ghost.PrometheusMetrics(ns, "moniker", conf.Moniker),
				Scheduler: scheduler.PrometheusMetrics(ns, "moniker", conf.Moniker),
			}
		}

		eng, err := engine.New(logger, st, conf.Resolution.Params(), conf.Resolution.ScanInterval, metrics)
		if err != nil {
			return err
		}

		srv := rpc.NewServer(logger.With("module", "rpc"), eng, conf.RPC, conf.Instrumentation)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer srv.Stop()

		if err := eng.StartScheduler(ctx, conf.Domain); err != nil {
			return err
		}
		defer eng.StopScheduler()

		logger.Info("node started", "domain", conf.Domain)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", "signal", sig.String())
		case <-ctx.Done():
		}
		return nil
	},
}
