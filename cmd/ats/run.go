package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/newthinker/ats/internal/api"
	"github.com/newthinker/ats/internal/gateway"
	"github.com/newthinker/ats/internal/logger"
	"github.com/newthinker/ats/internal/logsink"
	"github.com/newthinker/ats/internal/metrics"
	"github.com/newthinker/ats/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [strategy...]",
	Short: "Run strategy tasks until interrupted",
	Long:  "Start one task per strategy (all stored strategies when none are named) and the status server.",
	RunE:  runStrategies,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runStrategies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := logsink.New(cfg.Log.Sink)
	defer sink.Close()
	log = logger.WithSink(log, sink, zapcore.InfoLevel)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		reg.RegisterLogDrops(sink.Dropped)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening strategy store: %w", err)
	}
	defer closeStore()

	session := gateway.NewSession(newBroker(cfg), log)
	if err := session.Connect(ctx); err != nil {
		return err
	}
	defer session.Disconnect()

	gw := gateway.NewShared(gateway.WithTimeout(session, cfg.Gateway.Timeout))

	if cfg.Server.Enabled {
		server := api.NewServer(cfg.Server.Config, api.Dependencies{
			Sink:    sink,
			Store:   store,
			Metrics: reg,
			Session: session,
		}, log)
		go func() {
			if err := server.Start(); err != nil {
				log.Error("server error", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = server.Shutdown(sctx)
		}()
	}

	sup := runner.NewSupervisor(store, gw, cfg.RunnerOptions(),
		runner.WithLogger(log),
		runner.WithMetrics(reg),
	)
	if err := sup.Run(ctx, args); err != nil {
		return err
	}
	log.Info("all strategy tasks stopped")
	return nil
}
