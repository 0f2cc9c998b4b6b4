package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/ats/internal/backtest"
	"github.com/newthinker/ats/internal/report"
	"github.com/newthinker/ats/internal/storage/archive"
)

var (
	backtestSource   string
	backtestSymbol   string
	backtestDuration string
	backtestNoReport bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run backtest on a strategy",
	Long:  "Run a strategy's trend filter over its instrument's history and show performance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSource, "source", "gateway", "history source: gateway or yahoo")
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "history symbol if it differs from the instrument")
	backtestCmd.Flags().StringVar(&backtestDuration, "duration", "", `history span, e.g. "30 Y" (default from config)`)
	backtestCmd.Flags().BoolVar(&backtestNoReport, "no-report", false, "skip writing the report to the archive")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening strategy store: %w", err)
	}
	defer closeStore()

	sc, err := lookupStrategy(ctx, store, args[0])
	if err != nil {
		return err
	}

	var provider backtest.HistoryProvider
	switch backtestSource {
	case "yahoo":
		provider = newYahoo(cfg)
	case "gateway":
		b := newBroker(cfg)
		if err := b.Connect(ctx); err != nil {
			return err
		}
		defer b.Disconnect()
		provider = b
	default:
		return fmt.Errorf("unknown source %q", backtestSource)
	}

	opts := backtest.Options{
		Windows:  cfg.Indicators,
		Duration: cfg.Runner.Duration,
		BarSize:  cfg.Runner.BarSize,
		Symbol:   backtestSymbol,
	}
	if backtestDuration != "" {
		opts.Duration = backtestDuration
	}

	log.Debug("running backtest",
		zap.String("strategy", sc.StrategySymbol),
		zap.String("source", backtestSource),
		zap.String("duration", opts.Duration),
	)
	res, err := backtest.New(provider).Run(ctx, sc, opts)
	if err != nil {
		return err
	}
	report.Print(os.Stdout, res)

	if backtestNoReport {
		return nil
	}
	arc, err := archive.New(cfg.Archive)
	if err != nil {
		return err
	}
	paths, err := report.Write(ctx, arc, res)
	if err != nil {
		return err
	}
	fmt.Println()
	for _, p := range paths {
		fmt.Printf("Report written: %s\n", p)
	}
	return nil
}
