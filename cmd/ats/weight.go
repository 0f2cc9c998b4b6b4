package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/ats/internal/allocation"
	"github.com/newthinker/ats/internal/gateway"
)

var weightCmd = &cobra.Command{
	Use:   "weight [strategy]",
	Short: "Show a strategy's current allocation band status",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeight,
}

func init() {
	rootCmd.AddCommand(weightCmd)
}

func runWeight(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening strategy store: %w", err)
	}
	defer closeStore()

	sc, err := lookupStrategy(ctx, store, args[0])
	if err != nil {
		return err
	}

	session := gateway.NewSession(newBroker(cfg), log)
	if err := session.Connect(ctx); err != nil {
		return err
	}
	defer session.Disconnect()
	gw := gateway.WithTimeout(session, cfg.Gateway.Timeout)

	positions, err := gw.Positions(ctx)
	if err != nil {
		return err
	}
	equity, err := gw.AccountEquity(ctx)
	if err != nil {
		return err
	}
	st, err := allocation.Check(sc, positions, equity)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "STRATEGY\tINSTRUMENT\tWEIGHT\tMIN\tTARGET\tMAX\tBAND\tBUY\tSELL\n")
	fmt.Fprintf(w, "%s\t%s\t%.2f%%\t%.2f%%\t%.2f%%\t%.2f%%\t%s\t%t\t%t\n",
		sc.StrategySymbol, st.Symbol, st.Weight, st.Min, st.Target, st.Max, st.Band,
		st.Permits(gateway.OrderSideBuy), st.Permits(gateway.OrderSideSell))
	return w.Flush()
}
