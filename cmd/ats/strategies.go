package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/ats/internal/signal"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List trend filter parameters and configured strategies",
	RunE:  runStrategiesList,
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategiesList(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMETER\tVALUE\tDESCRIPTION")
	for _, p := range signal.Params {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, p.Value, p.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening strategy store: %w", err)
	}
	defer closeStore()

	configs, err := store.List(ctx)
	if err != nil {
		return err
	}
	fmt.Println()
	if len(configs) == 0 {
		fmt.Println("No strategies configured")
		return nil
	}

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tNAME\tINSTRUMENT\tEXCHANGE\tCURRENCY\tMIN\tTARGET\tMAX")
	for _, c := range configs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
			c.StrategySymbol, c.Name, c.InstrumentSymbol, c.Exchange, c.Currency,
			c.MinWeight, c.TargetWeight, c.MaxWeight)
	}
	return w.Flush()
}
