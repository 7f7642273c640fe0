package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/j0hanz/cortex/config"
	"github.com/j0hanz/cortex/core"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Print the reasoning level table",
	Long:  "Print the authoritative reasoning level table, including any CORTEX_LEVELS_FILE override.",
	RunE:  runLevels,
}

func init() {
	rootCmd.AddCommand(levelsCmd)
}

func runLevels(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	names := make([]string, 0, len(cfg.Levels))
	for name := range cfg.Levels {
		names = append(names, string(name))
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LEVEL\tMIN THOUGHTS\tMAX THOUGHTS\tTOKEN BUDGET")
	for _, name := range names {
		lc := cfg.Levels[core.Level(name)]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, lc.MinThoughts, lc.MaxThoughts, lc.TokenBudget)
	}
	return w.Flush()
}
