// Cortex - reasoning-trace session and task engine.
//
// Serves numbered, revisable thoughts under per-session token budgets with
// TTL/capacity/token-ceiling eviction and admission-controlled background
// tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Cortex - reasoning-trace session engine",
	Long: `Cortex is an in-memory session and task engine backing a reasoning-trace
tool interface.

  cortex serve    Start the HTTP server
  cortex levels   Print the reasoning level table`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
