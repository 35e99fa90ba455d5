// Command geoplacesd runs the geoplaces kernel: the HTTP-agnostic
// core of flows, usecases, and repositories described by the rest of
// this module, plus the process scaffolding (config, logging, the
// sqlite store, the background token sweep) a deployment needs around
// it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "geoplacesd",
	Short: "geoplacesd - the geoplaces core daemon",
	Long:  `geoplacesd serves the geoplaces core: places, events, ratings, accounts, and search, over SQLite.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
