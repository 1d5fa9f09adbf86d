package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vyapar",
	Short: "Vyapar — GST invoicing and ledger engine",
	Long:  "Vyapar is a GST invoicing back end with a transactional stock ledger. Use this CLI to run the server and manage the datastore.",
}

func init() {
	// Server
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(dbIndexCmd)
	rootCmd.AddCommand(dbSeedCmd)

	// Ledger maintenance
	rootCmd.AddCommand(ledgerReconcileCmd)
	rootCmd.AddCommand(ratingRebuildCmd)
}
