package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fishmonger",
	Short: "Fishmonger is a Telegram storefront for a seafood shop",
	Long:  `Fishmonger lets customers browse the catalog, fill a cart and place an order in a Telegram chat, backed by a headless commerce API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "fishmonger.yaml", "Path to the configuration file")
}
