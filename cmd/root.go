package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faylit/appshell/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "appshell",
	Short: "Native-app shell around the Faylit storefront",
	Long: `appshell serves a thin app shell that embeds the Faylit storefront in a
full-screen frame, adds a bottom navigation bar and a one-time promo dialog,
and registers browsers for web push notifications.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
