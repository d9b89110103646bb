package cmd

import (
	"github.com/spf13/cobra"

	"github.com/faylit/appshell/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize appshell configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for the storefront, port and subscription store, generates VAPID keys and writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
