package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faylit/appshell/internal/config"
	"github.com/faylit/appshell/internal/push"
)

var keysEnv bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate a VAPID key pair for push notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if keysEnv {
			fmt.Fprintf(out, "%sPUSH__VAPID_PUBLIC_KEY=%s\n", config.EnvPrefix, pub)
			fmt.Fprintf(out, "%sPUSH__VAPID_PRIVATE_KEY=%s\n", config.EnvPrefix, priv)
			return nil
		}
		fmt.Fprintf(out, "Public key:  %s\n", pub)
		fmt.Fprintf(out, "Private key: %s\n", priv)
		return nil
	},
}

func init() {
	keysCmd.Flags().BoolVar(&keysEnv, "env", false, "print as environment variable assignments")
	rootCmd.AddCommand(keysCmd)
}
