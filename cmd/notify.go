package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faylit/appshell/internal/progress"
	"github.com/faylit/appshell/internal/push"
)

var (
	notifyLocal  bool
	notifyServer string
	notifyTitle  string
	notifyBody   string
	notifyURL    string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a notification to every stored subscription",
	Long: `Triggers the test fan-out on a running server, or with --local delivers
directly from the configured subscription store.`,
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().BoolVar(&notifyLocal, "local", false, "deliver from the local store instead of a running server")
	notifyCmd.Flags().StringVar(&notifyServer, "server", "", "base URL of a running server (default from config)")
	notifyCmd.Flags().StringVar(&notifyTitle, "title", push.DemoPayload.Title, "notification title (--local only)")
	notifyCmd.Flags().StringVar(&notifyBody, "body", push.DemoPayload.Body, "notification body (--local only)")
	notifyCmd.Flags().StringVar(&notifyURL, "url", "", "address opened on click (--local only)")
	rootCmd.AddCommand(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !notifyLocal {
		base := notifyServer
		if base == "" {
			base = cfg.Server.PublicURL
		}
		if base == "" {
			base = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		}
		resp, err := push.NewClient(base).SendTest(ctx)
		if err != nil {
			return fmt.Errorf("triggering fan-out: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		return nil
	}

	log, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	store, storeCloser, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer storeCloser.Close()

	dispatcher, err := newDispatcher(cfg, store, log, nil)
	if err != nil {
		return err
	}
	if dispatcher == nil {
		return push.ErrNotConfigured
	}

	subs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No subscriptions to send notifications to.")
		return nil
	}

	reporter := progress.NewReporter()
	reporter.Start(len(subs), "Sending notifications")
	report, err := dispatcher.FanOut(ctx, push.Payload{Title: notifyTitle, Body: notifyBody, URL: notifyURL}, func(res push.Result) {
		reporter.Step(res.Outcome)
	})
	if err != nil {
		return err
	}
	reporter.Finish(fmt.Sprintf("Delivered %d, failed %d, removed %d, remaining %d",
		report.Delivered, report.Failed, report.Removed, report.Remaining))
	return nil
}
