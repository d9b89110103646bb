package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/faylit/appshell/internal/bridge"
	"github.com/faylit/appshell/internal/config"
	"github.com/faylit/appshell/internal/logger"
	"github.com/faylit/appshell/internal/metrics"
	"github.com/faylit/appshell/internal/navbar"
	"github.com/faylit/appshell/internal/pages"
	"github.com/faylit/appshell/internal/promo"
	"github.com/faylit/appshell/internal/push"
	"github.com/faylit/appshell/internal/pushreg"
	"github.com/faylit/appshell/internal/server"
	"github.com/faylit/appshell/internal/target"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the app shell server",
	Long: `Serves the app shell page, the service worker, the frame bridge websocket,
the push subscription endpoints and Prometheus metrics.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
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

	m := metrics.New()
	srv, hub, err := buildServer(cfg, store, m, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(os.Stderr, "appshell serving %s on http://localhost:%d\n", cfg.Frame.BaseURL, cfg.Server.Port)
	if !cfg.Push.Configured() {
		fmt.Fprintln(os.Stderr, "Push notifications disabled: run `appshell keys` and set the push section of the config.")
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	hub.Close()
	return nil
}

// buildServer wires every route of the shell onto a new server.
func buildServer(cfg *config.Config, store push.Store, m *metrics.Metrics, log zerolog.Logger) (*server.Server, *bridge.Hub, error) {
	builder, err := target.NewBuilder(cfg.Frame.BaseURL, cfg.Frame.Attribution)
	if err != nil {
		return nil, nil, err
	}
	bar, err := navbar.New(navbar.DefaultItems(cfg.Nav.ExternalLoginURL), cfg.Nav.ExternalLoginURL, cfg.Nav.ExternalLoginPatterns)
	if err != nil {
		return nil, nil, err
	}
	pr, err := promo.New(cfg.Promo)
	if err != nil {
		return nil, nil, err
	}
	shell, err := pages.New(builder, bar, pr, logger.Component(log, "pages"))
	if err != nil {
		return nil, nil, err
	}
	dispatcher, err := newDispatcher(cfg, store, log, m)
	if err != nil {
		return nil, nil, err
	}

	var (
		transmitter pushreg.Transmitter
		publicKey   string
	)
	if cfg.Push.Configured() {
		publicKey = cfg.Push.VAPIDPublicKey
		if cfg.Push.IntakeURL != "" {
			transmitter = push.NewClient(cfg.Push.IntakeURL)
		} else {
			transmitter = pushreg.StoreTransmitter{Store: store}
		}
	}

	hub := bridge.NewHub(bridge.Config{
		Builder:         builder,
		Bar:             bar,
		LoadTimeout:     cfg.Frame.LoadTimeout,
		Transmitter:     transmitter,
		PublicKey:       publicKey,
		PromptTimeout:   cfg.Push.PromptTimeout,
		AllowAllOrigins: cfg.Server.AllowAllOrigins,
		Metrics:         m,
		Log:             logger.Component(log, "bridge"),
	})

	srv := server.New(server.Config{
		Port:     cfg.Server.Port,
		AllowAll: cfg.Server.AllowAllOrigins,
		Log:      logger.Component(log, "http"),
	})
	r := srv.Router()
	push.RegisterRoutes(r, store, dispatcher, publicKey, logger.Component(log, "push"))
	pr.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	hub.RegisterRoutes(srv.StreamRouter())
	// The deep-link catch-all goes last.
	shell.RegisterRoutes(r)

	return srv, hub, nil
}
