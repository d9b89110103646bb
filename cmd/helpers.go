package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/faylit/appshell/internal/config"
	"github.com/faylit/appshell/internal/db"
	"github.com/faylit/appshell/internal/logger"
	"github.com/faylit/appshell/internal/push"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `appshell init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg and the --verbose flag.
func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	return logger.NewBuilder(cfg.Log).WithVerbose(verbose).Build()
}

// openStore opens the configured subscription store. The closer releases
// the database, if any.
func openStore(cfg *config.Config) (push.Store, io.Closer, error) {
	switch cfg.Push.Store {
	case config.StoreMemory:
		return push.NewMemoryStore(), nopCloser{}, nil
	default:
		database, err := db.Open(cfg.Push.DBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return push.NewSQLStore(database), database, nil
	}
}

// vapidFromConfig converts the push section into sender keys.
func vapidFromConfig(cfg *config.Config) push.VAPID {
	return push.VAPID{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subject:    cfg.Push.Subject,
		TTL:        cfg.Push.TTL,
	}
}

// newDispatcher returns nil when VAPID keys are not configured.
func newDispatcher(cfg *config.Config, store push.Store, log zerolog.Logger, rec push.Recorder) (*push.Dispatcher, error) {
	if !cfg.Push.Configured() {
		return nil, nil
	}
	sender, err := push.NewWebPushSender(vapidFromConfig(cfg), nil)
	if err != nil {
		return nil, err
	}
	opts := []push.DispatcherOption{
		push.WithConcurrency(cfg.Push.Concurrency),
		push.WithDispatcherLogger(logger.Component(log, "push")),
	}
	if rec != nil {
		opts = append(opts, push.WithDeliveryRecorder(rec))
	}
	return push.NewDispatcher(store, sender, opts...), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
