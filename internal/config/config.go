package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/faylit/appshell/internal/target"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: FAYLIT_PUSH__VAPID_PRIVATE_KEY sets push.vapid_private_key.
const EnvPrefix = "FAYLIT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FAYLIT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validStores = map[StoreKind]bool{
	StoreMemory: true,
	StoreSQLite: true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.PublicURL != "" {
		if err := checkHTTPURL(c.Server.PublicURL); err != nil {
			return fmt.Errorf("server.public_url: %w", err)
		}
	}

	if len(c.Frame.Attribution) != 3 {
		return fmt.Errorf("frame.attribution must have exactly 3 parameters, got %d", len(c.Frame.Attribution))
	}
	if _, err := target.NewBuilder(c.Frame.BaseURL, c.Frame.Attribution); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	if c.Frame.LoadTimeout <= 0 {
		return fmt.Errorf("frame.load_timeout must be positive")
	}

	if len(c.Nav.ExternalLoginPatterns) > 0 && c.Nav.ExternalLoginURL == "" {
		return fmt.Errorf("nav.external_login_patterns requires nav.external_login_url")
	}
	if c.Nav.ExternalLoginURL != "" {
		if err := checkHTTPURL(c.Nav.ExternalLoginURL); err != nil {
			return fmt.Errorf("nav.external_login_url: %w", err)
		}
	}

	if err := c.Push.validate(); err != nil {
		return err
	}

	if c.Promo.Enabled && (c.Promo.ID == "" || c.Promo.Title == "") {
		return fmt.Errorf("promo.id and promo.title are required when the promo is enabled")
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q: must be one of console, json", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_size_mb and log.max_backups must be non-negative")
	}

	return nil
}

func (p PushConfig) validate() error {
	if !validStores[p.Store] {
		return fmt.Errorf("invalid push.store %q: must be one of memory, sqlite", p.Store)
	}
	if p.Store == StoreSQLite && p.DataDir == "" {
		return fmt.Errorf("push.data_dir is required for the sqlite store")
	}
	if (p.VAPIDPublicKey == "") != (p.VAPIDPrivateKey == "") {
		return fmt.Errorf("push.vapid_public_key and push.vapid_private_key must be set together")
	}
	if p.VAPIDPublicKey != "" {
		if p.Subject == "" {
			return fmt.Errorf("push.subject is required when VAPID keys are set")
		}
		if !strings.HasPrefix(p.Subject, "mailto:") && !strings.HasPrefix(p.Subject, "https://") {
			return fmt.Errorf("push.subject %q must be a mailto: or https:// URL", p.Subject)
		}
	}
	if p.TTL < 0 || p.PromptTimeout < 0 {
		return fmt.Errorf("push.ttl and push.prompt_timeout must be non-negative")
	}
	if p.Concurrency < 0 {
		return fmt.Errorf("push.concurrency must be non-negative")
	}
	if p.IntakeURL != "" {
		if err := checkHTTPURL(p.IntakeURL); err != nil {
			return fmt.Errorf("push.intake_url: %w", err)
		}
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
