package config

import (
	"path/filepath"
	"time"

	"github.com/faylit/appshell/internal/target"
)

// StoreKind selects the push subscription backend.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreSQLite StoreKind = "sqlite"
)

// Config is the top-level appshell configuration, corresponding to .appshell.yml.
type Config struct {
	Server ServerConfig `yaml:"server" koanf:"server"`
	Frame  FrameConfig  `yaml:"frame" koanf:"frame"`
	Nav    NavConfig    `yaml:"nav" koanf:"nav"`
	Push   PushConfig   `yaml:"push" koanf:"push"`
	Promo  PromoConfig  `yaml:"promo" koanf:"promo"`
	Log    LogConfig    `yaml:"log" koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	PublicURL       string `yaml:"public_url" koanf:"public_url"`
}

// FrameConfig describes the embedded storefront.
type FrameConfig struct {
	BaseURL     string         `yaml:"base_url" koanf:"base_url"`
	Attribution []target.Param `yaml:"attribution" koanf:"attribution"`
	LoadTimeout time.Duration  `yaml:"load_timeout" koanf:"load_timeout"`
}

// NavConfig holds navigation bar settings.
type NavConfig struct {
	ExternalLoginURL      string   `yaml:"external_login_url" koanf:"external_login_url"`
	ExternalLoginPatterns []string `yaml:"external_login_patterns" koanf:"external_login_patterns"`
}

// PushConfig holds web push settings.
type PushConfig struct {
	VAPIDPublicKey  string        `yaml:"vapid_public_key" koanf:"vapid_public_key"`
	VAPIDPrivateKey string        `yaml:"vapid_private_key" koanf:"vapid_private_key"`
	Subject         string        `yaml:"subject" koanf:"subject"`
	Store           StoreKind     `yaml:"store" koanf:"store"`
	DataDir         string        `yaml:"data_dir" koanf:"data_dir"`
	TTL             time.Duration `yaml:"ttl" koanf:"ttl"`
	Concurrency     int           `yaml:"concurrency" koanf:"concurrency"`
	// IntakeURL, when set, sends browser subscriptions to another server's
	// /api/subscribe instead of the local store.
	IntakeURL     string        `yaml:"intake_url" koanf:"intake_url"`
	PromptTimeout time.Duration `yaml:"prompt_timeout" koanf:"prompt_timeout"`
}

// Configured reports whether VAPID keys are present.
func (p PushConfig) Configured() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != "" && p.Subject != ""
}

// DBPath returns the SQLite database location.
func (p PushConfig) DBPath() string {
	return filepath.Join(p.DataDir, "appshell.db")
}

// PromoConfig describes the one-time promotional dialog.
type PromoConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	ID      string `yaml:"id" koanf:"id"`
	Title   string `yaml:"title" koanf:"title"`
	// Body is markdown.
	Body    string `yaml:"body" koanf:"body"`
	CTAPath string `yaml:"cta_path" koanf:"cta_path"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level      string `yaml:"level" koanf:"level"`
	Format     string `yaml:"format" koanf:"format"`
	File       string `yaml:"file" koanf:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" koanf:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" koanf:"max_backups"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	attribution := make([]target.Param, len(target.DefaultAttribution))
	copy(attribution, target.DefaultAttribution)

	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Frame: FrameConfig{
			BaseURL:     "https://faylit.com",
			Attribution: attribution,
			LoadTimeout: 2 * time.Second,
		},
		Nav: NavConfig{
			ExternalLoginURL: "https://faylit.com/uye-girisi",
		},
		Push: PushConfig{
			Store:         StoreSQLite,
			DataDir:       ".appshell",
			TTL:           24 * time.Hour,
			Concurrency:   8,
			PromptTimeout: 2 * time.Minute,
		},
		Promo: PromoConfig{
			Enabled: true,
			ID:      "app-welcome",
			Title:   "Faylit uygulamasına hoş geldiniz",
			Body:    "Yeni sezon **sokak modası** ürünlerini keşfedin. Bildirimleri açarak indirimlerden ilk siz haberdar olun.",
			CTAPath: "indirim",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
