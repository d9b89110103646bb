package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/faylit/appshell/internal/push"
)

// DefaultPath is where init writes the configuration.
const DefaultPath = ".appshell.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to appshell! Let's configure the app shell.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Storefront.
	basePrompt := promptui.Prompt{
		Label:    "Storefront base URL",
		Default:  cfg.Frame.BaseURL,
		Validate: checkHTTPURL,
	}
	baseURL, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	cfg.Frame.BaseURL = strings.TrimRight(baseURL, "/")

	// 2. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 3. Subscription store.
	storePrompt := promptui.Select{
		Label: "Where should push subscriptions be stored?",
		Items: []string{
			"sqlite - persisted under the data directory",
			"memory - lost on restart, for demos",
		},
	}
	storeIdx, _, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store selection: %w", err)
	}
	cfg.Push.Store = []StoreKind{StoreSQLite, StoreMemory}[storeIdx]

	// 4. VAPID keys.
	keysPrompt := promptui.Prompt{
		Label:     "Generate VAPID keys for push notifications",
		IsConfirm: true,
		Default:   "y",
	}
	if _, err := keysPrompt.Run(); err == nil {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			return nil, err
		}
		cfg.Push.VAPIDPublicKey = pub
		cfg.Push.VAPIDPrivateKey = priv

		subjectPrompt := promptui.Prompt{
			Label:   "Contact for push services (mailto: or https:// URL)",
			Default: "mailto:destek@faylit.com",
		}
		subject, err := subjectPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("subject: %w", err)
		}
		cfg.Push.Subject = subject
	} else if err != promptui.ErrAbort {
		return nil, fmt.Errorf("vapid keys: %w", err)
	}

	// 5. External login.
	loginPrompt := promptui.Prompt{
		Label:   "External login URL (blank to disable)",
		Default: cfg.Nav.ExternalLoginURL,
	}
	loginURL, err := loginPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("login url: %w", err)
	}
	cfg.Nav.ExternalLoginURL = strings.TrimSpace(loginURL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	if cfg.Push.Configured() {
		fmt.Println("Keep push.vapid_private_key secret; FAYLIT_PUSH__VAPID_PRIVATE_KEY can supply it instead.")
	}
	return cfg, nil
}
