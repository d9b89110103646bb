// Package navbar models the shell's bottom navigation bar.
package navbar

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Item is a fixed navigation destination.
type Item struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Icon   string `json:"icon"`
	TestID string `json:"test_id"`
	// ExternalLoginURL, when set, makes selecting the item open an external
	// authentication flow instead of navigating the frame.
	ExternalLoginURL string `json:"external_login_url,omitempty"`
}

// DefaultItems returns the storefront's navigation destinations. The account
// item is gated behind externalLoginURL; pass "" to navigate it in the frame.
func DefaultItems(externalLoginURL string) []Item {
	return []Item{
		{Label: "Faylit", Path: "", Icon: "home", TestID: "faylit-button"},
		{Label: "Sepet", Path: "cart", Icon: "shopping-cart", TestID: "sepet-button"},
		{Label: "İndirim", Path: "indirim", Icon: "percent", TestID: "indirim-button"},
		{Label: "Hesabım", Path: "account/favorite-products", Icon: "user", TestID: "hesabim-button", ExternalLoginURL: externalLoginURL},
	}
}

// IntentKind says what the chrome layer should do with an Intent.
type IntentKind string

const (
	IntentNavigate     IntentKind = "navigate"
	IntentOpenExternal IntentKind = "open_external"
)

// Intent is emitted when the user picks a destination.
type Intent struct {
	Kind IntentKind `json:"kind"`
	// Path is the in-app destination. For external intents it is where the
	// frame should land once the external flow returns.
	Path        string `json:"path"`
	ExternalURL string `json:"external_url,omitempty"`
}

// ItemView is an item plus its highlight state.
type ItemView struct {
	Item
	Index  int  `json:"index"`
	Active bool `json:"active"`
}

// Bar is an immutable set of destinations.
type Bar struct {
	items            []Item
	externalURL      string
	externalPatterns []string
}

// New builds a Bar. Paths matching any of externalPatterns (doublestar
// globs over normalized paths) are routed to externalURL even when no item
// carries an external login URL.
func New(items []Item, externalURL string, externalPatterns []string) (*Bar, error) {
	for _, p := range externalPatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid external login pattern %q", p)
		}
	}
	if len(externalPatterns) > 0 && externalURL == "" {
		return nil, fmt.Errorf("external login patterns configured without an external login url")
	}
	return &Bar{
		items:            append([]Item(nil), items...),
		externalURL:      externalURL,
		externalPatterns: append([]string(nil), externalPatterns...),
	}, nil
}

// Items returns a copy of the bar's items.
func (b *Bar) Items() []Item { return append([]Item(nil), b.items...) }

// Normalize strips leading and trailing path separators.
func Normalize(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// ActiveIndex returns the index of the item whose path equals observed after
// normalization. Only exact matches count.
func (b *Bar) ActiveIndex(observed string) (int, bool) {
	current := Normalize(observed)
	for i, item := range b.items {
		if Normalize(item.Path) == current {
			return i, true
		}
	}
	return -1, false
}

// View returns the rendering model for observed.
func (b *Bar) View(observed string) []ItemView {
	active, ok := b.ActiveIndex(observed)
	views := make([]ItemView, len(b.items))
	for i, item := range b.items {
		views[i] = ItemView{Item: item, Index: i, Active: ok && i == active}
	}
	return views
}

// Select returns the intent for the item at index.
func (b *Bar) Select(index int) (Intent, error) {
	if index < 0 || index >= len(b.items) {
		return Intent{}, fmt.Errorf("navigation item %d out of range", index)
	}
	item := b.items[index]
	if item.ExternalLoginURL != "" {
		return Intent{Kind: IntentOpenExternal, Path: item.Path, ExternalURL: item.ExternalLoginURL}, nil
	}
	return b.IntentFor(item.Path), nil
}

// IntentFor returns the intent for navigating to path, honouring both item
// flags and the external login patterns.
func (b *Bar) IntentFor(path string) Intent {
	normalized := Normalize(path)
	for _, item := range b.items {
		if item.ExternalLoginURL != "" && Normalize(item.Path) == normalized {
			return Intent{Kind: IntentOpenExternal, Path: item.Path, ExternalURL: item.ExternalLoginURL}
		}
	}
	for _, pattern := range b.externalPatterns {
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return Intent{Kind: IntentOpenExternal, Path: path, ExternalURL: b.externalURL}
		}
	}
	return Intent{Kind: IntentNavigate, Path: path}
}
