// Package target builds and interprets the addresses assigned to the embedded
// storefront frame.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrForeignOrigin is returned when an address does not belong to the base origin.
var ErrForeignOrigin = errors.New("address is not on the base origin")

// Param is a single attribution query parameter.
type Param struct {
	Key   string `yaml:"key" koanf:"key" json:"key"`
	Value string `yaml:"value" koanf:"value" json:"value"`
}

// DefaultAttribution is the fixed set of marketing parameters appended to every
// target address.
var DefaultAttribution = []Param{
	{Key: "utm_source", Value: "faylit-app"},
	{Key: "utm_medium", Value: "webview"},
	{Key: "utm_campaign", Value: "app-shell"},
}

// Builder resolves relative paths against a fixed base origin.
type Builder struct {
	base  *url.URL
	attrs []Param
	keys  map[string]bool
}

// NewBuilder validates baseURL and returns a Builder that stamps attrs onto
// every address it produces.
func NewBuilder(baseURL string, attrs []Param) (*Builder, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", baseURL)
	}

	keys := make(map[string]bool, len(attrs))
	for _, p := range attrs {
		if p.Key == "" {
			return nil, errors.New("attribution parameter with empty key")
		}
		if keys[p.Key] {
			return nil, fmt.Errorf("duplicate attribution parameter %q", p.Key)
		}
		keys[p.Key] = true
	}

	return &Builder{
		base:  &url.URL{Scheme: u.Scheme, Host: u.Host},
		attrs: append([]Param(nil), attrs...),
		keys:  keys,
	}, nil
}

// Origin returns the scheme and host of the base origin.
func (b *Builder) Origin() string { return b.base.String() }

// Attribution returns a copy of the attribution parameters.
func (b *Builder) Attribution() []Param { return append([]Param(nil), b.attrs...) }

// Build resolves relativePath against the base origin and sets the
// attribution parameters, replacing any values already present under the
// same keys. Scheme and host in the input are ignored. Unparsable input
// resolves to the base root.
func (b *Builder) Build(relativePath string) string {
	ref, err := url.Parse(strings.TrimSpace(relativePath))
	if err != nil {
		ref = &url.URL{}
	}

	u := &url.URL{
		Scheme:   b.base.Scheme,
		Host:     b.base.Host,
		Path:     "/" + strings.TrimLeft(ref.Path, "/"),
		Fragment: ref.Fragment,
	}

	q := ref.Query()
	for _, p := range b.attrs {
		q.Set(p.Key, p.Value)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Strip removes the attribution parameters from address. Every other query
// parameter and the fragment are preserved.
func (b *Builder) Strip(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return address
	}
	q := u.Query()
	for key := range b.keys {
		q.Del(key)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ObservedPath converts an absolute address on the base origin into the
// path form shown to the navigation bar: attribution parameters removed,
// leading slash stripped and the root mapped to the empty string.
func (b *Builder) ObservedPath(address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("parsing address: %w", err)
	}
	if u.IsAbs() && (u.Scheme != b.base.Scheme || !strings.EqualFold(u.Host, b.base.Host)) {
		return "", ErrForeignOrigin
	}

	q := u.Query()
	for key := range b.keys {
		q.Del(key)
	}

	path := strings.TrimPrefix(u.EscapedPath(), "/")
	if raw := q.Encode(); raw != "" {
		path += "?" + raw
	}
	if u.Fragment != "" {
		path += "#" + u.EscapedFragment()
	}
	return path, nil
}

// SameAddress reports whether two addresses are equal once both are in
// canonical form.
func SameAddress(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	ua.RawQuery = ua.Query().Encode()
	ub.RawQuery = ub.Query().Encode()
	return ua.String() == ub.String()
}
