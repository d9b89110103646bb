package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrNotConfigured is returned when VAPID keys are missing.
var ErrNotConfigured = errors.New("vapid keys not configured")

// Deliverer sends one encrypted message to one subscription and reports the
// push service's HTTP status.
type Deliverer interface {
	Deliver(ctx context.Context, sub Subscription, payload []byte) (int, error)
}

// VAPID identifies this application server to push services.
type VAPID struct {
	PublicKey  string
	PrivateKey string
	// Subject is a mailto: address or https: URL.
	Subject string
	TTL     time.Duration
}

// Configured reports whether all key material is present.
func (v VAPID) Configured() bool {
	return v.PublicKey != "" && v.PrivateKey != "" && v.Subject != ""
}

// WebPushSender delivers messages with the Web Push protocol.
type WebPushSender struct {
	opts webpush.Options
}

// NewWebPushSender returns a sender signing requests with keys. client may
// be nil to use a default HTTP client.
func NewWebPushSender(keys VAPID, client webpush.HTTPClient) (*WebPushSender, error) {
	if !keys.Configured() {
		return nil, ErrNotConfigured
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := int(keys.TTL / time.Second)
	if ttl <= 0 {
		ttl = 60 * 60 * 24
	}
	return &WebPushSender{opts: webpush.Options{
		HTTPClient: client,
		// webpush-go adds the mailto: prefix itself for non-https subjects.
		Subscriber:      strings.TrimPrefix(keys.Subject, "mailto:"),
		VAPIDPublicKey:  keys.PublicKey,
		VAPIDPrivateKey: keys.PrivateKey,
		TTL:             ttl,
		Urgency:         webpush.UrgencyNormal,
	}}, nil
}

// Deliver implements Deliverer.
func (s *WebPushSender) Deliver(ctx context.Context, sub Subscription, payload []byte) (int, error) {
	opts := s.opts
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}, &opts)
	if err != nil {
		return 0, fmt.Errorf("sending web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// GenerateVAPIDKeys returns a new key pair encoded for configuration.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generating vapid keys: %w", err)
	}
	return publicKey, privateKey, nil
}
