package pushreg

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/faylit/appshell/internal/push"
)

// ErrInvalidKey is returned by DecodeKey for malformed server keys.
var ErrInvalidKey = errors.New("invalid application server key")

// Permission is the browser's notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Decided reports whether the user has already answered a prompt.
func (p Permission) Decided() bool {
	return p == PermissionGranted || p == PermissionDenied
}

// Capabilities lists the browser APIs registration depends on.
type Capabilities struct {
	Notifications bool `json:"notifications"`
	ServiceWorker bool `json:"serviceWorker"`
	PushManager   bool `json:"pushManager"`
}

// Supported reports whether every required API is present.
func (c Capabilities) Supported() bool {
	return c.Notifications && c.ServiceWorker && c.PushManager
}

// Platform is the browser side of registration. Every call may block until
// the page answers.
type Platform interface {
	Capabilities(ctx context.Context) (Capabilities, error)
	// RegisterWorker registers the service worker at scriptURL and returns
	// once it is active.
	RegisterWorker(ctx context.Context, scriptURL string) error
	Permission(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	Subscribe(ctx context.Context, applicationServerKey []byte) (push.Subscription, error)
}

// Transmitter hands a new subscription to the subscription store.
// *push.Client satisfies it.
type Transmitter interface {
	Subscribe(ctx context.Context, sub push.Subscription) error
}

// StoreTransmitter writes subscriptions straight into an in-process store.
type StoreTransmitter struct {
	Store push.Store
}

// Subscribe implements Transmitter.
func (t StoreTransmitter) Subscribe(ctx context.Context, sub push.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := t.Store.Add(ctx, sub); err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}
	return nil
}

// Notice kinds.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// Notice is a transient message shown to the user.
type Notice struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier displays notices.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Outcome is how a registration attempt ended.
type Outcome int

const (
	OutcomeUnsupported Outcome = iota
	OutcomeAlreadyDecided
	OutcomeDenied
	OutcomeDismissed
	OutcomeSubscribed
	OutcomeFailed
	OutcomeAborted
)

var outcomeNames = [...]string{
	OutcomeUnsupported:    "unsupported",
	OutcomeAlreadyDecided: "already_decided",
	OutcomeDenied:         "denied",
	OutcomeDismissed:      "dismissed",
	OutcomeSubscribed:     "subscribed",
	OutcomeFailed:         "failed",
	OutcomeAborted:        "aborted",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Recorder counts registration outcomes.
type Recorder interface {
	Registration(outcome string)
}

// DecodeKey converts a base64url VAPID public key into the raw bytes the push
// manager expects.
func DecodeKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if pad := len(key) % 4; pad != 0 {
		key += strings.Repeat("=", 4-pad)
	}
	key = strings.NewReplacer("-", "+", "_", "/").Replace(key)
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return raw, nil
}
