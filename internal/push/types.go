package push

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSubscription is returned for subscription records missing
// required fields.
var ErrInvalidSubscription = errors.New("invalid subscription")

// Keys holds the client's encryption material.
type Keys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// Subscription mirrors the browser's PushSubscription JSON form. Endpoint is
// the unique key.
type Subscription struct {
	Endpoint       string `json:"endpoint" validate:"required"`
	ExpirationTime *int64 `json:"expirationTime"`
	Keys           Keys   `json:"keys"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that endpoint and both keys are present.
func (s Subscription) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s is required", ErrInvalidSubscription, verrs[0].Namespace())
		}
		return fmt.Errorf("%w: %v", ErrInvalidSubscription, err)
	}
	return nil
}

// Payload is the notification content understood by the service worker.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// DemoPayload is sent by the test fan-out endpoint.
var DemoPayload = Payload{
	Title: "✨ Faylit Test Bildirimi! ✨",
	Body:  "Bu, Faylit uygulamasından gönderilen bir test bildirimidir. Harika fırsatlar için takipte kalın!",
}

// shortEndpoint trims endpoint for log output.
func shortEndpoint(endpoint string) string {
	const max = 30
	if len(endpoint) <= max {
		return endpoint
	}
	return endpoint[:max] + "..."
}
