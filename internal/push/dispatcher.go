package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Delivery results reported to a Recorder.
const (
	ResultDelivered = "delivered"
	ResultGone      = "gone"
	ResultExpired   = "expired"
	ResultFailed    = "failed"
)

// Recorder counts delivery results, typically for metrics.
type Recorder interface {
	Delivery(result string)
}

// Result is the outcome of one delivery attempt.
type Result struct {
	Endpoint string `json:"endpoint"`
	Status   int    `json:"status,omitempty"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
	Removed  bool   `json:"removed"`
}

// Report aggregates a fan-out run.
type Report struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// Dispatcher fans a payload out to every stored subscription.
type Dispatcher struct {
	store       Store
	sender      Deliverer
	concurrency int
	log         zerolog.Logger
	rec         Recorder
	now         func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConcurrency bounds simultaneous deliveries.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithDeliveryRecorder reports each delivery result to r.
func WithDeliveryRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) { d.rec = r }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(store Store, sender Deliverer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		sender:      sender,
		concurrency: 8,
		log:         zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FanOut sends payload to every subscription. Individual delivery failures
// never fail the run; subscriptions the push service reports as gone
// (404/410), or whose expiration time has passed, are removed. onResult, if
// non-nil, is called once per subscription from the delivering goroutine.
func (d *Dispatcher) FanOut(ctx context.Context, payload Payload, onResult func(Result)) (Report, error) {
	subs, err := d.store.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("listing subscriptions: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Report{}, fmt.Errorf("encoding payload: %w", err)
	}

	d.log.Info().Int("subscribers", len(subs)).Msg("sending notifications")

	var (
		mu     sync.Mutex
		report = Report{Attempted: len(subs)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			res := d.deliver(gctx, sub, body)

			mu.Lock()
			switch res.Outcome {
			case ResultDelivered:
				report.Delivered++
			case ResultFailed:
				report.Failed++
			}
			if res.Removed {
				report.Removed++
			}
			mu.Unlock()

			if d.rec != nil {
				d.rec.Delivery(res.Outcome)
			}
			if onResult != nil {
				onResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	if remaining, err := d.store.List(ctx); err == nil {
		report.Remaining = len(remaining)
	} else {
		report.Remaining = report.Attempted - report.Removed
	}
	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub Subscription, body []byte) Result {
	res := Result{Endpoint: sub.Endpoint}
	log := d.log.With().Str("endpoint", shortEndpoint(sub.Endpoint)).Logger()

	if exp, ok := expiresAt(sub.ExpirationTime); ok && !exp.After(d.now()) {
		res.Outcome = ResultExpired
		res.Removed = d.remove(ctx, sub.Endpoint, log)
		return res
	}

	status, err := d.sender.Deliver(ctx, sub, body)
	res.Status = status
	switch {
	case err != nil:
		res.Outcome = ResultFailed
		res.Error = err.Error()
		log.Error().Err(err).Msg("sending notification")
	case status == http.StatusNotFound || status == http.StatusGone:
		res.Outcome = ResultGone
		log.Info().Int("status", status).Msg("subscription expired or invalidated, removing")
		res.Removed = d.remove(ctx, sub.Endpoint, log)
	case status >= 200 && status < 300:
		res.Outcome = ResultDelivered
		log.Debug().Int("status", status).Msg("notification sent")
	default:
		res.Outcome = ResultFailed
		res.Error = fmt.Sprintf("push service returned status %d", status)
		log.Error().Int("status", status).Msg("sending notification")
	}
	return res
}

func (d *Dispatcher) remove(ctx context.Context, endpoint string, log zerolog.Logger) bool {
	// Removal is best effort and must outlive a cancelled fan-out.
	if err := d.store.Remove(context.WithoutCancel(ctx), endpoint); err != nil {
		log.Error().Err(err).Msg("removing subscription")
		return false
	}
	return true
}
