package pushreg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultWorkerURL is where the service worker script is served.
const DefaultWorkerURL = "/sw.js"

// DefaultPromptTimeout bounds how long the flow waits for the user to answer
// the permission prompt.
const DefaultPromptTimeout = 2 * time.Minute

var (
	noticeDenied = Notice{
		Kind:    NoticeInfo,
		Title:   "Bildirimler kapalı",
		Message: "Bildirim izni verilmedi. İstediğiniz zaman tarayıcı ayarlarından açabilirsiniz.",
	}
	noticeKey = Notice{
		Kind:    NoticeError,
		Title:   "Bildirimler kullanılamıyor",
		Message: "Bildirim yapılandırması hatalı. Lütfen daha sonra tekrar deneyin.",
	}
	noticeFailed = Notice{
		Kind:    NoticeError,
		Title:   "Bildirim kaydı başarısız",
		Message: "Bildirimlere abone olunamadı. Lütfen daha sonra tekrar deneyin.",
	}
	noticeSubscribed = Notice{
		Kind:    NoticeInfo,
		Title:   "Bildirimler açık",
		Message: "Yeni ürün ve indirimlerden ilk siz haberdar olacaksınız.",
	}
)

// Option configures a Flow.
type Option func(*Flow)

// WithWorkerURL overrides the service worker script URL.
func WithWorkerURL(u string) Option {
	return func(f *Flow) { f.workerURL = u }
}

// WithPromptTimeout bounds the permission prompt.
func WithPromptTimeout(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.promptTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Flow) { f.log = l }
}

// WithRecorder reports outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(f *Flow) { f.rec = r }
}

// Flow registers one browser session for push notifications. It runs at most
// once; later calls to Run return the first result.
type Flow struct {
	platform      Platform
	transmitter   Transmitter
	notifier      Notifier
	publicKey     string
	workerURL     string
	promptTimeout time.Duration
	log           zerolog.Logger
	rec           Recorder

	once    sync.Once
	outcome Outcome
	err     error
}

// New creates a Flow that subscribes with the server's VAPID publicKey.
func New(p Platform, t Transmitter, n Notifier, publicKey string, opts ...Option) *Flow {
	f := &Flow{
		platform:      p,
		transmitter:   t,
		notifier:      n,
		publicKey:     publicKey,
		workerURL:     DefaultWorkerURL,
		promptTimeout: DefaultPromptTimeout,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.notifier == nil {
		f.notifier = NotifierFunc(func(Notice) {})
	}
	return f
}

// Run waits for firstLoad to close, then registers the session. A non-nil
// error accompanies OutcomeFailed and OutcomeAborted only; it is meant for
// logging, the user has already been told through the Notifier.
func (f *Flow) Run(ctx context.Context, firstLoad <-chan struct{}) (Outcome, error) {
	f.once.Do(func() {
		f.outcome, f.err = f.run(ctx, firstLoad)
		f.log.Debug().Str("outcome", f.outcome.String()).Err(f.err).Msg("push registration finished")
		if f.rec != nil {
			f.rec.Registration(f.outcome.String())
		}
	})
	return f.outcome, f.err
}

func (f *Flow) run(ctx context.Context, firstLoad <-chan struct{}) (Outcome, error) {
	select {
	case <-firstLoad:
	case <-ctx.Done():
		return OutcomeAborted, ctx.Err()
	}

	caps, err := f.platform.Capabilities(ctx)
	if err != nil {
		return f.abortOrFail(ctx, fmt.Errorf("querying capabilities: %w", err), false)
	}
	if !caps.Supported() {
		return OutcomeUnsupported, nil
	}

	if err := f.platform.RegisterWorker(ctx, f.workerURL); err != nil {
		return f.abortOrFail(ctx, fmt.Errorf("registering service worker: %w", err), false)
	}

	perm, err := f.platform.Permission(ctx)
	if err != nil {
		return f.abortOrFail(ctx, fmt.Errorf("reading permission: %w", err), false)
	}
	if perm.Decided() {
		return OutcomeAlreadyDecided, nil
	}

	promptCtx, cancel := context.WithTimeout(ctx, f.promptTimeout)
	perm, err = f.platform.RequestPermission(promptCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return OutcomeDismissed, nil
		}
		return f.abortOrFail(ctx, fmt.Errorf("requesting permission: %w", err), false)
	}

	switch perm {
	case PermissionDenied:
		f.notifier.Notify(noticeDenied)
		return OutcomeDenied, nil
	case PermissionGranted:
	default:
		return OutcomeDismissed, nil
	}

	key, err := DecodeKey(f.publicKey)
	if err != nil {
		f.log.Error().Err(err).Msg("server public key is not usable, check push.vapid_public_key")
		f.notifier.Notify(noticeKey)
		return OutcomeFailed, err
	}

	sub, err := f.platform.Subscribe(ctx, key)
	if err != nil {
		return f.abortOrFail(ctx, fmt.Errorf("subscribing: %w", err), true)
	}
	if err := f.transmitter.Subscribe(ctx, sub); err != nil {
		return f.abortOrFail(ctx, fmt.Errorf("transmitting subscription: %w", err), true)
	}

	f.notifier.Notify(noticeSubscribed)
	return OutcomeSubscribed, nil
}

// abortOrFail classifies err. A cancelled session is torn down and gets no
// notice.
func (f *Flow) abortOrFail(ctx context.Context, err error, notify bool) (Outcome, error) {
	if ctx.Err() != nil {
		return OutcomeAborted, err
	}
	f.log.Warn().Err(err).Msg("push registration failed")
	if notify {
		f.notifier.Notify(noticeFailed)
	}
	return OutcomeFailed, err
}
