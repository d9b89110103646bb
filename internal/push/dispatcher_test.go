package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/faylit/appshell/internal/db"
)

// scriptedSender answers each endpoint with a fixed status or error.
type scriptedSender struct {
	mu       sync.Mutex
	statuses map[string]int
	errs     map[string]error
	payloads [][]byte
}

func (s *scriptedSender) Deliver(_ context.Context, sub Subscription, payload []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	if err := s.errs[sub.Endpoint]; err != nil {
		return 0, err
	}
	if status, ok := s.statuses[sub.Endpoint]; ok {
		return status, nil
	}
	return http.StatusCreated, nil
}

type recorderFunc func(string)

func (f recorderFunc) Delivery(result string) { f(result) }

func TestFanOut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, e := range []string{"https://push.example/ok", "https://push.example/gone", "https://push.example/missing", "https://push.example/broken", "https://push.example/error"} {
		store.Add(ctx, testSubscription(e))
	}

	sender := &scriptedSender{
		statuses: map[string]int{
			"https://push.example/gone":    http.StatusGone,
			"https://push.example/missing": http.StatusNotFound,
			"https://push.example/broken":  http.StatusInternalServerError,
		},
		errs: map[string]error{"https://push.example/error": errors.New("connection reset")},
	}

	var (
		mu      sync.Mutex
		results = map[string]int{}
	)
	rec := recorderFunc(func(r string) {
		mu.Lock()
		results[r]++
		mu.Unlock()
	})

	d := NewDispatcher(store, sender, WithConcurrency(2), WithDeliveryRecorder(rec))
	var callbacks int
	report, err := d.FanOut(ctx, DemoPayload, func(Result) {
		mu.Lock()
		callbacks++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	want := Report{Attempted: 5, Delivered: 1, Failed: 2, Removed: 2, Remaining: 3}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
	if callbacks != 5 {
		t.Errorf("callbacks = %d, want 5", callbacks)
	}
	if results[ResultGone] != 2 || results[ResultDelivered] != 1 || results[ResultFailed] != 2 {
		t.Errorf("recorded results = %v", results)
	}

	subs, _ := store.List(ctx)
	for _, s := range subs {
		if s.Endpoint == "https://push.example/gone" || s.Endpoint == "https://push.example/missing" {
			t.Errorf("subscription %s should have been removed", s.Endpoint)
		}
	}

	var p Payload
	if err := json.Unmarshal(sender.payloads[0], &p); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if p.Title != DemoPayload.Title || p.Body != DemoPayload.Body {
		t.Errorf("payload = %+v, want %+v", p, DemoPayload)
	}
}

func TestFanOutRemovesExpired(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer database.Close()
	// The SQL store keeps expired rows until a fan-out removes them.
	store := NewSQLStore(database)

	past := time.Now().Add(-time.Hour).UnixMilli()
	expired := testSubscription("https://push.example/old")
	expired.ExpirationTime = &past
	store.Add(ctx, expired)
	store.Add(ctx, testSubscription("https://push.example/new"))

	sender := &scriptedSender{}
	report, err := NewDispatcher(store, sender).FanOut(ctx, DemoPayload, nil)
	if err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	if report.Removed != 1 || report.Delivered != 1 || report.Remaining != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(sender.payloads) != 1 {
		t.Errorf("sender called %d times, want 1 (expired subscription skipped)", len(sender.payloads))
	}
}

func TestFanOutEmptyStore(t *testing.T) {
	report, err := NewDispatcher(NewMemoryStore(), &scriptedSender{}).FanOut(context.Background(), DemoPayload, nil)
	if err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	if report != (Report{}) {
		t.Errorf("report = %+v, want zero", report)
	}
}

type failingStore struct{ MemoryStore }

func (*failingStore) List(context.Context) ([]Subscription, error) {
	return nil, errors.New("disk full")
}

func TestFanOutListError(t *testing.T) {
	_, err := NewDispatcher(&failingStore{}, &scriptedSender{}).FanOut(context.Background(), DemoPayload, nil)
	if err == nil {
		t.Fatal("expected error when the store cannot be listed")
	}
}
