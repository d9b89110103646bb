package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func setupRouter(store Store, dispatcher *Dispatcher, publicKey string) chi.Router {
	r := chi.NewRouter()
	RegisterRoutes(r, store, dispatcher, publicKey, zerolog.Nop())
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type brokenStore struct{ MemoryStore }

func (*brokenStore) Add(context.Context, Subscription) error {
	return errors.New("database is locked")
}

func TestHandleSubscribe(t *testing.T) {
	store := NewMemoryStore()
	r := setupRouter(store, nil, "")

	body, _ := json.Marshal(testSubscription("https://push.example/1"))

	t.Run("stores subscription", func(t *testing.T) {
		w := postJSON(r, "/api/subscribe", string(body))
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
		}
		subs, _ := store.List(context.Background())
		if len(subs) != 1 {
			t.Errorf("stored %d subscriptions, want 1", len(subs))
		}
	})

	t.Run("duplicate is accepted once", func(t *testing.T) {
		w := postJSON(r, "/api/subscribe", string(body))
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
		}
		subs, _ := store.List(context.Background())
		if len(subs) != 1 {
			t.Errorf("stored %d subscriptions, want 1", len(subs))
		}
	})

	t.Run("missing keys", func(t *testing.T) {
		w := postJSON(r, "/api/subscribe", `{"endpoint":"https://push.example/2","keys":{"p256dh":"x"}}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		w := postJSON(r, "/api/subscribe", `{"endpoint":`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("storage error", func(t *testing.T) {
		w := postJSON(setupRouter(&brokenStore{}, nil, ""), "/api/subscribe", string(body))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		var resp errorResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Details != "database is locked" {
			t.Errorf("Details = %q", resp.Details)
		}
	})
}

func TestHandleUnsubscribe(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Add(ctx, testSubscription("https://push.example/1"))
	r := setupRouter(store, nil, "")

	w := postJSON(r, "/api/unsubscribe", `{"endpoint":"https://push.example/1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if subs, _ := store.List(ctx); len(subs) != 0 {
		t.Errorf("stored %d subscriptions, want 0", len(subs))
	}

	if w := postJSON(r, "/api/unsubscribe", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty endpoint: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleSendTest(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		w := postJSON(setupRouter(NewMemoryStore(), nil, ""), "/api/send-test-notification", "")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})

	t.Run("no subscriptions", func(t *testing.T) {
		store := NewMemoryStore()
		d := NewDispatcher(store, &scriptedSender{})
		w := postJSON(setupRouter(store, d, "pub"), "/api/send-test-notification", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp SendResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Message != "No subscriptions to send notifications to." {
			t.Errorf("Message = %q", resp.Message)
		}
	})

	t.Run("fan out", func(t *testing.T) {
		store := NewMemoryStore()
		store.Add(ctx, testSubscription("https://push.example/ok"))
		store.Add(ctx, testSubscription("https://push.example/gone"))
		sender := &scriptedSender{statuses: map[string]int{"https://push.example/gone": http.StatusGone}}
		d := NewDispatcher(store, sender)

		w := postJSON(setupRouter(store, d, "pub"), "/api/send-test-notification", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp SendResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if !strings.Contains(resp.Message, "Initial: 2, Remaining: 1") {
			t.Errorf("Message = %q", resp.Message)
		}
		if resp.Report == nil || resp.Report.Removed != 1 {
			t.Errorf("Report = %+v", resp.Report)
		}
	})
}

func TestHandlePublicKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/push/public-key", nil)
	w := httptest.NewRecorder()
	setupRouter(NewMemoryStore(), nil, "BPub").ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "BPub") {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	setupRouter(NewMemoryStore(), nil, "").ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestClient(t *testing.T) {
	store := NewMemoryStore()
	d := NewDispatcher(store, &scriptedSender{})
	srv := httptest.NewServer(setupRouter(store, d, "pub"))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	if err := c.Subscribe(ctx, testSubscription("https://push.example/1")); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := c.Subscribe(ctx, Subscription{Endpoint: "x"}); err == nil {
		t.Error("expected error for invalid subscription")
	}

	resp, err := c.SendTest(ctx)
	if err != nil {
		t.Fatalf("SendTest: %v", err)
	}
	if resp.Report == nil || resp.Report.Delivered != 1 {
		t.Errorf("Report = %+v", resp.Report)
	}

	if !strings.Contains(resp.Message, "Initial: 1") {
		t.Errorf("Message = %q", resp.Message)
	}
}
