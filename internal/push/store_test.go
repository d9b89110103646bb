package push

import (
	"context"
	"testing"
	"time"

	"github.com/faylit/appshell/internal/db"
)

func testSubscription(endpoint string) Subscription {
	return Subscription{
		Endpoint: endpoint,
		Keys:     Keys{P256dh: "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQtUbVlUls0VJXg7A8u-Ts1XbjhazAkj7I99e8QcYP7DkM", Auth: "tBHItJI5svbpez7KI4CCXg"},
	}
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLStore(database),
	}
}

func TestStoreAddIsIdempotent(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sub := testSubscription("https://fcm.googleapis.com/fcm/send/abc")

			for i := 0; i < 2; i++ {
				if err := store.Add(ctx, sub); err != nil {
					t.Fatalf("Add #%d: %v", i+1, err)
				}
			}

			subs, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(subs) != 1 {
				t.Fatalf("len(List) = %d, want 1", len(subs))
			}
			if subs[0].Endpoint != sub.Endpoint {
				t.Errorf("Endpoint = %q, want %q", subs[0].Endpoint, sub.Endpoint)
			}
		})
	}
}

func TestStoreListOrder(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			endpoints := []string{"https://push.example/c", "https://push.example/a", "https://push.example/b"}
			for _, e := range endpoints {
				if err := store.Add(ctx, testSubscription(e)); err != nil {
					t.Fatalf("Add: %v", err)
				}
			}

			subs, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(subs) != len(endpoints) {
				t.Fatalf("len(List) = %d, want %d", len(subs), len(endpoints))
			}
			for i, e := range endpoints {
				if subs[i].Endpoint != e {
					t.Errorf("subs[%d] = %q, want %q", i, subs[i].Endpoint, e)
				}
			}
		})
	}
}

func TestStoreRemove(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Add(ctx, testSubscription("https://push.example/1"))
			store.Add(ctx, testSubscription("https://push.example/2"))

			if err := store.Remove(ctx, "https://push.example/missing"); err != nil {
				t.Fatalf("Remove missing: %v", err)
			}
			subs, _ := store.List(ctx)
			if len(subs) != 2 {
				t.Fatalf("removing a missing endpoint changed size to %d", len(subs))
			}

			if err := store.Remove(ctx, "https://push.example/1"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			subs, _ = store.List(ctx)
			if len(subs) != 1 || subs[0].Endpoint != "https://push.example/2" {
				t.Errorf("after Remove: %v", subs)
			}
		})
	}
}

func TestStoreExpirationRoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			exp := time.Now().Add(30 * 24 * time.Hour).UnixMilli()
			sub := testSubscription("https://push.example/exp")
			sub.ExpirationTime = &exp
			store.Add(ctx, sub)
			store.Add(ctx, testSubscription("https://push.example/none"))

			subs, _ := store.List(ctx)
			if subs[0].ExpirationTime == nil || *subs[0].ExpirationTime != exp {
				t.Errorf("ExpirationTime = %v, want %d", subs[0].ExpirationTime, exp)
			}
			if subs[1].ExpirationTime != nil {
				t.Errorf("ExpirationTime = %v, want nil", *subs[1].ExpirationTime)
			}
		})
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Add(ctx, testSubscription("https://push.example/1"))
	store.Clear()

	subs, _ := store.List(ctx)
	if len(subs) != 0 {
		t.Errorf("len(List) = %d after Clear, want 0", len(subs))
	}
}

func TestSubscriptionValidate(t *testing.T) {
	tests := []struct {
		name string
		sub  Subscription
		ok   bool
	}{
		{"complete", testSubscription("https://push.example/1"), true},
		{"missing endpoint", Subscription{Keys: Keys{P256dh: "p", Auth: "a"}}, false},
		{"missing p256dh", Subscription{Endpoint: "e", Keys: Keys{Auth: "a"}}, false},
		{"missing auth", Subscription{Endpoint: "e", Keys: Keys{P256dh: "p"}}, false},
		{"missing keys", Subscription{Endpoint: "e"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestMemoryStoreDropsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	past := time.Now().Add(-time.Minute).UnixMilli()
	expired := testSubscription("https://push.example/old")
	expired.ExpirationTime = &past
	store.Add(ctx, expired)

	soon := time.Now().Add(200 * time.Millisecond).UnixMilli()
	shortLived := testSubscription("https://push.example/soon")
	shortLived.ExpirationTime = &soon
	store.Add(ctx, shortLived)
	store.Add(ctx, testSubscription("https://push.example/live"))

	subs, _ := store.List(ctx)
	if len(subs) != 2 {
		t.Fatalf("stored %d subscriptions, want 2 (expired one rejected)", len(subs))
	}

	time.Sleep(300 * time.Millisecond)
	subs, _ = store.List(ctx)
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example/live" {
		t.Errorf("after expiry = %+v, want only live", subs)
	}
}
