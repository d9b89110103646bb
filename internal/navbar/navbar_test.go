package navbar

import "testing"

const loginURL = "https://faylit.com/uye-girisi"

func newTestBar(t *testing.T, patterns ...string) *Bar {
	t.Helper()
	b, err := New(DefaultItems(loginURL), loginURL, patterns)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestNormalize(t *testing.T) {
	if Normalize("cart/") != Normalize("/cart") {
		t.Errorf("Normalize(cart/) = %q, Normalize(/cart) = %q", Normalize("cart/"), Normalize("/cart"))
	}
	tests := map[string]string{
		"":           "",
		"/":          "",
		"/cart/":     "cart",
		" indirim ":  "indirim",
		"a/b/":       "a/b",
		"//indirim/": "indirim",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestActiveIndex(t *testing.T) {
	b := newTestBar(t)

	tests := []struct {
		observed string
		want     int
		ok       bool
	}{
		{"", 0, true},
		{"/", 0, true},
		{"cart", 1, true},
		{"/cart/", 1, true},
		{"indirim", 2, true},
		{"indirim/kadin", -1, false},
		{"account/favorite-products", 3, true},
		{"carts", -1, false},
	}
	for _, tt := range tests {
		got, ok := b.ActiveIndex(tt.observed)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ActiveIndex(%q) = %d, %v; want %d, %v", tt.observed, got, ok, tt.want, tt.ok)
		}
	}
}

func TestView(t *testing.T) {
	b := newTestBar(t)

	views := b.View("cart")
	if len(views) != 4 {
		t.Fatalf("len(views) = %d, want 4", len(views))
	}
	for i, v := range views {
		if v.Active != (i == 1) {
			t.Errorf("views[%d].Active = %v", i, v.Active)
		}
		if v.Index != i {
			t.Errorf("views[%d].Index = %d", i, v.Index)
		}
	}
}

func TestSelect(t *testing.T) {
	b := newTestBar(t)

	intent, err := b.Select(2)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if intent.Kind != IntentNavigate || intent.Path != "indirim" {
		t.Errorf("Select(2) = %+v", intent)
	}

	if _, err := b.Select(9); err == nil {
		t.Error("expected error for out of range index")
	}
}

func TestSelectExternalLoginItem(t *testing.T) {
	b := newTestBar(t)

	intent, err := b.Select(3)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if intent.Kind != IntentOpenExternal {
		t.Fatalf("Kind = %q, want %q", intent.Kind, IntentOpenExternal)
	}
	if intent.ExternalURL != loginURL {
		t.Errorf("ExternalURL = %q, want %q", intent.ExternalURL, loginURL)
	}
	if intent.Path != "account/favorite-products" {
		t.Errorf("Path = %q, want account/favorite-products", intent.Path)
	}
}

func TestIntentFor(t *testing.T) {
	b := newTestBar(t, "account/**", "siparislerim")

	tests := []struct {
		path string
		want IntentKind
	}{
		{"account/favorite-products", IntentOpenExternal},
		{"/account/favorite-products/", IntentOpenExternal},
		{"account/orders/123", IntentOpenExternal},
		{"siparislerim", IntentOpenExternal},
		{"cart", IntentNavigate},
		{"", IntentNavigate},
	}
	for _, tt := range tests {
		if got := b.IntentFor(tt.path); got.Kind != tt.want {
			t.Errorf("IntentFor(%q).Kind = %q, want %q", tt.path, got.Kind, tt.want)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(DefaultItems(""), "", []string{"account/**"}); err == nil {
		t.Error("expected error for patterns without external url")
	}
	if _, err := New(DefaultItems(""), loginURL, []string{"account/[a"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestDefaultItemsWithoutLogin(t *testing.T) {
	b, err := New(DefaultItems(""), "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	intent, _ := b.Select(3)
	if intent.Kind != IntentNavigate {
		t.Errorf("Kind = %q, want navigate when no login url is configured", intent.Kind)
	}
}
