package db

import (
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "appshell.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if d.Path() != path {
		t.Errorf("Path = %q, want %q", d.Path(), path)
	}

	var name string
	err = d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='push_subscriptions'`).Scan(&name)
	if err != nil {
		t.Fatalf("push_subscriptions table missing: %v", err)
	}
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appshell.db")
	for i := 0; i < 2; i++ {
		d, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		d.Close()
	}
}

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO push_subscriptions (endpoint, p256dh, auth) VALUES ('e', 'p', 'a')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM push_subscriptions`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}
