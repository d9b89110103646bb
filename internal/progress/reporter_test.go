package progress

import (
	"bytes"
	"testing"
)

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &LineReporter{Out: &buf}

	r.Start(2, "Sending notifications")
	r.Step("delivered https://push.example/1")
	r.Step("gone https://push.example/2")
	r.Finish("Initial: 2, Remaining: 1")

	want := "Sending notifications: 2 total\n" +
		"[1/2] delivered https://push.example/1\n" +
		"[2/2] gone https://push.example/2\n" +
		"Initial: 2, Remaining: 1\n"
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*LineReporter); !ok {
		t.Error("expected LineReporter under CI")
	}
}

func TestTerminalReporterStepBeforeStart(t *testing.T) {
	r := &TerminalReporter{}
	// Must not panic without a bar.
	r.Step("ignored")
}
