// Package progress reports the progress of long-running CLI work such as a
// notification fan-out.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter receives one Step per finished unit of work. Step may be called
// from several goroutines.
type Reporter interface {
	Start(total int, description string)
	Step(message string)
	Finish(summary string)
}

// NewReporter returns a TerminalReporter if running in an interactive
// terminal, or a LineReporter if the CI environment variable is set.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineReporter{Out: os.Stderr}
	}
	return &TerminalReporter{}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Step(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Add(1)
	}
}

func (r *TerminalReporter) Finish(summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintln(os.Stderr, summary)
}

// LineReporter prints line-by-line progress suitable for CI logs.
type LineReporter struct {
	Out io.Writer

	mu      sync.Mutex
	total   int
	current int
}

func (r *LineReporter) Start(total int, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	r.current = 0
	fmt.Fprintf(r.Out, "%s: %d total\n", description, total)
}

func (r *LineReporter) Step(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	fmt.Fprintf(r.Out, "[%d/%d] %s\n", r.current, r.total, message)
}

func (r *LineReporter) Finish(summary string) {
	fmt.Fprintln(r.Out, summary)
}
