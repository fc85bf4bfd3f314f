package daemon

import (
	"context"
	"time"
)

// Debouncer coalesces bursts of change requests into single build triggers.
// A trigger fires once requests have been quiet for the quiet window, or at
// the latest maxDelay after the first request of a burst, so a steady stream
// of edits cannot postpone a rebuild forever.
type Debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration
	requests chan struct{}
	triggers chan struct{}
}

// NewDebouncer creates a debouncer. maxDelay values at or below the quiet
// window are raised to ten times the quiet window.
func NewDebouncer(quiet, maxDelay time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	if maxDelay <= quiet {
		maxDelay = 10 * quiet
	}
	return &Debouncer{
		quiet:    quiet,
		maxDelay: maxDelay,
		requests: make(chan struct{}, 1),
		triggers: make(chan struct{}, 1),
	}
}

// Request records a change. Safe to call from any goroutine; requests
// arriving while one is already pending coalesce.
func (d *Debouncer) Request() {
	select {
	case d.requests <- struct{}{}:
	default:
	}
}

// Triggers delivers coalesced build triggers.
func (d *Debouncer) Triggers() <-chan struct{} {
	return d.triggers
}

// Run drives the debounce timers until the context is canceled.
func (d *Debouncer) Run(ctx context.Context) {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()

	var (
		pending bool
		quietC  <-chan time.Time
		maxC    <-chan time.Time
	)

	emit := func() {
		pending = false
		quietC = nil
		maxC = nil
		select {
		case d.triggers <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			quietTimer.Stop()
			maxTimer.Stop()
			return
		case <-d.requests:
			resetTimer(quietTimer, d.quiet)
			quietC = quietTimer.C
			if !pending {
				pending = true
				resetTimer(maxTimer, d.maxDelay)
				maxC = maxTimer.C
			}
		case <-quietC:
			emit()
		case <-maxC:
			emit()
		}
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
