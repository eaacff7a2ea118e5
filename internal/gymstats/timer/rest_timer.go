// Package timer holds the wall-clock anchored rest countdown and the periodic
// loop that drives it.
package timer

import (
	"sync"
	"time"

	"github.com/2beens/gymtracker/internal/gymstats/notify"

	log "github.com/sirupsen/logrus"
)

const CompletionTitle = "Rest complete"

type Status struct {
	Running   bool          `json:"running"`
	Remaining time.Duration `json:"remaining"`
	EndsAt    time.Time     `json:"endsAt"`
	Label     string        `json:"label"`
}

// RestTimer is Idle or Running(endsAt). Remaining time is always recomputed
// from the wall clock, never decremented, so missed ticks while the process
// was suspended cannot skew it.
type RestTimer struct {
	mu       sync.Mutex
	notifier notify.Notifier

	running bool
	endsAt  time.Time
	label   string

	NowFunc func() time.Time
	// OnComplete, when set, is called once per Running period that runs out.
	OnComplete func(label string)
}

func NewRestTimer(notifier notify.Notifier) *RestTimer {
	return &RestTimer{
		notifier: notifier,
		NowFunc:  time.Now,
	}
}

// Start opens a fresh Running period, replacing any running countdown.
func (t *RestTimer) Start(d time.Duration, label string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = true
	t.endsAt = t.NowFunc().Add(d)
	t.label = label
	log.Debugf("rest timer [%s] started, ends at %s", label, t.endsAt.Format(time.TimeOnly))

	return t.statusLocked(t.NowFunc())
}

// Skip ends the countdown early without a notification.
func (t *RestTimer) Skip() {
	t.stop("skipped")
}

// Cancel tears the countdown down without a notification.
func (t *RestTimer) Cancel() {
	t.stop("cancelled")
}

// Tick reconciles with the wall clock; reaching zero completes the period.
func (t *RestTimer) Tick() Status {
	return t.reconcile()
}

// Resume is the foreground reconciliation. A countdown that ran out while
// suspended completes now, firing a single catch-up notification.
func (t *RestTimer) Resume() Status {
	return t.reconcile()
}

func (t *RestTimer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked(t.NowFunc())
}

func (t *RestTimer) stop(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		log.Debugf("rest timer [%s] %s", t.label, reason)
	}
	t.running = false
}

func (t *RestTimer) reconcile() Status {
	t.mu.Lock()
	now := t.NowFunc()
	if !t.running || now.Before(t.endsAt) {
		status := t.statusLocked(now)
		t.mu.Unlock()
		return status
	}

	t.running = false
	label := t.label
	status := t.statusLocked(now)
	t.mu.Unlock()

	// outside the lock: notifier and callback may be slow or re-enter
	t.notifier.FireNow(CompletionTitle, completionBody(label))
	if t.OnComplete != nil {
		t.OnComplete(label)
	}
	return status
}

func (t *RestTimer) statusLocked(now time.Time) Status {
	if !t.running {
		return Status{Label: t.label}
	}
	remaining := t.endsAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Running:   true,
		Remaining: remaining,
		EndsAt:    t.endsAt,
		Label:     t.label,
	}
}

func completionBody(label string) string {
	if label == "" {
		return "Time for the next set"
	}
	return label + ": time for the next set"
}
