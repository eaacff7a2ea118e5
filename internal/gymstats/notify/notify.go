// Package notify delivers fire-and-forget local notifications.
package notify

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

var ErrPermissionDenied = errors.New("notification permission denied")

//go:generate mockgen -source=$GOFILE -destination=notifymock/notifier.go -package=notifymock

// Notifier is the local notification collaborator. FireNow has no delivery guarantee.
type Notifier interface {
	RequestPermission(ctx context.Context) (bool, error)
	FireNow(title, body string)
}

// LogNotifier "delivers" notifications to the log; used where no push channel exists.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) RequestPermission(_ context.Context) (bool, error) {
	return true, nil
}

func (n *LogNotifier) FireNow(title, body string) {
	log.WithField("title", title).Infof("notification: %s", body)
}

// Gate asks the wrapped notifier for permission once and drops notifications
// when it was refused. It is created per session; there is no shared instance.
type Gate struct {
	next Notifier

	once    sync.Once
	mu      sync.RWMutex
	granted bool
}

func NewGate(next Notifier) *Gate {
	return &Gate{next: next}
}

// Init requests permission on first use only. A refusal (or an error while
// asking) is logged once and returns ErrPermissionDenied; it never blocks the caller.
func (g *Gate) Init(ctx context.Context) error {
	var err error
	g.once.Do(func() {
		granted, reqErr := g.next.RequestPermission(ctx)
		if reqErr != nil {
			log.Warnf("notification permission request failed: %s", reqErr)
		}

		g.mu.Lock()
		g.granted = granted && reqErr == nil
		g.mu.Unlock()

		if !granted || reqErr != nil {
			log.Warn("notifications are disabled; rest timers will still run")
			err = ErrPermissionDenied
		}
	})
	return err
}

func (g *Gate) Granted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.granted
}

// RequestPermission reports the outcome of the single permission request.
// Every call after a refusal returns ErrPermissionDenied.
func (g *Gate) RequestPermission(ctx context.Context) (bool, error) {
	_ = g.Init(ctx)
	if !g.Granted() {
		return false, ErrPermissionDenied
	}
	return true, nil
}

func (g *Gate) FireNow(title, body string) {
	if !g.Granted() {
		log.Debugf("notification dropped, no permission: %s", title)
		return
	}
	g.next.FireNow(title, body)
}
