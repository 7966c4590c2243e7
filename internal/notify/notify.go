// Package notify forwards deployment events to side channels: a Google
// spreadsheet and a Telegram chat. Delivery is best effort.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/quantumauth-io/quantum-go-utils/log"
)

var ErrNotConfigured = errors.New("notifier is not configured")

type Event struct {
	Deployer string `json:"deployer"`
	Contract string `json:"contract"`
	// Network is the decimal chain id.
	Network string `json:"network"`
}

func (e Event) Message() string {
	return fmt.Sprintf("Contract deployed!\nDeployer: %s\nContract: %s\nNetwork: %s", e.Deployer, e.Contract, e.Network)
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, e Event) error
}

// Fanout delivers every event to all sinks, each in its own goroutine.
// Failures are logged and never reach the caller.
type Fanout struct {
	sinks []Notifier
	wg    sync.WaitGroup
}

func NewFanout(sinks ...Notifier) *Fanout {
	out := make([]Notifier, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Fanout{sinks: out}
}

func (f *Fanout) Len() int { return len(f.sinks) }

// Send returns immediately. ctx values are kept but its cancellation is not,
// so delivery outlives the request that triggered it.
func (f *Fanout) Send(ctx context.Context, e Event) {
	detached := context.WithoutCancel(ctx)
	for _, s := range f.sinks {
		f.wg.Add(1)
		go func(s Notifier) {
			defer f.wg.Done()
			if err := s.Notify(detached, e); err != nil {
				log.Warn("notification failed", "sink", s.Name(), "contract", e.Contract, "error", err)
				return
			}
			log.Info("notification sent", "sink", s.Name(), "contract", e.Contract)
		}(s)
	}
}

// Wait blocks until every in-flight delivery has finished.
func (f *Fanout) Wait() {
	f.wg.Wait()
}
