package chains

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/retry"
)

// HeaderSource is what the watcher needs from a client.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// HeaderWatcher polls the latest header and calls OnHeader whenever the
// block number moves. Displayed balances and prices are refreshed from it.
type HeaderWatcher struct {
	source   func(ctx context.Context) (HeaderSource, error)
	interval time.Duration
	onHeader func(ctx context.Context, h *types.Header)

	latest atomic.Pointer[types.Header]
}

func NewHeaderWatcher(source func(ctx context.Context) (HeaderSource, error), interval time.Duration,
	onHeader func(ctx context.Context, h *types.Header)) *HeaderWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &HeaderWatcher{source: source, interval: interval, onHeader: onHeader}
}

func (w *HeaderWatcher) Latest() *types.Header {
	return w.latest.Load()
}

// Run blocks until ctx is done.
func (w *HeaderWatcher) Run(ctx context.Context) {
	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = w.interval
	cfg.InitialDelayBeforeRetrying = w.interval / 10

	timer := time.NewTimer(w.interval)
	defer timer.Stop()
	numCallsToChain := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("header watcher exiting", "numCallsToChain", numCallsToChain)
			return
		case <-timer.C:
			_, _ = retry.Retry(ctx, cfg,
				func(ctx context.Context) ([]interface{}, error) {
					numCallsToChain++
					return nil, w.Poll(ctx)
				},
				nil,
				"get latest header from chain")
			timer.Reset(w.interval)
		}
	}
}

// Poll fetches the latest header once.
func (w *HeaderWatcher) Poll(ctx context.Context) error {
	src, err := w.source(ctx)
	if err != nil {
		return err
	}
	header, err := src.HeaderByNumber(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to get latest header from chain")
	}
	if header == nil {
		return errors.New("chain returned nil header")
	}

	prev := w.latest.Swap(header)
	if prev != nil && prev.Number != nil && header.Number != nil && prev.Number.Cmp(header.Number) == 0 {
		return nil
	}
	if w.onHeader != nil {
		w.onHeader(ctx, header)
	}
	return nil
}
