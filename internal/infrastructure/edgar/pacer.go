package edgar

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces the archive's minimum inter-request interval across all
// workers sharing a client. The clock is injected so tests can assert exact
// spacing without sleeping.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := p.now()
	wait := p.interval - now.Sub(p.last)
	if wait < 0 {
		wait = 0
	}
	// Reserve the slot before sleeping so concurrent callers queue up.
	p.last = now.Add(wait)
	p.mu.Unlock()

	if wait == 0 {
		return nil
	}
	return p.sleep(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
