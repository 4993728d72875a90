package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrBreakerOpen is returned when a call is rejected because the breaker is open.
var ErrBreakerOpen = eris.New("resilience: breaker open")

// Breaker stops calling a service after consecutive failures. Once Cooldown
// has elapsed a single probe is let through; its outcome closes or reopens
// the breaker.
type Breaker struct {
	Threshold int
	Cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

// NewBreaker creates a breaker. Non-positive arguments fall back to 5
// failures and a 30s cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{Threshold: threshold, Cooldown: cooldown, now: time.Now}
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejecting()
}

func (b *Breaker) rejecting() bool {
	if b.failures < b.Threshold {
		return false
	}
	return b.probing || b.now().Sub(b.openedAt) < b.Cooldown
}

// Execute runs fn unless the breaker is open. Context cancellation does not
// count as a service failure.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	if b.rejecting() {
		b.mu.Unlock()
		return ErrBreakerOpen
	}
	if b.failures >= b.Threshold {
		b.probing = true
	}
	b.mu.Unlock()

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	switch {
	case err == nil:
		b.failures = 0
	case ctx.Err() != nil:
	default:
		b.failures++
		if b.failures >= b.Threshold {
			b.openedAt = b.now()
		}
	}
	return err
}
