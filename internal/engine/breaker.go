// breaker.go pauses optimization after consecutive safety rejections.
package engine

import "sync"

// Breaker opens after a run of consecutive rejected plans and keeps
// the engine idle for a fixed number of cycles. A persistently unsafe
// plan usually means a sensor or agent is misbehaving; backing off
// beats re-arbitrating the same bad inputs every few hundred
// milliseconds.
type Breaker struct {
	mu          sync.Mutex
	consecutive int
	threshold   int
	cooldown    int
	remaining   int
}

// NewBreaker creates a breaker with the given rejection threshold and
// cooldown cycle count.
func NewBreaker(threshold, cooldown int) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 10
	}
	return &Breaker{threshold: threshold, cooldown: cooldown}
}

// RecordRejection counts a rejected plan. Returns true if this
// rejection opened the breaker.
func (b *Breaker) RecordRejection() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive++
	if b.consecutive >= b.threshold && b.remaining == 0 {
		b.remaining = b.cooldown
		return true
	}
	return false
}

// RecordSuccess resets the rejection counter.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
}

// Open reports whether the engine should sit this cycle out.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining > 0
}

// Tick consumes one paused cycle. When the cooldown runs out the
// rejection counter starts fresh.
func (b *Breaker) Tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining > 0 {
		b.remaining--
		if b.remaining == 0 {
			b.consecutive = 0
		}
	}
}

// Consecutive returns the current rejection run length.
func (b *Breaker) Consecutive() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutive
}
