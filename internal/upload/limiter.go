package upload

// limiter.go implements concurrency control for CSV ingestion.
//
// The limiter uses a semaphore pattern to restrict parallel ingestions to
// a configurable maximum, preventing memory and connection exhaustion when
// several large files arrive at once. When all slots are occupied, new
// requests wait up to maxWait before failing with ErrTooManyIngestions.
//
// The limiter also supports graceful shutdown via WaitForDrain, which
// blocks until all active ingestions complete.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyIngestions is returned when all ingestion slots are occupied
// and the wait timeout expires. Clients should retry after a short delay.
var ErrTooManyIngestions = errors.New("too many concurrent ingestions, please try again later")

// DefaultMaxConcurrent is the default limit for parallel ingestions.
const DefaultMaxConcurrent = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// Limiter bounds concurrent ingestion runs using a semaphore pattern.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter that allows at most maxConcurrent
// simultaneous ingestions. Requests that cannot acquire a slot within
// maxWait receive ErrTooManyIngestions.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &Limiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire attempts to acquire an ingestion slot.
// Returns nil on success, ErrTooManyIngestions if the timeout expires.
// The caller MUST call Release() when the ingestion completes (use defer).
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from slot wait timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyIngestions

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of currently active ingestions.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// MaxConcurrent returns the maximum allowed concurrent ingestions.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// WaitForDrain blocks until all active ingestions complete or the context
// is cancelled. Used for graceful shutdown so in-flight files finish
// before the process exits.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}
