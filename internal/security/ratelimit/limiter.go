package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window request limiter keyed by caller
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
	done    chan struct{}
	now     func() time.Time
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

// NewLimiter allows maxRequests per window per key. A non-positive maxRequests disables limiting.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go limiter.cleanupOldBuckets()
	return limiter
}

// Allow records a request for key under the default limit
func (l *Limiter) Allow(key string) bool {
	if key == "" || l.maxReqs <= 0 {
		return true
	}
	return l.take(key, l.maxReqs, l.window)
}

// AllowStrict applies a tighter limit for expensive endpoints, tracked separately
func (l *Limiter) AllowStrict(key string, maxReqs int, window time.Duration) bool {
	if maxReqs <= 0 {
		return true
	}
	return l.take("strict:"+key, maxReqs, window)
}

func (l *Limiter) take(key string, maxReqs int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{}
		l.buckets[key] = b
	}

	cutoff := now.Add(-window)
	kept := b.requests[:0]
	for _, t := range b.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.requests = kept
	b.lastSeen = now

	if len(b.requests) >= maxReqs {
		return false
	}
	b.requests = append(b.requests, now)
	return true
}

func (l *Limiter) cleanupOldBuckets() {
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanup.C:
			l.mu.Lock()
			stale := l.now().Add(-15 * time.Minute)
			for key, b := range l.buckets {
				if b.lastSeen.Before(stale) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop ends the background cleanup
func (l *Limiter) Stop() {
	l.cleanup.Stop()
	close(l.done)
}
