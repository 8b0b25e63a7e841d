package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GuestLimiter throttles anonymous chat traffic per client address. The
// quota guard does not meter guests, so this is the only brake on the
// unauthenticated REST path.
type GuestLimiter struct {
	mu       sync.Mutex
	visitors map[string]*guestBucket
	rate     rate.Limit
	burst    int
}

type guestBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewGuestLimiter(r rate.Limit, burst int) *GuestLimiter {
	gl := &GuestLimiter{
		visitors: make(map[string]*guestBucket),
		rate:     r,
		burst:    burst,
	}
	go gl.cleanup()
	return gl
}

func (gl *GuestLimiter) Allow(ip string) bool {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	bucket, ok := gl.visitors[ip]
	if !ok {
		bucket = &guestBucket{limiter: rate.NewLimiter(gl.rate, gl.burst)}
		gl.visitors[ip] = bucket
	}
	bucket.lastSeen = time.Now()
	return bucket.limiter.Allow()
}

func (gl *GuestLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		gl.mu.Lock()
		for ip, bucket := range gl.visitors {
			if time.Since(bucket.lastSeen) > 10*time.Minute {
				delete(gl.visitors, ip)
			}
		}
		gl.mu.Unlock()
	}
}
