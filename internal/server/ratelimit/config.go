// Defines rate limit tiers and routing rules.

package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// Tier is a named limiter. Keys are per client IP.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Limiters holds the read and write tiers. A nil tier is unlimited.
type Limiters struct {
	Read  *Tier
	Write *Tier
}

// New creates limiters from per-minute rates. A rate of 0 disables the tier.
// The burst is a sixth of the per-minute rate, at least 1.
func New(readPerMin, writePerMin int) *Limiters {
	return &Limiters{
		Read:  newTier("read", readPerMin),
		Write: newTier("write", writePerMin),
	}
}

func newTier(name string, perMin int) *Tier {
	if perMin <= 0 {
		return nil
	}
	return &Tier{Name: name, Limiter: NewLimiter(perMin, time.Minute, max(perMin/6, 1))}
}

// Match returns the tier for a request, or nil if it is not rate limited.
func (l *Limiters) Match(method, path string) *Tier {
	if l == nil || strings.HasSuffix(path, "/health") {
		return nil
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		return l.Read
	case http.MethodPost:
		// Query is a read even though it uses POST.
		if strings.HasSuffix(path, "/query") {
			return l.Read
		}
		return l.Write
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return l.Write
	}
	return nil
}

// Close stops all limiter cleanup goroutines.
func (l *Limiters) Close() {
	if l == nil {
		return
	}
	for _, t := range []*Tier{l.Read, l.Write} {
		if t != nil {
			t.Limiter.Close()
		}
	}
}
