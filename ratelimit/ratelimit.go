package ratelimit

import (
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// NewCatalogLimiter bounds outbound catalog API calls. Spotify tolerates
// short bursts but throttles sustained traffic well below this rate.
func NewCatalogLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(250*time.Millisecond), 4)
}

// SearchJitter returns a randomized pause inserted before each search call so
// concurrent jobs do not hit the search backend in lockstep.
func SearchJitter() time.Duration {
	const (
		from = 200
		to   = 900
	)
	millis := rand.IntN(to-from) + from //nolint:gosec

	return time.Duration(millis) * time.Millisecond
}
