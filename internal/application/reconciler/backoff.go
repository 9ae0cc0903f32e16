package reconciler

import (
	"math/rand"
	"time"
)

const (
	backoffBase     = time.Second
	backoffCap      = time.Minute
	backoffAttempts = 5
)

// backoffDelay returns the wait before retry number attempt (starting at
// 1): base doubled per attempt, capped, with up to 25% jitter so retries
// against a struggling gateway spread out.
func backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := backoffBase << (attempt - 1)
	if delay > backoffCap {
		delay = backoffCap
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}
