package audio

import "sync"

// deferralBreaker is a simplified, one-shot circuit breaker: unlike
// resilience.CircuitBreaker's closed/open/half-open cycle (built for a
// long-lived client that keeps retrying over time), a chunk manager run
// is a single Lambda invocation — once it trips there is nothing left
// to half-open into, so it just latches and stays tripped for the rest
// of that run.
type deferralBreaker struct {
	threshold int

	mu          sync.Mutex
	consecutive int
	tripped     bool
}

func newDeferralBreaker(threshold int) *deferralBreaker {
	if threshold <= 0 {
		threshold = 2
	}
	return &deferralBreaker{threshold: threshold}
}

// RecordDeferral registers one Deferrable chunk outcome and reports
// whether the breaker has now tripped (threshold consecutive
// deferrals).
func (b *deferralBreaker) RecordDeferral() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive++
	if b.consecutive >= b.threshold {
		b.tripped = true
	}
	return b.tripped
}

// RecordOther resets the consecutive-deferral counter for any
// non-deferral outcome (success or a different kind of failure).
func (b *deferralBreaker) RecordOther() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
}

// Tripped reports whether the breaker has latched open.
func (b *deferralBreaker) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}
