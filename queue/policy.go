package queue

import (
	"math"
	"strings"
	"time"

	"github.com/goliatone/go-reship/core"
)

const (
	QueueEmail        = "email"
	QueueTracking     = "tracking"
	QueueNotification = "notification"
	QueueStorageFee   = "storage-fee"
)

// Policy defines queue retry bounds to avoid unbounded retry loops. Delay
// grows exponentially from BaseDelay up to MaxDelay.
type Policy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxDelay:        5 * time.Minute,
		DeadLetterOnMax: true,
	}
}

// PolicyFor returns the retry policy bound to a queue name. Email retries
// up to 3 times from a 2s base; tracking retries up to 5 times from a 5s
// base. Notification and storage-fee jobs get a single attempt; a failure
// goes straight to the dead letter rather than requeueing.
func PolicyFor(queue string) Policy {
	switch strings.TrimSpace(queue) {
	case QueueEmail:
		return Policy{
			MaxAttempts:     3,
			BaseDelay:       2 * time.Second,
			MaxDelay:        5 * time.Minute,
			DeadLetterOnMax: true,
		}
	case QueueTracking:
		return Policy{
			MaxAttempts:     5,
			BaseDelay:       5 * time.Second,
			MaxDelay:        10 * time.Minute,
			DeadLetterOnMax: true,
		}
	case QueueNotification, QueueStorageFee:
		return Policy{
			MaxAttempts:     1,
			DeadLetterOnMax: true,
		}
	default:
		return DefaultPolicy()
	}
}

// BackoffDelay returns the delay before the given retry attempt, 1-based.
func (p Policy) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(p.BaseDelay)
	next := time.Duration(base * math.Pow(2, float64(attempt-1)))
	if next < 0 || (p.MaxDelay > 0 && next > p.MaxDelay) {
		return p.MaxDelay
	}
	return next
}

// Exhausted reports whether the attempt count has consumed the retry budget.
func (p Policy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

// NormalizeNack enforces bounded retry behavior for a nack operation.
func (p Policy) NormalizeNack(opts core.JobNackOptions, attempt int) core.JobNackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.Exhausted(attempt) {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}
