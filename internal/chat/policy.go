package chat

import "time"

// ReconnectPolicy controls the backoff schedule after transport loss.
type ReconnectPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultReconnectPolicy returns the standard schedule:
// 1s, 2s, 4s, 8s, 10s, then give up.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		MaxAttempts: 5,
	}
}

// Delay returns the wait before reconnect attempt number attempt (0-based):
// min(BaseDelay * 2^attempt, MaxDelay).
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
