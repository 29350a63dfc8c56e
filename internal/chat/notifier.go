package chat

import "time"

const (
	// Base interval between unread-count polls
	basePollInterval = 30 * time.Second

	// Ceiling for the failure backoff ladder
	maxPollInterval = 5 * time.Minute
)

// Notifier tracks the aggregate unread counter independently of the push
// channel. The counter is mutated from two sources: the push path increments
// it per unseen message, a successful poll overwrites it with the server's
// authoritative count. Server truth wins; that is the only arbitration rule.
type Notifier struct {
	unread              int
	consecutiveFailures int
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Unread returns the current badge value.
func (n *Notifier) Unread() int {
	return n.unread
}

// Bump increments the badge for a push frame that arrived while its
// conversation was not on screen.
func (n *Notifier) Bump() {
	n.unread++
}

// ClearBadge zeroes the displayed count when the user opens the messaging
// overlay. This is an attention signal only; per-message read state on the
// server is untouched and the next poll may raise the badge again.
func (n *Notifier) ClearBadge() {
	n.unread = 0
}

// PollSucceeded applies the server's count and returns the delay before the
// next poll (the base interval; the failure ladder resets).
func (n *Notifier) PollSucceeded(count int) time.Duration {
	if count < 0 {
		count = 0
	}
	n.unread = count
	n.consecutiveFailures = 0
	return basePollInterval
}

// PollFailed records a failed poll and returns the backed-off delay before
// the next attempt: base * 2^(failures-1), capped.
func (n *Notifier) PollFailed() time.Duration {
	n.consecutiveFailures++
	return nextDelay(n.consecutiveFailures)
}

// Failures returns the current consecutive-failure count.
func (n *Notifier) Failures() int {
	return n.consecutiveFailures
}

func nextDelay(failures int) time.Duration {
	if failures < 1 {
		return basePollInterval
	}
	d := basePollInterval
	for i := 1; i < failures && d < maxPollInterval; i++ {
		d *= 2
	}
	if d > maxPollInterval {
		d = maxPollInterval
	}
	return d
}
