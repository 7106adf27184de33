package capture

import (
	"errors"
	"time"
)

// ErrTooManyFailures ends a loop whose FailurePolicy threshold was reached.
var ErrTooManyFailures = errors.New("capture: too many consecutive read failures")

// FailurePolicy decides what happens after a failed read. The zero value
// keeps reading forever without pausing.
type FailurePolicy struct {
	MaxConsecutive int           // 0 means unlimited
	Backoff        time.Duration // pause after each failed read
}

func (p FailurePolicy) exceeded(consecutive int) bool {
	return p.MaxConsecutive > 0 && consecutive >= p.MaxConsecutive
}
