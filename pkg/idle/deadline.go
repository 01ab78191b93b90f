package idle

import (
	"math"
	"time"

	"github.com/vango-dev/fibers/pkg/fiber"
)

type deadlineFunc func() time.Duration

func (f deadlineFunc) TimeRemaining() time.Duration { return f() }

// Until returns a deadline that expires at t.
func Until(t time.Time) fiber.Deadline {
	return deadlineFunc(func() time.Duration {
		return max(time.Until(t), 0)
	})
}

// Budget returns a deadline that expires d from now.
func Budget(d time.Duration) fiber.Deadline {
	return Until(time.Now().Add(d))
}

// Fixed returns a deadline that always reports d remaining.
func Fixed(d time.Duration) fiber.Deadline {
	return deadlineFunc(func() time.Duration { return d })
}

// Unbounded returns a deadline that never expires.
func Unbounded() fiber.Deadline {
	return Fixed(math.MaxInt64)
}

// Steps returns a deadline that expires after it has been queried n times.
// The reconciler queries once per unit of work, so Steps(n) lets exactly n
// units run before a yield.
func Steps(n int) fiber.Deadline {
	left := n
	return deadlineFunc(func() time.Duration {
		left--
		if left <= 0 {
			return 0
		}
		return time.Duration(left) * time.Second
	})
}
