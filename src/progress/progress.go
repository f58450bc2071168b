// Package progress defines the optional feedback callback threaded through
// long-running imports. The engine behaves identically when no sink is set.
package progress

// Func receives the running item count and the batch total. A nil Func is
// valid and means no reporting.
type Func func(done, total int)

// Report invokes fn if it is non-nil.
func Report(fn Func, done, total int) {
	if fn != nil {
		fn(done, total)
	}
}
