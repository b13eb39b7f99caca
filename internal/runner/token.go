package runner

import (
	"os"
	"sync/atomic"
)

// CancelToken is the cooperative cancellation surface: an in-process flag and
// a filesystem sentinel, both polled once per outer loop iteration. There is
// no preemptive cancellation; a batch in flight always completes.
type CancelToken struct {
	flag     atomic.Bool
	sentinel string
}

func NewCancelToken(sentinelPath string) *CancelToken {
	return &CancelToken{sentinel: sentinelPath}
}

// Cancel requests cancellation from another goroutine or signal handler.
func (t *CancelToken) Cancel() { t.flag.Store(true) }

func (t *CancelToken) Cancelled() bool {
	if t.flag.Load() {
		return true
	}
	if t.sentinel == "" {
		return false
	}
	if _, err := os.Stat(t.sentinel); err == nil {
		return true
	}
	return false
}
