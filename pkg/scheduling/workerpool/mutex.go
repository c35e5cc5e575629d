//go:build !deadlock

package workerpool

import "sync"

// hubMutex guards the pool state. Build with -tags deadlock to swap in a
// lock-order checker.
type hubMutex = sync.Mutex
