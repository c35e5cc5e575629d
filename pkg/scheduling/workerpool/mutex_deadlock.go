//go:build deadlock

package workerpool

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

type hubMutex = deadlock.Mutex

func init() {
	// Task bodies run outside the hub lock.
	deadlock.Opts.DeadlockTimeout = 10 * time.Second
}
