package scheduler

import "sync/atomic"

func addActive(counter *int32, delta int32) {
	atomic.AddInt32(counter, delta)
}

func loadActive(counter *int32) int32 {
	return atomic.LoadInt32(counter)
}
