package scheduler

import "testing"

func TestDefaultConcurrencyForCPU(t *testing.T) {
	cases := []struct {
		numCPU int
		want   int
	}{
		{1, 1},
		{2, 2},
		{4, 6},
		{8, 16},
		{100, MaxConcurrency},
	}
	for _, c := range cases {
		if got := defaultConcurrencyForCPU(c.numCPU); got != c.want {
			t.Errorf("defaultConcurrencyForCPU(%d) = %d, want %d", c.numCPU, got, c.want)
		}
	}
}
