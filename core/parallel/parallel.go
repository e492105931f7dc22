// Package parallel provides range-splitting helpers for embarrassingly
// parallel loops, such as per-scenario count tallies where each scenario
// contributes an independent column to a shared matrix.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, n) into contiguous chunks, one per available CPU,
// and runs fn(start, end) on each chunk concurrently. fn must not write to
// shared state outside its own [start, end) slice of the output.
func Parallelize(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when n is below threshold,
// avoiding goroutine overhead for small inputs.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		fn(0, n)
		return
	}
	Parallelize(n, fn)
}
