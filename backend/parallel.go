package backend

import "golang.org/x/sync/errgroup"

// looper splits an index range into contiguous chunks and runs them on
// up to threads goroutines. Ranges smaller than minChunk*2 run inline.
type looper struct {
	threads  int
	minChunk int
}

func (l *looper) run(n int, fn func(lo, hi int)) {
	if l == nil || l.threads <= 1 || n < l.minChunk*2 {
		fn(0, n)

		return
	}

	chunks := min(l.threads, n/l.minChunk)
	size := (n + chunks - 1) / chunks

	var g errgroup.Group

	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() error {
			fn(lo, hi)

			return nil
		})
	}

	_ = g.Wait()
}
