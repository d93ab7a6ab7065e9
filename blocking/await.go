package blocking

import (
	"context"

	"syncwrap/async"
)

// Await drives fut on d and returns its value. d is closed before returning.
func Await[T any](d Driver, fut async.Future[T]) T {
	finished := false
	defer func() { release(d, finished) }()
	var out T
	d.Block(func(ctx context.Context) {
		out = fut(ctx)
	})
	finished = true
	return out
}

// AwaitTask drives task on d and returns its value and error unchanged.
// d is closed before returning.
func AwaitTask[T any](d Driver, task async.Task[T]) (T, error) {
	finished := false
	defer func() { release(d, finished) }()
	var (
		out T
		err error
	)
	d.Block(func(ctx context.Context) {
		out, err = task(ctx)
	})
	finished = true
	return out, err
}

// Run drives job on d. d is closed before returning.
func Run(d Driver, job async.Job) {
	finished := false
	defer func() { release(d, finished) }()
	d.Block(func(ctx context.Context) {
		job(ctx)
	})
	finished = true
}

// release closes d; a driver that cannot shut down cleanly is fatal. When
// the root computation is already panicking its value keeps propagating and
// the close error is dropped.
func release(d Driver, finished bool) {
	if err := d.Close(); err != nil && finished {
		panic(err)
	}
}
