package async

import (
	"context"
)

// Future is an asynchronous computation yielding a T.
type Future[T any] func(ctx context.Context) T

// Task is an asynchronous computation yielding a T or an error.
type Task[T any] func(ctx context.Context) (T, error)

// Job is an asynchronous computation with no result.
type Job func(ctx context.Context)

// Ready returns a Future that yields v without suspending.
func Ready[T any](v T) Future[T] {
	return func(context.Context) T { return v }
}

// Fail returns a Task that yields err.
func Fail[T any](err error) Task[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

// Then chains f after fut on the same driver.
func Then[T, U any](fut Future[T], f func(T) U) Future[U] {
	return func(ctx context.Context) U {
		return f(fut(ctx))
	}
}

// Go starts fn on the context's Spawner and returns a Future waiting for it.
// Without a Spawner in ctx the child runs on a fresh goroutine.
func Go[T any](ctx context.Context, fn Future[T]) Future[T] {
	var out T
	done := spawn(ctx, func(ctx context.Context) { out = fn(ctx) })
	return func(context.Context) T {
		<-done
		return out
	}
}

// GoTask is Go for fallible computations.
func GoTask[T any](ctx context.Context, fn Task[T]) Task[T] {
	var (
		out T
		err error
	)
	done := spawn(ctx, func(ctx context.Context) { out, err = fn(ctx) })
	return func(context.Context) (T, error) {
		<-done
		return out, err
	}
}

func spawn(ctx context.Context, fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})
	run := func() {
		defer close(done)
		fn(ctx)
	}
	if s := SpawnerFrom(ctx); s != nil {
		s.Spawn(run)
	} else {
		go run()
	}
	return done
}
