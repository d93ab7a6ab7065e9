package blocking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"syncwrap/async"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func greet(input string) async.Future[string] {
	return func(ctx context.Context) string {
		return fmt.Sprintf("I am %s now", input)
	}
}

func TestAwaitReturnsFutureValue(t *testing.T) {
	require.Equal(t, "I am sync now", Await(New(), greet("sync")))
}

func TestAwaitTaskPassesErrorThrough(t *testing.T) {
	sentinel := errors.New("upstream refused")
	v, err := AwaitTask(New(), async.Fail[int](sentinel))
	require.ErrorIs(t, err, sentinel)
	require.Zero(t, v)

	v, err = AwaitTask(New(), func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestRunExecutesJob(t *testing.T) {
	var ran atomic.Bool
	Run(New(), func(context.Context) { ran.Store(true) })
	require.True(t, ran.Load())
}

type recordingDriver struct {
	*Executor
	closed int
}

func (d *recordingDriver) Close() error {
	d.closed++
	return d.Executor.Close()
}

func TestDriverClosedOnPanic(t *testing.T) {
	d := &recordingDriver{Executor: New()}
	require.PanicsWithValue(t, "bad body", func() {
		Await(d, func(context.Context) int { panic("bad body") })
	})
	require.Equal(t, 1, d.closed)
	require.Error(t, d.ctx.Err(), "executor context must be cancelled after the call")
}

func TestDriverClosedOnSuccess(t *testing.T) {
	d := &recordingDriver{Executor: New()}
	Await(d, async.Ready(1))
	require.Equal(t, 1, d.closed)
}

func TestChildrenRunOnDriver(t *testing.T) {
	sum := Await(New(), func(ctx context.Context) int {
		parts := make([]async.Future[int], 0, 4)
		for i := 1; i <= 4; i++ {
			parts = append(parts, async.Go(ctx, async.Ready(i)))
		}
		total := 0
		for _, p := range parts {
			total += p(ctx)
		}
		return total
	})
	require.Equal(t, 10, sum)
}

func TestWorkerLimitRunsOverflowInline(t *testing.T) {
	d := NewWithConfig(Config{Workers: 1})
	got := Await(d, func(ctx context.Context) int {
		block := make(chan struct{})
		first := async.Go(ctx, func(context.Context) int { <-block; return 1 })
		// лимит исчерпан: второй ребёнок выполняется прямо здесь
		second := async.Go(ctx, async.Ready(2))
		v := second(ctx)
		close(block)
		return v + first(ctx)
	})
	require.Equal(t, 3, got)
}

func TestCloseCancelsStragglers(t *testing.T) {
	started := make(chan struct{})
	Await(New(), func(ctx context.Context) struct{} {
		async.Go(ctx, func(ctx context.Context) bool {
			close(started)
			<-ctx.Done()
			return true
		})
		<-started
		return struct{}{}
	})
	// goleak in TestMain fails the run if the straggler survived Close
}

func TestChildPanicIsFatal(t *testing.T) {
	require.Panics(t, func() {
		Await(New(), func(ctx context.Context) int {
			async.Go(ctx, func(context.Context) int { panic("child") })(ctx)
			return 0
		})
	})
}

func TestRootPanicWinsOverChildPanic(t *testing.T) {
	require.PanicsWithValue(t, "root", func() {
		Await(New(), func(ctx context.Context) int {
			done := make(chan struct{})
			async.Go(ctx, func(context.Context) int {
				defer close(done)
				panic("child")
			})
			<-done
			panic("root")
		})
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	d := New()
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	require.Panics(t, func() { d.Block(func(context.Context) {}) })
}

func TestIndependentConcurrentCalls(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Await(New(), func(ctx context.Context) string {
				time.Sleep(time.Millisecond)
				return fmt.Sprint(i)
			})
		}()
	}
	wg.Wait()
	for i, r := range results {
		require.Equal(t, fmt.Sprint(i), r)
	}
}
