package blocking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"syncwrap/async"
)

// Driver accepts an asynchronous computation and runs it to completion.
type Driver interface {
	// Block runs fn and returns when it has finished. A panic in fn is
	// re-raised on the calling goroutine.
	Block(fn func(ctx context.Context))
	// Close cancels outstanding child work and waits for it.
	Close() error
}

// Config configures an Executor.
type Config struct {
	// Workers caps concurrently running child tasks; 0 means unlimited.
	// When the cap is reached a child runs inline on the goroutine spawning it.
	Workers int
	// Context is the parent of the executor context. Defaults to Background.
	Context context.Context
}

// PanicError reports a panic raised by child work after the root finished.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("blocking: child task panicked: %v", e.Value)
}

// Executor is the default Driver. Each instance owns its context and worker
// group and installs itself as the async.Spawner of the computations it runs.
type Executor struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	closed atomic.Bool

	mu         sync.Mutex
	childPanic any
}

var _ Driver = (*Executor)(nil)
var _ async.Spawner = (*Executor)(nil)

// New returns a fresh Executor with the default configuration.
func New() *Executor {
	return NewWithConfig(Config{})
}

// NewWithConfig returns a fresh Executor.
func NewWithConfig(cfg Config) *Executor {
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	e := &Executor{cancel: cancel}
	if cfg.Workers > 0 {
		e.group.SetLimit(cfg.Workers)
	}
	e.ctx = async.WithSpawner(ctx, e)
	return e
}

// Context returns the context handed to computations run by e.
func (e *Executor) Context() context.Context {
	return e.ctx
}

// Spawn implements async.Spawner.
func (e *Executor) Spawn(fn func()) {
	task := func() error {
		defer e.recoverChild()
		fn()
		return nil
	}
	if !e.group.TryGo(task) {
		_ = task()
	}
}

func (e *Executor) recoverChild() {
	r := recover()
	if r == nil {
		return
	}
	e.mu.Lock()
	if e.childPanic == nil {
		e.childPanic = r
	}
	e.mu.Unlock()
}

// Block implements Driver. The root computation runs on its own goroutine
// so that the caller only ever waits.
func (e *Executor) Block(fn func(ctx context.Context)) {
	if e.closed.Load() {
		panic("blocking: Block called on a closed driver")
	}
	var (
		done     = make(chan struct{})
		rootVal  any
		panicked bool
	)
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				rootVal, panicked = r, true
			}
		}()
		fn(e.ctx)
	}()
	<-done
	if panicked {
		panic(rootVal)
	}
}

// Close implements Driver. It is safe to call more than once.
func (e *Executor) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.cancel()
	_ = e.group.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.childPanic != nil {
		return &PanicError{Value: e.childPanic}
	}
	return nil
}
