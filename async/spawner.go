package async

import "context"

// Spawner schedules child work of a running computation.
type Spawner interface {
	Spawn(fn func())
}

type spawnerKey struct{}

// WithSpawner installs s as the scheduler for Go and GoTask.
func WithSpawner(ctx context.Context, s Spawner) context.Context {
	return context.WithValue(ctx, spawnerKey{}, s)
}

// SpawnerFrom returns the Spawner installed in ctx, or nil.
func SpawnerFrom(ctx context.Context) Spawner {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(spawnerKey{}).(Spawner)
	return s
}
