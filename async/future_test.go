package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingSpawner struct{ n atomic.Int32 }

func (s *countingSpawner) Spawn(fn func()) {
	s.n.Add(1)
	go fn()
}

func TestReadyAndThen(t *testing.T) {
	fut := Then(Ready(20), func(v int) int { return v + 1 })
	if got := fut(context.Background()); got != 21 {
		t.Fatalf("got %d, want 21", got)
	}
}

func TestFailPassesErrorThrough(t *testing.T) {
	sentinel := errors.New("boom")
	v, err := Fail[string](sentinel)(context.Background())
	if !errors.Is(err, sentinel) || v != "" {
		t.Fatalf("got (%q, %v)", v, err)
	}
}

func TestGoUsesSpawnerFromContext(t *testing.T) {
	s := &countingSpawner{}
	ctx := WithSpawner(context.Background(), s)

	a := Go(ctx, Ready("a"))
	b := GoTask(ctx, func(context.Context) (int, error) { return 2, nil })

	if got := a(ctx); got != "a" {
		t.Fatalf("a = %q", got)
	}
	if got, err := b(ctx); got != 2 || err != nil {
		t.Fatalf("b = (%d, %v)", got, err)
	}
	if s.n.Load() != 2 {
		t.Fatalf("expected 2 spawns, got %d", s.n.Load())
	}
}

func TestGoWithoutSpawner(t *testing.T) {
	ctx := context.Background()
	if SpawnerFrom(ctx) != nil {
		t.Fatalf("background context must not carry a spawner")
	}
	if got := Go(ctx, Ready(7))(ctx); got != 7 {
		t.Fatalf("got %d", got)
	}
}
