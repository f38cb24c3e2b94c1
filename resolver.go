package relay

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// Resolver produces handler instances by identifier. It stands in for any
// dependency-injection mechanism: a factory map, a container, a service
// locator. Resolve is called once per dispatch.
type Resolver interface {
	Resolve(ctx context.Context, id string) (any, error)
}

// ResolverFunc is a function adapter for Resolver.
type ResolverFunc func(ctx context.Context, id string) (any, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, id string) (any, error) {
	return f(ctx, id)
}

// Factory constructs a handler instance.
type Factory func(ctx context.Context) (any, error)

// Container is a minimal Resolver backed by factories. Each factory runs at
// most once successfully; the instance is cached and shared by later
// dispatches. Factories run without the container lock held, so a factory
// may resolve its own dependencies from the same Container. Concurrent
// resolutions of one id wait for the single construction in flight.
// Container is safe for concurrent use.
type Container struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]any
	inflight  map[string]*construction
}

// construction is a factory call in progress. done is closed once val and
// err are set.
type construction struct {
	done chan struct{}
	val  any
	err  error
}

// NewContainer creates an empty Container.
func NewContainer() *Container {
	return &Container{
		factories: make(map[string]Factory),
		instances: make(map[string]any),
		inflight:  make(map[string]*construction),
	}
}

// Provide registers a factory for id, replacing any previous registration.
func (c *Container) Provide(id string, f Factory) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[id] = f
	delete(c.instances, id)
	return c
}

// ProvideValue registers a ready-made instance for id.
func (c *Container) ProvideValue(id string, v any) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.factories, id)
	c.instances[id] = v
	return c
}

// Resolve implements Resolver. A failed construction is not cached; the
// next Resolve runs the factory again.
func (c *Container) Resolve(ctx context.Context, id string) (any, error) {
	c.mu.Lock()
	if v, ok := c.instances[id]; ok {
		c.mu.Unlock()
		return v, nil
	}
	if inf, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		select {
		case <-inf.done:
			return inf.val, inf.err
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "wait for %q", id)
		}
	}
	f, ok := c.factories[id]
	if !ok {
		c.mu.Unlock()
		return nil, errors.Newf("no provider registered for %q", id)
	}
	inf := &construction{
		done: make(chan struct{}),
		err:  errors.Newf("construct %q: factory panicked", id),
	}
	c.inflight[id] = inf
	c.mu.Unlock()

	defer c.finish(id, inf)

	v, err := f(ctx)
	if err != nil {
		err = errors.Wrapf(err, "construct %q", id)
	}
	inf.val, inf.err = v, err
	return v, err
}

func (c *Container) finish(id string, inf *construction) {
	c.mu.Lock()
	delete(c.inflight, id)
	if inf.err == nil {
		c.instances[id] = inf.val
	}
	c.mu.Unlock()
	close(inf.done)
}

var _ Resolver = (*Container)(nil)
