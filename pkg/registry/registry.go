// Package registry offers an optional convenience container for callers
// who want container-style handler registration instead of threading a
// queue.HandlerFactory closure by hand. The core (pkg/lock, pkg/migrator,
// pkg/queue) never depends on this package — it is pure sugar on top of
// queue.HandlerFactory, a generic "type -> value" map in the same
// register-by-key-then-look-up-at-wiring-time style as pkg/config's
// environment-driven struct registration.
package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// ServiceRegistry is a generic map keyed by reflect.Type, letting a caller
// register one value per Go type and fetch it back by type parameter
// without a cast at the call site.
type ServiceRegistry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]any
}

func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{entries: make(map[reflect.Type]any)}
}

// Register stores value under its own concrete type. Registering a second
// value of the same type replaces the first.
func Register[T any](r *ServiceRegistry, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[reflect.TypeOf(value)] = value
}

// Resolve fetches the value previously registered for T. ok is false if
// nothing was registered for T.
func Resolve[T any](r *ServiceRegistry) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T

	v, ok := r.entries[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}

	typed, ok := v.(T)
	if !ok {
		return zero, false
	}

	return typed, true
}

// MustResolve is Resolve but panics on a miss — for wiring code at process
// startup where a missing registration is a programmer error, not a
// runtime condition to handle.
func MustResolve[T any](r *ServiceRegistry) T {
	v, ok := Resolve[T](r)
	if !ok {
		var zero T
		panic(fmt.Sprintf("registry: no value registered for %T", zero))
	}

	return v
}
