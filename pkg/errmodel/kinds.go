package errmodel

import "errors"

// Sentinel errors giving Go-native shape to the library-level error
// taxonomy: callers match these with errors.Is rather than parsing
// messages. These are distinct from the grpc-status constructors in
// errors.go, which translate a sentinel (or any error) into a wire-level
// error for a hosted service — the core itself never returns a
// *status.Status, only these.
var (
	// ErrArgument: caller passed null/empty where required.
	ErrArgument = errors.New("chaosmongo: argument error")

	// ErrConfiguration: queue or migration setup is inconsistent.
	ErrConfiguration = errors.New("chaosmongo: configuration error")

	// ErrLockExpired: a lock handle was found invalid where validity was
	// required (e.g. mid migration run).
	ErrLockExpired = errors.New("chaosmongo: lock expired")

	// ErrDisposed: an operation was attempted on a disposed subscription.
	ErrDisposed = errors.New("chaosmongo: subscription disposed")

	// ErrNotRegistered: a handler factory has no handler for a payload type.
	ErrNotRegistered = errors.New("chaosmongo: handler not registered")
)
