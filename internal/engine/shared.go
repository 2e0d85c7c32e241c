package engine

import (
	"fmt"
	"sync"
)

// Factory builds an engine.
type Factory func() (Engine, error)

var (
	sharedMu      sync.Mutex
	sharedOnce    = new(sync.Once)
	sharedEngine  Engine
	sharedInitErr error
)

// Shared returns the process-wide engine, creating it with factory on the
// first call. Later calls return the same handle (or the same error)
// regardless of the factory passed.
func Shared(factory Factory) (Engine, error) {
	sharedMu.Lock()
	once := sharedOnce
	sharedMu.Unlock()

	once.Do(func() {
		var (
			e   Engine
			err error
		)
		if factory == nil {
			err = fmt.Errorf("no engine factory: %w", ErrUnavailable)
		} else {
			e, err = factory()
		}
		sharedMu.Lock()
		sharedEngine, sharedInitErr = e, err
		sharedMu.Unlock()
	})

	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedEngine, sharedInitErr
}

// ResetShared closes and forgets the process-wide engine so the next
// Shared call builds a new one.
func ResetShared() error {
	sharedMu.Lock()
	e := sharedEngine
	sharedEngine, sharedInitErr = nil, nil
	sharedOnce = new(sync.Once)
	sharedMu.Unlock()

	if e != nil {
		return e.Close()
	}
	return nil
}
