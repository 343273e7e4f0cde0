package resilience

import (
	"context"
	"sync"

	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
)

// Operation is any protected call: it returns a result or an error. The core
// does not know what the operation does, only that it may fail.
type Operation func(ctx context.Context) (interface{}, error)

// RecoveryHook attempts automated remediation after a failure is recorded.
// It returns true when the fault was resolved.
type RecoveryHook func(rec ErrorRecord) bool

// FallbackRegistry maps service names to substitute operations. Entries are
// installed during startup and read-mostly afterwards; registration is an
// idempotent upsert where the last registration for a key wins.
type FallbackRegistry struct {
	mutex     sync.RWMutex
	fallbacks map[string]Operation
}

// NewFallbackRegistry creates an empty fallback registry
func NewFallbackRegistry() *FallbackRegistry {
	return &FallbackRegistry{
		fallbacks: make(map[string]Operation),
	}
}

// Register installs a fallback for a service name
func (r *FallbackRegistry) Register(serviceName string, fn Operation) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.fallbacks[serviceName] = fn
}

// Lookup returns the fallback for a service name, if any
func (r *FallbackRegistry) Lookup(serviceName string) (Operation, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	fn, ok := r.fallbacks[serviceName]
	return fn, ok
}

// RecoveryRegistry maps fault kinds to recovery hooks. Same ownership rules
// as FallbackRegistry.
type RecoveryRegistry struct {
	mutex sync.RWMutex
	hooks map[apperrors.FaultKind]RecoveryHook
}

// NewRecoveryRegistry creates an empty recovery hook registry
func NewRecoveryRegistry() *RecoveryRegistry {
	return &RecoveryRegistry{
		hooks: make(map[apperrors.FaultKind]RecoveryHook),
	}
}

// Register installs a recovery hook for a fault kind
func (r *RecoveryRegistry) Register(kind apperrors.FaultKind, fn RecoveryHook) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.hooks[kind] = fn
}

// Lookup returns the recovery hook for a fault kind, if any
func (r *RecoveryRegistry) Lookup(kind apperrors.FaultKind) (RecoveryHook, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	fn, ok := r.hooks[kind]
	return fn, ok
}
