package dot

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Backend name constants.
const (
	// BackendAuto selects the first registered backend that initializes.
	BackendAuto = "auto"
	// BackendWGPU is the WebGPU backend (gogpu/wgpu HAL).
	BackendWGPU = "wgpu"
	// BackendSoftware is the CPU reference rasterizer.
	BackendSoftware = "software"
)

// BackendFactory opens a device whose color target is width x height pixels.
type BackendFactory func(width, height int) (Device, error)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
	// Priority order for BackendAuto (first available wins).
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// RegisterBackend registers a device factory under name.
// This is typically called from init functions in backend packages:
//
//	import _ "github.com/gogpu/dot/backend/software"
//
// Registering an existing name replaces it.
func RegisterBackend(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// UnregisterBackend removes a backend. This is useful for testing.
func UnregisterBackend(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// openBackend opens a device from the named backend. BackendAuto (or "")
// walks the priority list, then any remaining backends in name order.
func openBackend(name string, width, height int) (Device, error) {
	if name != "" && name != BackendAuto {
		registryMu.RLock()
		factory, ok := backends[name]
		registryMu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
		}
		return factory(width, height)
	}

	order := autoOrder()
	if len(order) == 0 {
		return nil, errors.New("dot: no backends registered")
	}

	var errs []error
	for _, candidate := range order {
		registryMu.RLock()
		factory := backends[candidate]
		registryMu.RUnlock()
		if factory == nil {
			continue
		}
		dev, err := factory(width, height)
		if err == nil {
			Logger().Info("backend selected", "backend", candidate)
			return dev, nil
		}
		Logger().Warn("backend unavailable, falling back", "backend", candidate, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
	}
	return nil, errors.Join(errs...)
}

func autoOrder() []string {
	registered := Backends()
	seen := make(map[string]bool, len(registered))
	order := make([]string, 0, len(registered))
	for _, name := range backendPriority {
		if IsRegistered(name) {
			order = append(order, name)
			seen[name] = true
		}
	}
	for _, name := range registered {
		if !seen[name] {
			order = append(order, name)
		}
	}
	return order
}
