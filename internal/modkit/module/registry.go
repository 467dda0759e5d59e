package module

import "sync"

// ports holds each mounted module's Ports() by name, for lookups across modules
var ports sync.Map

// Register publishes a module's ports; a later call for the same name replaces them
func Register(name string, p any) { ports.Store(name, p) }

// PortsAs looks up name's ports as T; missing or a different type is false
func PortsAs[T any](name string) (T, bool) {
	v, _ := ports.Load(name)
	t, ok := v.(T)
	return t, ok
}

// Reset forgets every registration
func Reset() { ports.Clear() }
