/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package iotgateway

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a thread-safe registry of named route targets of type T, such as
// the browsable buckets or the sorted reference tables.
type Catalog[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

// NewCatalog creates an empty Catalog for type T
func NewCatalog[T any]() *Catalog[T] {
	return &Catalog[T]{
		entries: make(map[string]T),
	}
}

// Register adds a target under name
func (c *Catalog[T]) Register(name string, target T) error {
	if name == "" {
		return fmt.Errorf("catalog entry name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[name]; exists {
		return fmt.Errorf("catalog entry %q already registered", name)
	}

	c.entries[name] = target
	return nil
}

// MustRegister is Register that panics on error, for static wiring at startup
func (c *Catalog[T]) MustRegister(name string, target T) *Catalog[T] {
	if err := c.Register(name, target); err != nil {
		panic(err)
	}
	return c
}

// Get retrieves a target by name
func (c *Catalog[T]) Get(name string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	target, exists := c.entries[name]
	if !exists {
		var zero T
		return zero, fmt.Errorf("catalog entry %q not found", name)
	}

	return target, nil
}

// Remove deletes a target by name
func (c *Catalog[T]) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[name]; !exists {
		return fmt.Errorf("catalog entry %q not found", name)
	}

	delete(c.entries, name)
	return nil
}

// List returns all registered names in sorted order
func (c *Catalog[T]) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered targets
func (c *Catalog[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
