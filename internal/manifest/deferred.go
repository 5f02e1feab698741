// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package manifest

// deferred is a value loaded on first access. A load that reports failure is
// not remembered, so the next access tries again.
type deferred[T any] struct {
	value  T
	loaded bool
}

func (d *deferred[T]) get(load func() (T, bool), fallback T) T {
	if d.loaded {
		return d.value
	}
	if v, ok := load(); ok {
		d.value = v
		d.loaded = true
		return v
	}
	return fallback
}

func (d *deferred[T]) set(v T) {
	d.value = v
	d.loaded = true
}

func (d *deferred[T]) reset() {
	var zero T
	d.value = zero
	d.loaded = false
}

func (d *deferred[T]) isLoaded() bool {
	return d.loaded
}
