// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package kv provides the string key-value backends that persist the ledger.
// Every backend offers the same narrow contract (Get, Set, Close); some also
// implement Watcher to report writes made by other processes.
package kv

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnavailable marks a backend that cannot be reached or refused a write.
	ErrUnavailable = errors.New("kv: backend unavailable")

	// ErrCorrupt marks a backend whose stored document can no longer be parsed.
	ErrCorrupt = errors.New("kv: stored data is corrupt")
)

// Backend is a string key-value store.
type Backend interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Close releases connections or file handles.
	Close() error
}

// Watcher is implemented by backends that can observe changes made outside
// this process. Watch blocks until ctx is done and calls onChange for each
// external modification.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Namespaced prefixes every key with "<namespace>:" so several storage areas
// can share one backend. An empty namespace returns b unchanged.
func Namespaced(b Backend, namespace string) Backend {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return b
	}
	return &namespaced{inner: b, prefix: namespace + ":"}
}

type namespaced struct {
	inner  Backend
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Close() error { return n.inner.Close() }

// Watch forwards to the wrapped backend when it supports watching.
func (n *namespaced) Watch(ctx context.Context, onChange func()) error {
	if w, ok := n.inner.(Watcher); ok {
		return w.Watch(ctx, onChange)
	}
	<-ctx.Done()
	return nil
}
