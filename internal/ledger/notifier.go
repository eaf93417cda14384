// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ledger

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// subscription is a handle for a registered listener.
type subscription struct {
	id       uint64
	callback func(Ledger)
}

// notifier distributes ledger snapshots to subscribers.
type notifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []*subscription

	pubMu       sync.Mutex
	lastVersion uint64
}

func (n *notifier) subscribe(callback func(Ledger)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	sub := &subscription{id: n.nextID, callback: callback}
	n.subs = append(n.subs, sub)

	var once sync.Once
	return func() {
		once.Do(func() { n.unsubscribe(sub.id) })
	}
}

func (n *notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// publish delivers l to every subscriber synchronously. Each subscriber
// gets its own copy of the history slice. A snapshot older than one
// already delivered is dropped.
func (n *notifier) publish(version uint64, l Ledger) {
	n.pubMu.Lock()
	defer n.pubMu.Unlock()
	if version <= n.lastVersion {
		return
	}
	n.lastVersion = version

	n.mu.RLock()
	active := make([]*subscription, len(n.subs))
	copy(active, n.subs)
	n.mu.RUnlock()

	for _, sub := range active {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("panic in ledger subscriber %d: %v", sub.id, r)
				}
			}()
			sub.callback(l.Clone())
		}()
	}
}

func (n *notifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
