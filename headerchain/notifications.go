// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import "sync"

// NotificationType identifies the kind of event a Notification carries.
type NotificationType int

// Notification types. NTNewBestBlock fires for every accepted header that
// becomes (or extends) the chain head; NTReorganize fires in addition
// whenever the new head is not a simple extension of the prior one.
const (
	NTNewBestBlock NotificationType = iota
	NTReorganize
)

func (t NotificationType) String() string {
	switch t {
	case NTNewBestBlock:
		return "NTNewBestBlock"
	case NTReorganize:
		return "NTReorganize"
	default:
		return "unknown"
	}
}

// ReorganizeData carries the detail of a reorganize event: the old and new
// heads, and the disconnected/connected block lists in the height order
// listeners observe them (disconnected highest-first, connected
// lowest-first).
type ReorganizeData struct {
	OldHead      *StoredBlock
	NewHead      *StoredBlock
	Disconnected []*StoredBlock
	Connected    []*StoredBlock
}

// Notification is delivered to every subscribed callback after the store
// has reached a consistent state reflecting it.
type Notification struct {
	Type NotificationType
	// Block is populated for NTNewBestBlock.
	Block *StoredBlock
	// Reorganize is populated for NTReorganize.
	Reorganize *ReorganizeData
}

// NotificationCallback receives chain notifications. Callbacks run
// synchronously on the caller's goroutine, under the chain's write lock;
// they must not reenter the engine.
type NotificationCallback func(notification *Notification)

// notificationManager holds the registered callbacks a Chain notifies.
// Subscribing the same function value more than once registers it that
// many times, each firing independently — mirroring the callback-list
// contract the chain engine follows elsewhere in this codebase.
type notificationManager struct {
	mu        sync.Mutex
	callbacks []NotificationCallback
}

// Subscribe registers callback to receive future notifications.
// Registrations last for the lifetime of the chain; there is no removal.
func (m *notificationManager) Subscribe(callback NotificationCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// notify invokes every registered callback in registration order. Panics
// within a callback are not recovered here; callbacks are responsible for
// their own error handling. The store has already been mutated by the time
// notify runs, so a failing callback never rolls anything back.
func (m *notificationManager) notify(n *Notification) {
	m.mu.Lock()
	callbacks := make([]NotificationCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(n)
	}
}
