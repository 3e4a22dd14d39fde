// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

// DeferredEvent is an event a previous run deferred, queued for replay
// before the next triggering event. Context references use stable
// identity keys rather than pointers so that a deferred event survives
// state copies.
type DeferredEvent struct {
	// Name is the full event name, e.g. "database-relation-changed".
	Name string

	// HandlePath is the framework path of the deferred notice, e.g.
	// "MyCharm/on/database_relation_changed[3]".
	HandlePath string

	// Observer is the name of the handler that deferred the event and
	// will observe it again on replay.
	Observer string

	// RelationID identifies the relation a relation event belongs to.
	// Zero when the event is not a relation event.
	RelationID int

	// ContainerName identifies the container of a pebble-ready event.
	ContainerName string

	// SecretID identifies the secret of a secret event.
	SecretID string
}

func copyDeferred(events []DeferredEvent) []DeferredEvent {
	if events == nil {
		return nil
	}
	return append([]DeferredEvent(nil), events...)
}
