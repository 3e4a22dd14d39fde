// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package event describes the triggers a scenario run applies to a
// charm. Events are transient values: they are never part of a State,
// always supplied per run.
package event

import (
	"strings"

	"github.com/juju/errors"

	"github.com/juju/scenario/hooks"
)

// Event is a named trigger plus its variant-specific payload. Use the
// shape constructors rather than building the struct by hand; they fill
// in the Kind and the name prefix conventions the dispatcher relies on.
type Event struct {
	// Name is the full hook name, e.g. "db-relation-changed",
	// "workload-pebble-ready", "install".
	Name string

	// Kind classifies the event shape.
	Kind hooks.Kind

	// RelationID identifies the relation of a relation event. The
	// relation must exist in the input state.
	RelationID int

	// RemoteUnitID overrides the remote unit the event concerns. Nil
	// selects the lowest remote unit id present on the relation.
	RemoteUnitID *int

	// DepartingUnitID is the unit leaving on relation-departed.
	DepartingUnitID *int

	// ContainerName is the container of a pebble-ready event.
	ContainerName string

	// SecretID and SecretRevision identify the subject of a secret
	// event. SecretRevision is only meaningful for revision-scoped
	// events (expired, remove-revision).
	SecretID       string
	SecretRevision int

	// StorageName and StorageIndex identify the instance of a storage
	// event.
	StorageName  string
	StorageIndex int

	// ActionName, ActionID and ActionParams describe an action
	// invocation.
	ActionName   string
	ActionID     string
	ActionParams map[string]interface{}
}

// New returns a lifecycle or custom event with the given name.
func New(name string) Event {
	_, kind := hooks.Classify(name)
	return Event{Name: name, Kind: kind}
}

// Install returns the install event.
func Install() Event { return Event{Name: "install", Kind: hooks.Install} }

// Start returns the start event.
func Start() Event { return Event{Name: "start", Kind: hooks.Start} }

// Stop returns the stop event.
func Stop() Event { return Event{Name: "stop", Kind: hooks.Stop} }

// Remove returns the remove event.
func Remove() Event { return Event{Name: "remove", Kind: hooks.Remove} }

// ConfigChanged returns the config-changed event.
func ConfigChanged() Event {
	return Event{Name: "config-changed", Kind: hooks.ConfigChanged}
}

// UpdateStatus returns the update-status event.
func UpdateStatus() Event {
	return Event{Name: "update-status", Kind: hooks.UpdateStatus}
}

// UpgradeCharm returns the upgrade-charm event.
func UpgradeCharm() Event {
	return Event{Name: "upgrade-charm", Kind: hooks.UpgradeCharm}
}

// LeaderElected returns the leader-elected event. The checker requires
// leadership to be held in the input state.
func LeaderElected() Event {
	return Event{Name: "leader-elected", Kind: hooks.LeaderElected}
}

func relationEvent(endpoint string, relationID int, kind hooks.Kind) Event {
	return Event{
		Name:       endpoint + "-" + string(kind),
		Kind:       kind,
		RelationID: relationID,
	}
}

// RelationCreated returns a relation-created event for the relation
// with the given endpoint name and id.
func RelationCreated(endpoint string, relationID int) Event {
	return relationEvent(endpoint, relationID, hooks.RelationCreated)
}

// RelationJoined returns a relation-joined event.
func RelationJoined(endpoint string, relationID int) Event {
	return relationEvent(endpoint, relationID, hooks.RelationJoined)
}

// RelationChanged returns a relation-changed event.
func RelationChanged(endpoint string, relationID int) Event {
	return relationEvent(endpoint, relationID, hooks.RelationChanged)
}

// RelationDeparted returns a relation-departed event. departingUnitID
// is the remote unit leaving the relation.
func RelationDeparted(endpoint string, relationID, departingUnitID int) Event {
	ev := relationEvent(endpoint, relationID, hooks.RelationDeparted)
	ev.DepartingUnitID = &departingUnitID
	return ev
}

// RelationBroken returns a relation-broken event.
func RelationBroken(endpoint string, relationID int) Event {
	return relationEvent(endpoint, relationID, hooks.RelationBroken)
}

// WithRemoteUnit returns a copy of the event pinned to the given remote
// unit instead of the default (lowest id present).
func (e Event) WithRemoteUnit(unitID int) Event {
	e.RemoteUnitID = &unitID
	return e
}

// PebbleReady returns the pebble-ready event for the named container.
func PebbleReady(container string) Event {
	return Event{
		Name:          container + "-pebble-ready",
		Kind:          hooks.PebbleReady,
		ContainerName: container,
	}
}

// SecretChanged returns a secret-changed event for the given secret.
func SecretChanged(secretID string) Event {
	return Event{Name: "secret-changed", Kind: hooks.SecretChanged, SecretID: secretID}
}

// SecretRotate returns a secret-rotate event. Owner-only.
func SecretRotate(secretID string) Event {
	return Event{Name: "secret-rotate", Kind: hooks.SecretRotate, SecretID: secretID}
}

// SecretExpired returns a secret-expired event for the given revision.
// Owner-only.
func SecretExpired(secretID string, revision int) Event {
	return Event{
		Name:           "secret-expired",
		Kind:           hooks.SecretExpired,
		SecretID:       secretID,
		SecretRevision: revision,
	}
}

// SecretRemove returns a secret-remove event. Owner-only.
func SecretRemove(secretID string) Event {
	return Event{Name: "secret-remove", Kind: hooks.SecretRemove, SecretID: secretID}
}

// SecretRemoveRevision returns a secret-remove event scoped to a single
// obsolete revision. Owner-only.
func SecretRemoveRevision(secretID string, revision int) Event {
	return Event{
		Name:           "secret-remove",
		Kind:           hooks.SecretRemove,
		SecretID:       secretID,
		SecretRevision: revision,
	}
}

// StorageAttached returns a storage-attached event for the given
// storage instance.
func StorageAttached(name string, index int) Event {
	return Event{
		Name:         name + "-storage-attached",
		Kind:         hooks.StorageAttached,
		StorageName:  name,
		StorageIndex: index,
	}
}

// StorageDetaching returns a storage-detaching event.
func StorageDetaching(name string, index int) Event {
	return Event{
		Name:         name + "-storage-detaching",
		Kind:         hooks.StorageDetaching,
		StorageName:  name,
		StorageIndex: index,
	}
}

// Action returns an action invocation event.
func Action(name string, params map[string]interface{}) Event {
	return Event{
		Name:         name + "-action",
		Kind:         hooks.Action,
		ActionName:   name,
		ActionParams: params,
	}
}

// Custom returns a custom event, as raised by charm sub-components
// during a cascade.
func Custom(name string) Event {
	return Event{Name: name, Kind: hooks.Custom}
}

// Prefix returns the variable part of a prefixed event name: the
// endpoint of a relation event, the container of a pebble-ready event,
// the storage pool of a storage event, the action name of an action.
func (e Event) Prefix() string {
	prefix, _ := hooks.Classify(e.Name)
	return prefix
}

// Validate performs the shape checks that need neither metadata nor
// state: the name agrees with the kind and the payload the kind needs
// is present.
func (e Event) Validate() error {
	if e.Name == "" {
		return errors.NotValidf("event without name")
	}
	if strings.ContainsAny(e.Name, " /") {
		return errors.NotValidf("event name %q", e.Name)
	}
	prefix, kind := hooks.Classify(e.Name)
	if kind != e.Kind {
		return errors.NotValidf("event %q tagged %q", e.Name, e.Kind)
	}
	switch {
	case e.Kind.IsRelation():
		if prefix == "" {
			return errors.NotValidf("relation event %q without endpoint prefix", e.Name)
		}
		if e.RelationID == 0 {
			return errors.NotValidf("relation event %q without relation id", e.Name)
		}
	case e.Kind == hooks.PebbleReady:
		if e.ContainerName == "" {
			return errors.NotValidf("workload event %q without container", e.Name)
		}
	case e.Kind.IsSecret():
		if e.SecretID == "" {
			return errors.NotValidf("secret event %q without secret id", e.Name)
		}
	case e.Kind.IsStorage():
		if e.StorageName == "" {
			return errors.NotValidf("storage event %q without storage name", e.Name)
		}
	case e.Kind == hooks.Action:
		if e.ActionName == "" {
			return errors.NotValidf("action event %q without action name", e.Name)
		}
	}
	return nil
}
