// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hooks provides the vocabulary of hook kinds a charm can be
// dispatched with, and helpers to classify raw event names into kinds.
package hooks

import (
	"strings"
)

// Kind enumerates the different kinds of hooks that exist.
type Kind string

// String returns a string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

const (
	// Lifecycle hooks.
	Install               Kind = "install"
	Start                 Kind = "start"
	Stop                  Kind = "stop"
	Remove                Kind = "remove"
	ConfigChanged         Kind = "config-changed"
	UpdateStatus          Kind = "update-status"
	UpgradeCharm          Kind = "upgrade-charm"
	CollectMetrics        Kind = "collect-metrics"
	LeaderElected         Kind = "leader-elected"
	LeaderSettingsChanged Kind = "leader-settings-changed"

	// Relation hooks. The corresponding event names are prefixed with
	// the endpoint name, e.g. "db-relation-changed".
	RelationCreated  Kind = "relation-created"
	RelationJoined   Kind = "relation-joined"
	RelationChanged  Kind = "relation-changed"
	RelationDeparted Kind = "relation-departed"
	RelationBroken   Kind = "relation-broken"

	// Storage hooks, prefixed with the storage name.
	StorageAttached  Kind = "storage-attached"
	StorageDetaching Kind = "storage-detaching"

	// Secret hooks.
	SecretChanged Kind = "secret-changed"
	SecretRotate  Kind = "secret-rotate"
	SecretExpired Kind = "secret-expired"
	SecretRemove  Kind = "secret-remove"

	// Workload (container) hooks, prefixed with the container name.
	PebbleReady Kind = "pebble-ready"

	// Action invocations, suffixed to the action name.
	Action Kind = "action"

	// Framework lifecycle events. These are emitted by the dispatcher
	// itself at the end of every run; they never come in from outside.
	PreCommit Kind = "pre-commit"
	Commit    Kind = "commit"

	// Custom covers events raised synchronously by the business logic
	// itself; no assumptions can be made about their names.
	Custom Kind = "custom"
)

// IsRelation reports whether the kind is a relation hook kind.
func (k Kind) IsRelation() bool {
	switch k {
	case RelationCreated, RelationJoined, RelationChanged, RelationDeparted, RelationBroken:
		return true
	}
	return false
}

// IsStorage reports whether the kind is a storage hook kind.
func (k Kind) IsStorage() bool {
	return k == StorageAttached || k == StorageDetaching
}

// IsSecret reports whether the kind is a secret hook kind.
func (k Kind) IsSecret() bool {
	switch k {
	case SecretChanged, SecretRotate, SecretExpired, SecretRemove:
		return true
	}
	return false
}

// IsSecretOwner reports whether the kind is a secret hook kind that only
// the owner of a secret will ever be dispatched with.
func (k Kind) IsSecretOwner() bool {
	return k == SecretRotate || k == SecretExpired || k == SecretRemove
}

// IsWorkload reports whether the kind is a workload (container) hook kind.
func (k Kind) IsWorkload() bool {
	return k == PebbleReady
}

// IsAction reports whether the kind is an action invocation.
func (k Kind) IsAction() bool {
	return k == Action
}

// IsFramework reports whether the kind is a framework-internal lifecycle
// event, excluded from emission traces by default.
func (k Kind) IsFramework() bool {
	return k == PreCommit || k == Commit
}

// RequiresRemoteUnit reports whether a relation event of this kind always
// concerns a specific remote unit.
func (k Kind) RequiresRemoteUnit() bool {
	switch k {
	case RelationJoined, RelationChanged, RelationDeparted:
		return true
	}
	return false
}

// lifecycleKinds are the hooks whose event name is the kind itself.
var lifecycleKinds = map[Kind]bool{
	Install:               true,
	Start:                 true,
	Stop:                  true,
	Remove:                true,
	ConfigChanged:         true,
	UpdateStatus:          true,
	UpgradeCharm:          true,
	CollectMetrics:        true,
	LeaderElected:         true,
	LeaderSettingsChanged: true,
	SecretChanged:         true,
	SecretRotate:          true,
	SecretExpired:         true,
	SecretRemove:          true,
	PreCommit:             true,
	Commit:                true,
}

// prefixedKinds are the hooks whose event name is "<entity>-<kind>".
var prefixedKinds = []Kind{
	RelationCreated,
	RelationJoined,
	RelationChanged,
	RelationDeparted,
	RelationBroken,
	StorageAttached,
	StorageDetaching,
	PebbleReady,
}

const actionSuffix = "-action"

// Classify splits a raw event name into the entity prefix (endpoint,
// container, storage or action name; empty for lifecycle hooks) and the
// hook kind. Names that match no known shape classify as Custom.
func Classify(name string) (prefix string, kind Kind) {
	if lifecycleKinds[Kind(name)] {
		return "", Kind(name)
	}
	for _, k := range prefixedKinds {
		suffix := "-" + string(k)
		if rest, ok := strings.CutSuffix(name, suffix); ok && rest != "" {
			return rest, k
		}
	}
	if rest, ok := strings.CutSuffix(name, actionSuffix); ok && rest != "" {
		return rest, Action
	}
	return "", Custom
}
