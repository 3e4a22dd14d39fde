// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import "fmt"

// Storage is one attached storage instance. Name must match a storage
// declaration in the charm metadata; Index distinguishes instances of
// the same pool.
type Storage struct {
	Name  string
	Index int
}

// FullID returns the juju storage id, e.g. "data/0".
func (s Storage) FullID() string {
	return fmt.Sprintf("%s/%d", s.Name, s.Index)
}

// Location returns the mount point the harness models for the instance.
func (s Storage) Location() string {
	return fmt.Sprintf("/var/lib/juju/storage/%s/%d", s.Name, s.Index)
}

// RequestedStorage is a pending storage-add request recorded by the
// charm during a run. It only becomes a Storage once the orchestrator
// provisions it, which is outside a single scenario run.
type RequestedStorage struct {
	Name  string
	Count int
}
