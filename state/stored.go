// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

// StoredState is one opaque key/value store persisted by the framework
// on behalf of a charm object. Owner identifies the framework path of
// the owning object, Name the store's name within it.
type StoredState struct {
	Owner   string
	Name    string
	Content map[string]string
}

// Key returns the identity of the store, unique within a State.
func (s StoredState) Key() string {
	return s.Owner + "/" + s.Name
}

// Copy returns a deep copy of the stored state.
func (s StoredState) Copy() StoredState {
	out := s
	out.Content = copyBag(s.Content)
	return out
}
