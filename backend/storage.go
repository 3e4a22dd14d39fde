// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backend

import (
	"sort"

	"github.com/juju/errors"

	"github.com/juju/scenario/state"
)

// StorageList returns the attached instance ids of the named storage,
// e.g. ["data/0", "data/1"].
func (b *Backend) StorageList(name string) ([]string, error) {
	if _, ok := b.meta.Storage[name]; !ok {
		return nil, errors.NotFoundf("storage %q", name)
	}
	var out []string
	for _, st := range b.st.GetStorages(name) {
		out = append(out, st.FullID())
	}
	sort.Strings(out)
	return out, nil
}

// StorageGet returns the mount location of an attached storage
// instance.
func (b *Backend) StorageGet(name string, index int) (string, error) {
	st, err := b.st.GetStorage(name, index)
	if err != nil {
		return "", errors.Trace(err)
	}
	return st.Location(), nil
}

// StorageAdd records a request for count additional instances of the
// named storage. Provisioning happens outside the run; the request is
// observable on the backend afterwards.
func (b *Backend) StorageAdd(name string, count int) error {
	if _, ok := b.meta.Storage[name]; !ok {
		return errors.NotFoundf("storage %q", name)
	}
	if count < 1 {
		return errors.NotValidf("storage count %d", count)
	}
	b.requestedStorages = append(b.requestedStorages, state.RequestedStorage{
		Name:  name,
		Count: count,
	})
	return nil
}

// StoredStateGet returns the content of the named stored-state bucket.
func (b *Backend) StoredStateGet(owner, name string) (map[string]string, error) {
	ss, err := b.st.GetStoredState(owner, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return copyOf(ss.Content), nil
}

// StoredStateSet writes a value into the named stored-state bucket,
// creating the bucket if needed.
func (b *Backend) StoredStateSet(owner, name, key, value string) error {
	ss, err := b.st.GetStoredState(owner, name)
	if errors.IsNotFound(err) {
		b.st.StoredState = append(b.st.StoredState, state.StoredState{
			Owner:   owner,
			Name:    name,
			Content: map[string]string{key: value},
		})
		return nil
	} else if err != nil {
		return errors.Trace(err)
	}
	if ss.Content == nil {
		ss.Content = make(map[string]string)
	}
	ss.Content[key] = value
	return nil
}

// StoredStateDelete removes a key from the named stored-state bucket.
// Deleting a missing key is a no-op.
func (b *Backend) StoredStateDelete(owner, name, key string) error {
	ss, err := b.st.GetStoredState(owner, name)
	if errors.IsNotFound(err) {
		return nil
	} else if err != nil {
		return errors.Trace(err)
	}
	delete(ss.Content, key)
	return nil
}
