// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backend

import (
	"time"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/scenario/state"
)

// SecretAddArgs holds the arguments for SecretAdd.
type SecretAddArgs struct {
	Contents    map[string]string
	Label       string
	Description string
	Rotate      state.RotatePolicy
	Expire      *time.Time

	// Owner defaults to OwnerUnit. OwnerApp requires leadership.
	Owner state.SecretOwner
}

func (b *Backend) findSecret(id, label string) (*state.Secret, error) {
	if id != "" {
		return b.st.GetSecret(id)
	}
	return b.st.GetSecretByLabel(label)
}

// canRead reports whether the charm may read the secret at all.
func (b *Backend) canRead(sec *state.Secret) bool {
	if sec.Owner != state.OwnerNone {
		return true
	}
	return sec.GrantedTo(b.st.AppName()) || sec.GrantedTo(b.st.UnitName())
}

// canManage returns an error unless the charm may manage the secret.
func (b *Backend) canManage(sec *state.Secret) error {
	switch sec.Owner {
	case state.OwnerUnit:
		return nil
	case state.OwnerApp:
		if !b.st.Leader {
			return errors.Forbiddenf("%s is not leader and cannot manage application-owned secret %q", b.st.UnitName(), sec.ID)
		}
		return nil
	}
	return errors.Forbiddenf("%s does not own secret %q", b.st.UnitName(), sec.ID)
}

// SecretGet returns a revision of the secret's content, looked up by id
// or label. peek reads the latest revision without tracking it;
// refresh reads the latest revision and starts tracking it.
func (b *Backend) SecretGet(id, label string, peek, refresh bool) (map[string]string, error) {
	sec, err := b.findSecret(id, label)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !b.canRead(sec) {
		return nil, errors.Forbiddenf("%s has no access to secret %q", b.st.UnitName(), sec.ID)
	}
	rev := sec.CurrentRevision()
	if peek || refresh {
		rev = sec.LatestRevision()
	}
	if refresh {
		sec.TrackedRevision = sec.LatestRevision()
	}
	contents, ok := sec.Contents[rev]
	if !ok {
		return nil, errors.NotFoundf("revision %d of secret %q", rev, sec.ID)
	}
	out := make(map[string]string, len(contents))
	for k, v := range contents {
		out[k] = v
	}
	return out, nil
}

// SecretInfo returns the metadata of a secret the charm owns.
func (b *Backend) SecretInfo(id string) (state.Secret, error) {
	sec, err := b.st.GetSecret(id)
	if err != nil {
		return state.Secret{}, errors.Trace(err)
	}
	if err := b.canManage(sec); err != nil {
		return state.Secret{}, errors.Trace(err)
	}
	info := sec.Copy()
	info.Contents = nil
	return info, nil
}

// SecretAdd creates a new secret owned by this charm and returns its
// id.
func (b *Backend) SecretAdd(args SecretAddArgs) (string, error) {
	owner := args.Owner
	if owner == "" {
		owner = state.OwnerUnit
	}
	if owner == state.OwnerApp && !b.st.Leader {
		return "", errors.Forbiddenf("%s is not leader and cannot add an application-owned secret", b.st.UnitName())
	}
	if len(args.Contents) == 0 {
		return "", errors.NotValidf("secret without content")
	}
	sec := state.Secret{
		ID:          state.NewSecretID(),
		Label:       args.Label,
		Description: args.Description,
		Contents:    map[int]map[string]string{1: copyOf(args.Contents)},
		Owner:       owner,
		Rotate:      args.Rotate,
		ExpireTime:  args.Expire,
	}
	b.st.Secrets = append(b.st.Secrets, sec)
	return sec.ID, nil
}

// SecretSet adds a new revision with the given content to a secret the
// charm owns.
func (b *Backend) SecretSet(id string, contents map[string]string) error {
	sec, err := b.st.GetSecret(id)
	if err != nil {
		return errors.Trace(err)
	}
	if err := b.canManage(sec); err != nil {
		return errors.Trace(err)
	}
	if len(contents) == 0 {
		return errors.NotValidf("secret revision without content")
	}
	if sec.Contents == nil {
		sec.Contents = make(map[int]map[string]string)
	}
	sec.Contents[sec.LatestRevision()+1] = copyOf(contents)
	return nil
}

// SecretGrant grants read access to the remote side of the given
// relation. When unit is non-empty only that remote unit is granted.
func (b *Backend) SecretGrant(id string, relationID int, unit string) error {
	sec, err := b.st.GetSecret(id)
	if err != nil {
		return errors.Trace(err)
	}
	if err := b.canManage(sec); err != nil {
		return errors.Trace(err)
	}
	rel, err := b.st.GetRelationByID(relationID)
	if err != nil {
		return errors.Trace(err)
	}
	grantee := rel.RemoteAppName(b.st.AppName())
	if unit != "" {
		grantee = unit
	}
	if sec.Grants == nil {
		sec.Grants = make(map[int]set.Strings)
	}
	if sec.Grants[relationID].IsEmpty() {
		sec.Grants[relationID] = set.NewStrings()
	}
	sec.Grants[relationID].Add(grantee)
	return nil
}

// SecretRevoke withdraws access previously granted over the given
// relation.
func (b *Backend) SecretRevoke(id string, relationID int, unit string) error {
	sec, err := b.st.GetSecret(id)
	if err != nil {
		return errors.Trace(err)
	}
	if err := b.canManage(sec); err != nil {
		return errors.Trace(err)
	}
	grantees, ok := sec.Grants[relationID]
	if !ok {
		return nil
	}
	if unit != "" {
		grantees.Remove(unit)
	} else {
		rel, err := b.st.GetRelationByID(relationID)
		if err != nil {
			return errors.Trace(err)
		}
		grantees.Remove(rel.RemoteAppName(b.st.AppName()))
	}
	if grantees.IsEmpty() {
		delete(sec.Grants, relationID)
	}
	return nil
}

// SecretRemove removes a whole secret the charm owns, or a single
// revision of it when revision is non-zero.
func (b *Backend) SecretRemove(id string, revision int) error {
	sec, err := b.st.GetSecret(id)
	if err != nil {
		return errors.Trace(err)
	}
	if err := b.canManage(sec); err != nil {
		return errors.Trace(err)
	}
	if revision != 0 {
		if _, ok := sec.Contents[revision]; !ok {
			return errors.NotFoundf("revision %d of secret %q", revision, id)
		}
		delete(sec.Contents, revision)
		return nil
	}
	for i := range b.st.Secrets {
		if b.st.Secrets[i].ID == id {
			b.st.Secrets = append(b.st.Secrets[:i], b.st.Secrets[i+1:]...)
			return nil
		}
	}
	return nil
}
