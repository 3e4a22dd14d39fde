// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

// The With/Without builders below express state transitions as new
// values. Each one deep-copies the receiver, so chained calls never
// alias the original state's collections.

// WithRelation returns a copy of the state with the given relation
// added, replacing any existing relation with the same id.
func (s State) WithRelation(rel Relation) State {
	out := s.Copy()
	for i, existing := range out.Relations {
		if existing.RelationID() == rel.RelationID() {
			out.Relations[i] = rel.CopyRelation()
			return out
		}
	}
	out.Relations = append(out.Relations, rel.CopyRelation())
	return out
}

// WithoutRelation returns a copy of the state with the identified
// relation removed. Removing an absent id is a no-op.
func (s State) WithoutRelation(id int) State {
	out := s.Copy()
	for i, rel := range out.Relations {
		if rel.RelationID() == id {
			out.Relations = append(out.Relations[:i], out.Relations[i+1:]...)
			break
		}
	}
	return out
}

// WithContainer returns a copy of the state with the given container
// added, replacing any existing container of the same name.
func (s State) WithContainer(ctr Container) State {
	out := s.Copy()
	for i, existing := range out.Containers {
		if existing.Name == ctr.Name {
			out.Containers[i] = ctr.Copy()
			return out
		}
	}
	out.Containers = append(out.Containers, ctr.Copy())
	return out
}

// WithSecret returns a copy of the state with the given secret added,
// replacing any existing secret with the same id.
func (s State) WithSecret(sec Secret) State {
	out := s.Copy()
	for i, existing := range out.Secrets {
		if existing.ID == sec.ID {
			out.Secrets[i] = sec.Copy()
			return out
		}
	}
	out.Secrets = append(out.Secrets, sec.Copy())
	return out
}

// WithoutSecret returns a copy of the state with the identified secret
// removed. Removing an absent id is a no-op.
func (s State) WithoutSecret(id string) State {
	out := s.Copy()
	for i, sec := range out.Secrets {
		if sec.ID == id {
			out.Secrets = append(out.Secrets[:i], out.Secrets[i+1:]...)
			break
		}
	}
	return out
}

// WithStorage returns a copy of the state with the given storage
// instance attached. Attaching an already-attached instance is a
// no-op.
func (s State) WithStorage(st Storage) State {
	out := s.Copy()
	for _, existing := range out.Storages {
		if existing.Name == st.Name && existing.Index == st.Index {
			return out
		}
	}
	out.Storages = append(out.Storages, st)
	return out
}

// WithoutStorage returns a copy of the state with the identified
// storage instance detached.
func (s State) WithoutStorage(name string, index int) State {
	out := s.Copy()
	for i, st := range out.Storages {
		if st.Name == name && st.Index == index {
			out.Storages = append(out.Storages[:i], out.Storages[i+1:]...)
			break
		}
	}
	return out
}

// WithLeadership returns a copy of the state with leadership set as
// given.
func (s State) WithLeadership(leader bool) State {
	out := s.Copy()
	out.Leader = leader
	return out
}

// WithConfig returns a copy of the state with the given config values
// merged over the existing ones.
func (s State) WithConfig(values map[string]interface{}) State {
	out := s.Copy()
	if out.Config == nil {
		out.Config = make(map[string]interface{}, len(values))
	}
	for k, v := range values {
		out.Config[k] = v
	}
	return out
}
