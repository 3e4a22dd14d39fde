// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// RelationIDs returns the ids of every relation on the given endpoint.
func (b *Backend) RelationIDs(endpoint string) ([]int, error) {
	if _, ok := b.meta.Endpoint(endpoint); !ok {
		return nil, errors.NotFoundf("relation endpoint %q", endpoint)
	}
	var ids []int
	for _, rel := range b.st.Relations {
		if rel.EndpointName() == endpoint {
			ids = append(ids, rel.RelationID())
		}
	}
	return ids, nil
}

// RelationList returns the names of the remote units in the relation,
// in ascending unit id order.
func (b *Backend) RelationList(relationID int) ([]string, error) {
	rel, err := b.st.GetRelationByID(relationID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	remoteApp := rel.RemoteAppName(b.st.AppName())
	var units []string
	for _, id := range rel.RemoteUnitIDs() {
		units = append(units, fmt.Sprintf("%s/%d", remoteApp, id))
	}
	return units, nil
}

// RelationRemoteAppName returns the name of the application on the
// other side of the relation.
func (b *Backend) RelationRemoteAppName(relationID int) (string, error) {
	rel, err := b.st.GetRelationByID(relationID)
	if err != nil {
		return "", errors.Trace(err)
	}
	return rel.RemoteAppName(b.st.AppName()), nil
}

// RelationGet reads a databag of the relation. member is a unit name
// (theirs or ours) or an application name; app selects the application
// databag of the named side.
func (b *Backend) RelationGet(relationID int, member string, app bool) (map[string]string, error) {
	rel, err := b.st.GetRelationByID(relationID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	localApp := b.st.AppName()
	remoteApp := rel.RemoteAppName(localApp)
	if app {
		switch member {
		case localApp:
			return copyOf(rel.LocalAppBag()), nil
		case remoteApp:
			return copyOf(rel.RemoteAppBag()), nil
		}
		return nil, errors.NotFoundf("application %q in relation %d", member, relationID)
	}
	if member == b.st.UnitName() {
		return copyOf(rel.LocalUnitBag()), nil
	}
	unitApp, unitID, err := parseUnitName(member)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if unitApp != remoteApp {
		return nil, errors.NotFoundf("unit %q in relation %d", member, relationID)
	}
	bag, err := rel.RemoteUnitBag(unitID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return copyOf(bag), nil
}

func parseUnitName(name string) (string, int, error) {
	if !names.IsValidUnit(name) {
		return "", 0, errors.NotValidf("unit name %q", name)
	}
	i := strings.LastIndex(name, "/")
	id, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return "", 0, errors.NotValidf("unit name %q", name)
	}
	return name[:i], id, nil
}

// RelationSet writes values into a local databag of the relation. Only
// the local unit bag and, for the leader, the local application bag
// are writable; remote bags never are. An empty value deletes the key.
func (b *Backend) RelationSet(relationID int, app bool, values map[string]string) error {
	rel, err := b.st.GetRelationByID(relationID)
	if err != nil {
		return errors.Trace(err)
	}
	var bag map[string]string
	if app {
		if !b.st.Leader {
			return errors.Forbiddenf("%s is not leader and cannot write the application databag of relation %d", b.st.UnitName(), relationID)
		}
		bag = rel.LocalAppBag()
	} else {
		bag = rel.LocalUnitBag()
	}
	for k, v := range values {
		if v == "" {
			delete(bag, k)
			continue
		}
		bag[k] = v
	}
	return nil
}

func copyOf(bag map[string]string) map[string]string {
	out := make(map[string]string, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out
}
