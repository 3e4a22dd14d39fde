// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"sort"
	"sync/atomic"

	"github.com/juju/errors"
)

// DefaultUnitDatabag returns the databag juju seeds every unit databag
// with: the unit's network identity.
func DefaultUnitDatabag() map[string]string {
	return map[string]string{
		"egress-subnets":  defaultAddress + "/24",
		"ingress-address": defaultAddress,
		"private-address": defaultAddress,
	}
}

var relationIDCounter int64

// NextRelationID returns a fresh relation id. Relation constructors call
// it when no explicit id is given, so every new relation gets a unique
// one; override the id in the args when a test needs a specific value.
func NextRelationID() int {
	return int(atomic.AddInt64(&relationIDCounter, 1))
}

// Relation is an integration the charm under test participates in. The
// three variants are RegularRelation, PeerRelation and
// SubordinateRelation; a variant's shape must agree with the declared
// role and scope of its endpoint or the consistency checker rejects the
// state.
type Relation interface {
	// RelationID returns the integration's unique id.
	RelationID() int

	// EndpointName returns the local endpoint name, matching a relation
	// declared in the charm metadata.
	EndpointName() string

	// InterfaceName returns the interface name of the endpoint.
	InterfaceName() string

	// LocalUnitBag returns this unit's databag. Live in a working copy.
	LocalUnitBag() map[string]string

	// LocalAppBag returns this application's databag.
	LocalAppBag() map[string]string

	// RemoteAppName returns the application on the other side. Peer
	// relations answer with the local application name.
	RemoteAppName(localApp string) string

	// RemoteUnitIDs returns the ids of the units on the other side, in
	// ascending order.
	RemoteUnitIDs() []int

	// RemoteUnitBag returns the databag of the given remote unit.
	RemoteUnitBag(unitID int) (map[string]string, error)

	// RemoteAppBag returns the remote application databag. Peer
	// relations answer with the local application databag.
	RemoteAppBag() map[string]string

	// CopyRelation returns a deep copy of the relation.
	CopyRelation() Relation
}

// RelationBase holds the fields common to every relation variant.
type RelationBase struct {
	Endpoint      string
	Interface     string
	ID            int
	LocalUnitData map[string]string
	LocalAppData  map[string]string
}

// RelationID is part of the Relation interface.
func (r *RelationBase) RelationID() int { return r.ID }

// EndpointName is part of the Relation interface.
func (r *RelationBase) EndpointName() string { return r.Endpoint }

// InterfaceName is part of the Relation interface.
func (r *RelationBase) InterfaceName() string { return r.Interface }

// LocalUnitBag is part of the Relation interface.
func (r *RelationBase) LocalUnitBag() map[string]string { return r.LocalUnitData }

// LocalAppBag is part of the Relation interface.
func (r *RelationBase) LocalAppBag() map[string]string { return r.LocalAppData }

func (r RelationBase) copyBase() RelationBase {
	r.LocalUnitData = copyBag(r.LocalUnitData)
	r.LocalAppData = copyBag(r.LocalAppData)
	return r
}

func (r *RelationBase) fillDefaults() {
	if r.ID == 0 {
		r.ID = NextRelationID()
	}
	if r.LocalUnitData == nil {
		r.LocalUnitData = DefaultUnitDatabag()
	}
	if r.LocalAppData == nil {
		r.LocalAppData = map[string]string{}
	}
}

// RegularRelation is an integration with another application.
type RegularRelation struct {
	RelationBase
	RemoteApp       string
	RemoteAppData   map[string]string
	RemoteUnitsData map[int]map[string]string
}

// RegularRelationArgs holds the arguments for NewRelation.
type RegularRelationArgs struct {
	Endpoint      string
	Interface     string
	ID            int
	LocalUnitData map[string]string
	LocalAppData  map[string]string
	RemoteApp     string
	RemoteAppData map[string]string
	// RemoteUnitsData maps remote unit ids to their databags. When nil a
	// single remote unit 0 with the default databag is assumed.
	RemoteUnitsData map[int]map[string]string
}

// NewRelation returns a regular relation built from the given arguments.
func NewRelation(args RegularRelationArgs) *RegularRelation {
	rel := &RegularRelation{
		RelationBase: RelationBase{
			Endpoint:      args.Endpoint,
			Interface:     args.Interface,
			ID:            args.ID,
			LocalUnitData: args.LocalUnitData,
			LocalAppData:  args.LocalAppData,
		},
		RemoteApp:       args.RemoteApp,
		RemoteAppData:   args.RemoteAppData,
		RemoteUnitsData: args.RemoteUnitsData,
	}
	rel.fillDefaults()
	if rel.RemoteApp == "" {
		rel.RemoteApp = "remote"
	}
	if rel.RemoteAppData == nil {
		rel.RemoteAppData = map[string]string{}
	}
	if rel.RemoteUnitsData == nil {
		rel.RemoteUnitsData = map[int]map[string]string{0: DefaultUnitDatabag()}
	}
	return rel
}

// RemoteAppName is part of the Relation interface.
func (r *RegularRelation) RemoteAppName(string) string { return r.RemoteApp }

// RemoteUnitIDs is part of the Relation interface.
func (r *RegularRelation) RemoteUnitIDs() []int {
	return sortedUnitIDs(r.RemoteUnitsData)
}

// RemoteUnitBag is part of the Relation interface.
func (r *RegularRelation) RemoteUnitBag(unitID int) (map[string]string, error) {
	bag, ok := r.RemoteUnitsData[unitID]
	if !ok {
		return nil, errors.NotFoundf("unit %s/%d in relation %d", r.RemoteApp, unitID, r.ID)
	}
	return bag, nil
}

// RemoteAppBag is part of the Relation interface.
func (r *RegularRelation) RemoteAppBag() map[string]string { return r.RemoteAppData }

// CopyRelation is part of the Relation interface.
func (r *RegularRelation) CopyRelation() Relation {
	out := *r
	out.RelationBase = r.copyBase()
	out.RemoteAppData = copyBag(r.RemoteAppData)
	out.RemoteUnitsData = copyUnitBags(r.RemoteUnitsData)
	return &out
}

// PeerRelation is a relation shared between the units of the charm's own
// application. The local unit's own id must never appear among the peer
// ids.
type PeerRelation struct {
	RelationBase
	PeersData map[int]map[string]string
}

// PeerRelationArgs holds the arguments for NewPeerRelation.
type PeerRelationArgs struct {
	Endpoint      string
	Interface     string
	ID            int
	LocalUnitData map[string]string
	LocalAppData  map[string]string
	// PeersData maps peer unit ids to their databags.
	PeersData map[int]map[string]string
}

// NewPeerRelation returns a peer relation built from the given arguments.
func NewPeerRelation(args PeerRelationArgs) *PeerRelation {
	rel := &PeerRelation{
		RelationBase: RelationBase{
			Endpoint:      args.Endpoint,
			Interface:     args.Interface,
			ID:            args.ID,
			LocalUnitData: args.LocalUnitData,
			LocalAppData:  args.LocalAppData,
		},
		PeersData: args.PeersData,
	}
	rel.fillDefaults()
	if rel.PeersData == nil {
		rel.PeersData = map[int]map[string]string{}
	}
	return rel
}

// RemoteAppName is part of the Relation interface.
func (r *PeerRelation) RemoteAppName(localApp string) string { return localApp }

// RemoteUnitIDs is part of the Relation interface.
func (r *PeerRelation) RemoteUnitIDs() []int {
	return sortedUnitIDs(r.PeersData)
}

// RemoteUnitBag is part of the Relation interface.
func (r *PeerRelation) RemoteUnitBag(unitID int) (map[string]string, error) {
	bag, ok := r.PeersData[unitID]
	if !ok {
		return nil, errors.NotFoundf("peer unit %d in relation %d", unitID, r.ID)
	}
	return bag, nil
}

// RemoteAppBag is part of the Relation interface. Peer units share the
// local application databag.
func (r *PeerRelation) RemoteAppBag() map[string]string { return r.LocalAppData }

// CopyRelation is part of the Relation interface.
func (r *PeerRelation) CopyRelation() Relation {
	out := *r
	out.RelationBase = r.copyBase()
	out.PeersData = copyUnitBags(r.PeersData)
	return &out
}

// SubordinateRelation is a container-scoped integration with the one
// principal unit this unit is deployed alongside. Exactly one remote
// unit is representable.
type SubordinateRelation struct {
	RelationBase
	RemoteApp      string
	RemoteUnitID   int
	RemoteAppData  map[string]string
	RemoteUnitData map[string]string
}

// SubordinateRelationArgs holds the arguments for NewSubordinateRelation.
type SubordinateRelationArgs struct {
	Endpoint       string
	Interface      string
	ID             int
	LocalUnitData  map[string]string
	LocalAppData   map[string]string
	RemoteApp      string
	RemoteUnitID   int
	RemoteAppData  map[string]string
	RemoteUnitData map[string]string
}

// NewSubordinateRelation returns a subordinate relation built from the
// given arguments.
func NewSubordinateRelation(args SubordinateRelationArgs) *SubordinateRelation {
	rel := &SubordinateRelation{
		RelationBase: RelationBase{
			Endpoint:      args.Endpoint,
			Interface:     args.Interface,
			ID:            args.ID,
			LocalUnitData: args.LocalUnitData,
			LocalAppData:  args.LocalAppData,
		},
		RemoteApp:      args.RemoteApp,
		RemoteUnitID:   args.RemoteUnitID,
		RemoteAppData:  args.RemoteAppData,
		RemoteUnitData: args.RemoteUnitData,
	}
	rel.fillDefaults()
	if rel.RemoteApp == "" {
		rel.RemoteApp = "remote"
	}
	if rel.RemoteAppData == nil {
		rel.RemoteAppData = map[string]string{}
	}
	if rel.RemoteUnitData == nil {
		rel.RemoteUnitData = DefaultUnitDatabag()
	}
	return rel
}

// RemoteAppName is part of the Relation interface.
func (r *SubordinateRelation) RemoteAppName(string) string { return r.RemoteApp }

// RemoteUnitIDs is part of the Relation interface.
func (r *SubordinateRelation) RemoteUnitIDs() []int { return []int{r.RemoteUnitID} }

// RemoteUnitBag is part of the Relation interface.
func (r *SubordinateRelation) RemoteUnitBag(unitID int) (map[string]string, error) {
	if unitID != r.RemoteUnitID {
		return nil, errors.NotFoundf(
			"unit %s/%d in subordinate relation %d (principal is %s/%d)",
			r.RemoteApp, unitID, r.ID, r.RemoteApp, r.RemoteUnitID)
	}
	return r.RemoteUnitData, nil
}

// RemoteAppBag is part of the Relation interface.
func (r *SubordinateRelation) RemoteAppBag() map[string]string { return r.RemoteAppData }

// CopyRelation is part of the Relation interface.
func (r *SubordinateRelation) CopyRelation() Relation {
	out := *r
	out.RelationBase = r.copyBase()
	out.RemoteAppData = copyBag(r.RemoteAppData)
	out.RemoteUnitData = copyBag(r.RemoteUnitData)
	return &out
}

func sortedUnitIDs(bags map[int]map[string]string) []int {
	ids := make([]int, 0, len(bags))
	for id := range bags {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func copyBag(bag map[string]string) map[string]string {
	if bag == nil {
		return nil
	}
	out := make(map[string]string, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out
}

func copyUnitBags(bags map[int]map[string]string) map[int]map[string]string {
	if bags == nil {
		return nil
	}
	out := make(map[int]map[string]string, len(bags))
	for id, bag := range bags {
		out[id] = copyBag(bag)
	}
	return out
}
