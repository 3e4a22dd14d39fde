// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package checker_test

import (
	"strings"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/scenario/charm"
	"github.com/juju/scenario/checker"
	"github.com/juju/scenario/event"
	"github.com/juju/scenario/state"
)

type checkerSuite struct {
	meta    *charm.Meta
	config  *charm.Config
	actions *charm.Actions
}

var _ = gc.Suite(&checkerSuite{})

func (s *checkerSuite) SetUpSuite(c *gc.C) {
	var err error
	s.meta, err = charm.ReadMeta(strings.NewReader(`
name: wordpress
requires:
  db: mysql
  logging:
    interface: logging-dir
    scope: container
peers:
  cluster: ha
extra-bindings:
  metrics:
storage:
  data:
    type: filesystem
containers:
  workload:
    resource: workload-image
resources:
  workload-image:
    type: oci-image
`))
	c.Assert(err, jc.ErrorIsNil)
	s.config, err = charm.ReadConfig(strings.NewReader(`
options:
  title:
    type: string
  workers:
    type: int
`))
	c.Assert(err, jc.ErrorIsNil)
	s.actions, err = charm.ReadActions(strings.NewReader(`
do-backup:
  params:
    depth:
      type: integer
`))
	c.Assert(err, jc.ErrorIsNil)
}

func (s *checkerSuite) check(ev event.Event, st state.State) []checker.Violation {
	return checker.Check(checker.Params{
		Meta:    s.meta,
		Config:  s.config,
		Actions: s.actions,
		Event:   ev,
		State:   st,
	})
}

func codes(violations []checker.Violation) []string {
	var out []string
	for _, v := range violations {
		out = append(out, v.Code)
	}
	return out
}

func (s *checkerSuite) TestCleanStatePasses(c *gc.C) {
	c.Check(s.check(event.Start(), state.State{App: "wordpress"}), gc.HasLen, 0)
}

func (s *checkerSuite) TestCheckIsDeterministic(c *gc.C) {
	st := state.State{App: "wordpress", Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{Endpoint: "nonsense", Interface: "x", ID: 1}),
	}}
	first := s.check(event.Start(), st)
	second := s.check(event.Start(), st)
	c.Check(first, jc.DeepEquals, second)
	c.Check(first, gc.Not(gc.HasLen), 0)
}

func (s *checkerSuite) TestUndeclaredEndpoint(c *gc.C) {
	st := state.State{App: "wordpress", Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{Endpoint: "nonsense", Interface: "x", ID: 1}),
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"relation-endpoint-unknown"})
}

func (s *checkerSuite) TestVariantMismatch(c *gc.C) {
	// A regular relation on a peer endpoint.
	st := state.State{App: "wordpress", Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{Endpoint: "cluster", Interface: "ha", ID: 1}),
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"relation-variant-mismatch"})

	// A peer relation on a regular endpoint.
	st = state.State{App: "wordpress", Relations: []state.Relation{
		state.NewPeerRelation(state.PeerRelationArgs{Endpoint: "db", Interface: "mysql", ID: 1}),
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"relation-variant-mismatch"})

	// A regular relation on a container-scoped endpoint.
	st = state.State{App: "wordpress", Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{Endpoint: "logging", Interface: "logging-dir", ID: 1}),
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"relation-variant-mismatch"})
}

func (s *checkerSuite) TestPeerContainsSelf(c *gc.C) {
	st := state.State{App: "wordpress", Unit: 1, Relations: []state.Relation{
		state.NewPeerRelation(state.PeerRelationArgs{
			Endpoint:  "cluster",
			Interface: "ha",
			ID:        1,
			PeersData: map[int]map[string]string{1: {}},
		}),
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"peer-contains-self"})
}

func (s *checkerSuite) TestRegularRelationContainsSelf(c *gc.C) {
	// A relation back to our own application listing this very unit as
	// a remote unit.
	st := state.State{App: "wordpress", Unit: 0, Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{
			Endpoint:        "db",
			Interface:       "mysql",
			ID:              1,
			RemoteApp:       "wordpress",
			RemoteUnitsData: map[int]map[string]string{0: {}},
		}),
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"relation-contains-self"})

	// Another unit of our own application is fine.
	st = state.State{App: "wordpress", Unit: 0, Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{
			Endpoint:        "db",
			Interface:       "mysql",
			ID:              1,
			RemoteApp:       "wordpress",
			RemoteUnitsData: map[int]map[string]string{1: {}},
		}),
	}}
	c.Check(s.check(event.Start(), st), gc.HasLen, 0)
}

func (s *checkerSuite) TestDuplicateRelationID(c *gc.C) {
	st := state.State{App: "wordpress", Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{Endpoint: "db", Interface: "mysql", ID: 7}),
		state.NewRelation(state.RegularRelationArgs{Endpoint: "db", Interface: "mysql", ID: 7}),
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"relation-id-duplicate"})
}

func (s *checkerSuite) TestRelationEventChecks(c *gc.C) {
	rel := state.NewRelation(state.RegularRelationArgs{Endpoint: "db", Interface: "mysql", ID: 3})
	st := state.State{App: "wordpress", Relations: []state.Relation{rel}}

	c.Check(s.check(event.RelationChanged("db", 3), st), gc.HasLen, 0)

	// Unknown relation id.
	c.Check(codes(s.check(event.RelationChanged("db", 99), st)),
		jc.DeepEquals, []string{"relation-unknown"})

	// Event prefix does not match the relation's endpoint.
	c.Check(codes(s.check(event.RelationChanged("cluster", 3), st)),
		jc.DeepEquals, []string{"relation-endpoint-mismatch"})

	// Remote unit override that is not a member.
	c.Check(codes(s.check(event.RelationChanged("db", 3).WithRemoteUnit(9), st)),
		jc.DeepEquals, []string{"relation-remote-unit-unknown"})

	// Departing unit that is not a member.
	c.Check(codes(s.check(event.RelationDeparted("db", 3, 9), st)),
		jc.DeepEquals, []string{"relation-departing-unit-unknown"})
}

func (s *checkerSuite) TestContainerChecks(c *gc.C) {
	st := state.State{App: "wordpress", Containers: []state.Container{{Name: "workload", CanConnect: true}}}
	c.Check(s.check(event.PebbleReady("workload"), st), gc.HasLen, 0)

	// Container not declared in metadata.
	st = state.State{App: "wordpress", Containers: []state.Container{{Name: "sidecar"}}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"container-unknown"})

	// Event container missing from state.
	st = state.State{App: "wordpress"}
	c.Check(codes(s.check(event.PebbleReady("workload"), st)),
		jc.DeepEquals, []string{"container-not-present"})

	// Duplicate container names.
	st = state.State{App: "wordpress", Containers: []state.Container{{Name: "workload"}, {Name: "workload"}}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"container-name-duplicate"})
}

func (s *checkerSuite) TestStorageChecks(c *gc.C) {
	st := state.State{App: "wordpress", Storages: []state.Storage{{Name: "data", Index: 0}}}
	c.Check(s.check(event.StorageAttached("data", 0), st), gc.HasLen, 0)

	st = state.State{App: "wordpress", Storages: []state.Storage{{Name: "scratch"}}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"storage-unknown"})

	st = state.State{App: "wordpress"}
	c.Check(codes(s.check(event.StorageAttached("data", 0), st)),
		jc.DeepEquals, []string{"storage-not-attached"})

	st = state.State{App: "wordpress", Storages: []state.Storage{{Name: "data"}, {Name: "data"}}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"storage-duplicate"})
}

func (s *checkerSuite) TestSecretChecks(c *gc.C) {
	sec := state.Secret{
		ID:       "secret:abc",
		Owner:    state.OwnerUnit,
		Contents: map[int]map[string]string{1: {"k": "v"}},
	}
	st := state.State{App: "wordpress", Secrets: []state.Secret{sec}}
	c.Check(s.check(event.SecretRotate("secret:abc"), st), gc.HasLen, 0)

	// Unknown secret.
	c.Check(codes(s.check(event.SecretChanged("secret:zzz"), st)),
		jc.DeepEquals, []string{"secret-unknown"})

	// Owner-only event on a secret we do not own.
	unowned := sec
	unowned.Owner = state.OwnerNone
	st2 := state.State{App: "wordpress", Secrets: []state.Secret{unowned}}
	c.Check(codes(s.check(event.SecretRotate("secret:abc"), st2)),
		jc.DeepEquals, []string{"secret-not-owned"})

	// Unknown revision.
	c.Check(codes(s.check(event.SecretExpired("secret:abc", 9), st)),
		jc.DeepEquals, []string{"secret-revision-unknown"})

	// Secrets predate juju 3.0 nowhere.
	old := st
	old.JujuVersion = "2.9.0"
	c.Check(codes(s.check(event.Start(), old)), jc.DeepEquals, []string{"secrets-need-juju-3"})
}

func (s *checkerSuite) TestLeaderElectedNeedsLeadership(c *gc.C) {
	c.Check(codes(s.check(event.LeaderElected(), state.State{App: "wordpress"})),
		jc.DeepEquals, []string{"leader-elected-without-leadership"})
	c.Check(s.check(event.LeaderElected(), state.State{App: "wordpress", Leader: true}), gc.HasLen, 0)
}

func (s *checkerSuite) TestConfigChecks(c *gc.C) {
	st := state.State{App: "wordpress", Config: map[string]interface{}{"title": "x", "workers": 3}}
	c.Check(s.check(event.Start(), st), gc.HasLen, 0)

	st.Config = map[string]interface{}{"nonsense": 1}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"config-value-invalid"})

	st.Config = map[string]interface{}{"workers": "lots"}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"config-value-invalid"})
}

func (s *checkerSuite) TestResourceChecks(c *gc.C) {
	st := state.State{App: "wordpress", Resources: map[string]string{"workload-image": "/tmp/img"}}
	c.Check(s.check(event.Start(), st), gc.HasLen, 0)

	st.Resources = map[string]string{"nonsense": "/tmp/x"}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"resource-unknown"})
}

func (s *checkerSuite) TestNetworkChecks(c *gc.C) {
	st := state.State{App: "wordpress", Networks: map[string]state.Network{
		"db":      state.DefaultNetwork(),
		"metrics": state.DefaultNetwork(),
	}}
	c.Check(s.check(event.Start(), st), gc.HasLen, 0)

	// Subordinate endpoints are not bindable.
	st.Networks = map[string]state.Network{"logging": state.DefaultNetwork()}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"network-binding-unknown"})
}

func (s *checkerSuite) TestActionChecks(c *gc.C) {
	st := state.State{App: "wordpress"}
	c.Check(s.check(event.Action("do-backup", map[string]interface{}{"depth": 3}), st), gc.HasLen, 0)

	c.Check(codes(s.check(event.Action("nonsense", nil), st)),
		jc.DeepEquals, []string{"action-unknown"})

	c.Check(codes(s.check(event.Action("do-backup", map[string]interface{}{"bogus": 1}), st)),
		jc.DeepEquals, []string{"action-param-unknown"})

	c.Check(codes(s.check(event.Action("do-backup", map[string]interface{}{"depth": "deep"}), st)),
		jc.DeepEquals, []string{"action-param-invalid"})
}

func (s *checkerSuite) TestDeferredChecks(c *gc.C) {
	st := state.State{App: "wordpress", Deferred: []state.DeferredEvent{
		{Name: "db-relation-changed", Observer: "on-db-changed", RelationID: 5},
	}}
	c.Check(codes(s.check(event.Start(), st)), jc.DeepEquals, []string{"deferred-relation-unknown"})

	st.Relations = []state.Relation{
		state.NewRelation(state.RegularRelationArgs{Endpoint: "db", Interface: "mysql", ID: 5}),
	}
	c.Check(s.check(event.Start(), st), gc.HasLen, 0)
}
