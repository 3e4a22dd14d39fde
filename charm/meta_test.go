// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm_test

import (
	"strings"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/scenario/charm"
)

type metaSuite struct{}

var _ = gc.Suite(&metaSuite{})

const sampleMeta = `
name: wordpress
summary: blog engine
description: A blog engine.
provides:
  website: http
requires:
  db:
    interface: mysql
    limit: 2
    optional: true
  logging:
    interface: logging-dir
    scope: container
peers:
  cluster: wordpress-ha
extra-bindings:
  metrics:
storage:
  data:
    type: filesystem
    location: /srv/data
containers:
  wordpress:
    resource: wordpress-image
    mounts:
      - storage: data
        location: /var/www
resources:
  wordpress-image:
    type: oci-image
    description: wordpress container image
`

func (s *metaSuite) TestReadMeta(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(sampleMeta))
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(meta.Name, gc.Equals, "wordpress")
	c.Assert(meta.Summary, gc.Equals, "blog engine")

	website := meta.Provides["website"]
	c.Check(website.Interface, gc.Equals, "http")
	c.Check(website.Role, gc.Equals, charm.RoleProvider)
	c.Check(website.Scope, gc.Equals, charm.ScopeGlobal)

	db := meta.Requires["db"]
	c.Check(db.Interface, gc.Equals, "mysql")
	c.Check(db.Role, gc.Equals, charm.RoleRequirer)
	c.Check(db.Limit, gc.Equals, 2)
	c.Check(db.Optional, jc.IsTrue)

	logging := meta.Requires["logging"]
	c.Check(logging.Scope, gc.Equals, charm.ScopeContainer)
	c.Check(logging.IsSubordinate(), jc.IsTrue)

	cluster := meta.Peers["cluster"]
	c.Check(cluster.Role, gc.Equals, charm.RolePeer)
	c.Check(cluster.Interface, gc.Equals, "wordpress-ha")

	c.Check(meta.ExtraBindings, gc.HasLen, 1)
	c.Check(meta.Storage["data"].Type, gc.Equals, charm.StorageFilesystem)
	c.Check(meta.Storage["data"].Location, gc.Equals, "/srv/data")

	ctr := meta.Containers["wordpress"]
	c.Check(ctr.Resource, gc.Equals, "wordpress-image")
	c.Assert(ctr.Mounts, gc.HasLen, 1)
	c.Check(ctr.Mounts[0].Storage, gc.Equals, "data")
	c.Check(ctr.Mounts[0].Location, gc.Equals, "/var/www")

	c.Check(meta.Resources["wordpress-image"].Type, gc.Equals, "oci-image")
}

func (s *metaSuite) TestInterfaceShorthand(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(`
name: riak
provides:
  endpoint: http
`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(meta.Provides["endpoint"].Interface, gc.Equals, "http")
}

func (s *metaSuite) TestAllRelations(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(sampleMeta))
	c.Assert(err, jc.ErrorIsNil)
	all := meta.AllRelations()
	c.Check(all, gc.HasLen, 4)
	ep, ok := meta.Endpoint("cluster")
	c.Assert(ok, jc.IsTrue)
	c.Check(ep.Role, gc.Equals, charm.RolePeer)
	_, ok = meta.Endpoint("nonsense")
	c.Check(ok, jc.IsFalse)
}

func (s *metaSuite) TestReadMetaErrors(c *gc.C) {
	_, err := charm.ReadMeta(strings.NewReader("provides:\n  server: http\n"))
	c.Check(err, gc.NotNil)

	_, err = charm.ReadMeta(strings.NewReader(`
name: bad
provides:
  dup: http
requires:
  dup: mysql
`))
	c.Check(err, gc.ErrorMatches, `.*duplicate relation endpoint "dup".*`)
}

func (s *metaSuite) TestPeerScopeAlwaysGlobal(c *gc.C) {
	meta, err := charm.ReadMeta(strings.NewReader(`
name: clustered
peers:
  ring:
    interface: ring
    scope: container
`))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(meta.Peers["ring"].Scope, gc.Equals, charm.ScopeGlobal)
}
