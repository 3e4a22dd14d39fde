// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state_test

import (
	"strings"

	"github.com/juju/collections/set"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/scenario/state"
)

type secretSuite struct{}

var _ = gc.Suite(&secretSuite{})

func (s *secretSuite) TestRevisions(c *gc.C) {
	sec := state.Secret{
		Contents: map[int]map[string]string{
			1: {"password": "old"},
			2: {"password": "new"},
		},
	}
	c.Check(sec.LatestRevision(), gc.Equals, 2)
	c.Check(sec.CurrentRevision(), gc.Equals, 2)
	sec.TrackedRevision = 1
	c.Check(sec.CurrentRevision(), gc.Equals, 1)
}

func (s *secretSuite) TestGrantedTo(c *gc.C) {
	sec := state.Secret{
		Grants: map[int]set.Strings{
			3: set.NewStrings("wordpress", "wordpress/0"),
		},
	}
	c.Check(sec.GrantedTo("wordpress"), jc.IsTrue)
	c.Check(sec.GrantedTo("wordpress/0"), jc.IsTrue)
	c.Check(sec.GrantedTo("mysql"), jc.IsFalse)
}

func (s *secretSuite) TestNewSecretID(c *gc.C) {
	id := state.NewSecretID()
	c.Check(strings.HasPrefix(id, "secret:"), jc.IsTrue)
	c.Check(id, gc.Not(gc.Equals), state.NewSecretID())
}

func (s *secretSuite) TestCopyIsDeep(c *gc.C) {
	sec := state.Secret{
		ID:       "secret:abc",
		Contents: map[int]map[string]string{1: {"k": "v"}},
		Grants:   map[int]set.Strings{1: set.NewStrings("remote")},
	}
	cp := sec.Copy()
	cp.Contents[1]["k"] = "changed"
	cp.Grants[1].Add("other")
	c.Check(sec.Contents[1]["k"], gc.Equals, "v")
	c.Check(sec.Grants[1].Contains("other"), jc.IsFalse)
}
