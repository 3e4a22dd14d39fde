// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scenario_test

import (
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/scenario"
	"github.com/juju/scenario/charm"
	"github.com/juju/scenario/event"
	"github.com/juju/scenario/state"
)

type runSuite struct {
	meta *charm.Meta
}

var _ = gc.Suite(&runSuite{})

func (s *runSuite) SetUpSuite(c *gc.C) {
	var err error
	s.meta, err = charm.ReadMeta(strings.NewReader(`
name: wordpress
requires:
  db: mysql
peers:
  cluster: ha
`))
	c.Assert(err, jc.ErrorIsNil)
}

func (s *runSuite) context(c *gc.C, observers ...scenario.Observer) *scenario.Context {
	ctx, err := scenario.NewContext(scenario.ContextArgs{
		Meta:      s.meta,
		Observers: observers,
	})
	c.Assert(err, jc.ErrorIsNil)
	return ctx
}

func eventNames(trace []scenario.Emission) []string {
	var out []string
	for _, em := range trace {
		out = append(out, em.Event.Name)
	}
	return out
}

func (s *runSuite) TestRunReturnsNewState(c *gc.C) {
	ctx := s.context(c, scenario.Observer{
		Event: "start",
		Name:  "on-start",
		Func: func(hctx *scenario.HookContext) error {
			return hctx.SetUnitStatus(state.StatusInfo{Status: state.Active})
		},
	})
	in := state.State{App: "wordpress"}

	out, trace, err := ctx.Run(event.Start(), in)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(out.UnitStatus.Status, gc.Equals, state.Active)
	c.Check(eventNames(trace), jc.DeepEquals, []string{"start"})
	c.Check(trace[0].Phase, gc.Equals, scenario.PhaseTrigger)

	// The input state is untouched.
	c.Check(in.UnitStatus, jc.DeepEquals, state.StatusInfo{})
	c.Check(in.UnitStatusHistory, gc.HasLen, 0)
}

func (s *runSuite) TestStatusHistoryAcrossRun(c *gc.C) {
	ctx := s.context(c, scenario.Observer{
		Event: "start",
		Name:  "on-start",
		Func: func(hctx *scenario.HookContext) error {
			if err := hctx.SetUnitStatus(state.StatusInfo{Status: state.Maintenance}); err != nil {
				return err
			}
			return hctx.SetUnitStatus(state.StatusInfo{Status: state.Active})
		},
	})

	out, _, err := ctx.Run(event.Start(), state.State{App: "wordpress"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(out.UnitStatus.Status, gc.Equals, state.Active)
	c.Assert(out.UnitStatusHistory, gc.HasLen, 2)
	c.Check(out.UnitStatusHistory[0].Status, gc.Equals, state.Unknown)
	c.Check(out.UnitStatusHistory[1].Status, gc.Equals, state.Maintenance)
}

func (s *runSuite) TestInconsistentStateAborts(c *gc.C) {
	var called bool
	ctx := s.context(c, scenario.Observer{
		Event: "start",
		Name:  "on-start",
		Func: func(*scenario.HookContext) error {
			called = true
			return nil
		},
	})
	// A peer relation containing the local unit itself.
	in := state.State{App: "wordpress", Unit: 0, Relations: []state.Relation{
		state.NewPeerRelation(state.PeerRelationArgs{
			Endpoint:  "cluster",
			Interface: "ha",
			ID:        1,
			PeersData: map[int]map[string]string{0: {}},
		}),
	}}

	_, trace, err := ctx.Run(event.Start(), in)
	c.Assert(err, gc.NotNil)
	c.Check(scenario.IsInconsistentState(err), jc.IsTrue)
	c.Check(err, gc.ErrorMatches, `inconsistent scenario: peer-contains-self.*`)
	c.Check(trace, gc.IsNil)
	c.Check(called, jc.IsFalse)

	var isErr *scenario.InconsistentStateError
	c.Assert(errors.As(err, &isErr), jc.IsTrue)
	c.Assert(isErr.Violations, gc.HasLen, 1)
	c.Check(isErr.Violations[0].Code, gc.Equals, "peer-contains-self")
}

func (s *runSuite) TestSkipConsistencyChecks(c *gc.C) {
	ctx, err := scenario.NewContext(scenario.ContextArgs{
		Meta:                  s.meta,
		SkipConsistencyChecks: true,
	})
	c.Assert(err, jc.ErrorIsNil)
	in := state.State{App: "wordpress", Relations: []state.Relation{
		state.NewRelation(state.RegularRelationArgs{Endpoint: "nonsense", Interface: "x", ID: 1}),
	}}
	_, _, err = ctx.Run(event.Start(), in)
	c.Check(err, jc.ErrorIsNil)
}

func (s *runSuite) TestReplayBeforeTrigger(c *gc.C) {
	var order []string
	observe := func(name string) scenario.Observer {
		return scenario.Observer{
			Event: strings.TrimPrefix(name, "on-"),
			Name:  name,
			Func: func(hctx *scenario.HookContext) error {
				order = append(order, hctx.Event().Name)
				return nil
			},
		}
	}
	ctx := s.context(c,
		observe("on-config-changed"),
		observe("on-update-status"),
		observe("on-start"),
	)
	in := state.State{App: "wordpress", Deferred: []state.DeferredEvent{
		{Name: "config-changed", Observer: "on-config-changed"},
		{Name: "update-status", Observer: "on-update-status"},
	}}

	out, trace, err := ctx.Run(event.Start(), in)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(order, jc.DeepEquals, []string{"config-changed", "update-status", "start"})
	c.Check(eventNames(trace), jc.DeepEquals, []string{"config-changed", "update-status", "start"})
	c.Check(trace[0].Phase, gc.Equals, scenario.PhaseReplay)
	c.Check(trace[1].Phase, gc.Equals, scenario.PhaseReplay)
	c.Check(trace[2].Phase, gc.Equals, scenario.PhaseTrigger)

	// Replayed events cleared from the queue.
	c.Check(out.Deferred, gc.HasLen, 0)
}

func (s *runSuite) TestDeferralRoundTrip(c *gc.C) {
	deferring := true
	ctx := s.context(c, scenario.Observer{
		Event: "update-status",
		Name:  "on-update-status",
		Func: func(hctx *scenario.HookContext) error {
			if deferring {
				hctx.Defer()
			}
			return nil
		},
	})

	out, trace, err := ctx.Run(event.UpdateStatus(), state.State{App: "wordpress"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(out.Deferred, gc.HasLen, 1)
	c.Check(out.Deferred[0].Name, gc.Equals, "update-status")
	c.Check(out.Deferred[0].Observer, gc.Equals, "on-update-status")
	c.Check(trace[0].Deferred, jc.IsTrue)

	// Second run: the deferred event replays and clears.
	deferring = false
	out2, trace2, err := ctx.Run(event.ConfigChanged(), out)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(out2.Deferred, gc.HasLen, 0)
	c.Check(eventNames(trace2), jc.DeepEquals, []string{"update-status", "config-changed"})
}

func (s *runSuite) TestReplayToGoneObserverDropped(c *gc.C) {
	ctx := s.context(c, scenario.Observer{
		Event: "start",
		Name:  "on-start",
		Func: func(*scenario.HookContext) error {
			return nil
		},
	})
	// A deferred notice left behind by a handler that is no longer
	// registered.
	in := state.State{App: "wordpress", Deferred: []state.DeferredEvent{
		{Name: "config-changed", Observer: "on-config-changed"},
	}}

	out, trace, err := ctx.Run(event.Start(), in)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(eventNames(trace), jc.DeepEquals, []string{"start"})
	c.Check(out.Deferred, gc.HasLen, 0)
}

func (s *runSuite) TestRedeferReenqueues(c *gc.C) {
	ctx := s.context(c, scenario.Observer{
		Event: "update-status",
		Name:  "on-update-status",
		Func: func(hctx *scenario.HookContext) error {
			hctx.Defer()
			return nil
		},
	})
	in := state.State{App: "wordpress", Deferred: []state.DeferredEvent{
		{Name: "update-status", Observer: "on-update-status"},
	}}

	out, _, err := ctx.Run(event.Start(), in)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(out.Deferred, gc.HasLen, 1)
	c.Check(out.Deferred[0].Name, gc.Equals, "update-status")
}

func (s *runSuite) TestCascade(c *gc.C) {
	var order []string
	ctx := s.context(c,
		scenario.Observer{
			Event: "start",
			Name:  "on-start",
			Func: func(hctx *scenario.HookContext) error {
				order = append(order, "start")
				hctx.Raise(event.Custom("database-ready"))
				hctx.Raise(event.Custom("cache-warmed"))
				return nil
			},
		},
		scenario.Observer{
			Event: "database-ready",
			Name:  "on-database-ready",
			Func: func(hctx *scenario.HookContext) error {
				order = append(order, "database-ready")
				hctx.Raise(event.Custom("schema-migrated"))
				return nil
			},
		},
		scenario.Observer{
			Event: "cache-warmed",
			Name:  "on-cache-warmed",
			Func: func(*scenario.HookContext) error {
				order = append(order, "cache-warmed")
				return nil
			},
		},
	)

	_, trace, err := ctx.Run(event.Start(), state.State{App: "wordpress"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(order, jc.DeepEquals, []string{"start", "database-ready", "cache-warmed"})
	c.Check(eventNames(trace), jc.DeepEquals,
		[]string{"start", "database-ready", "cache-warmed", "schema-migrated"})
	c.Check(trace[1].Phase, gc.Equals, scenario.PhaseCascade)
}

func (s *runSuite) TestFrameworkEventsHiddenByDefault(c *gc.C) {
	var sawCommit bool
	ctx := s.context(c, scenario.Observer{
		Event: "commit",
		Name:  "on-commit",
		Func: func(*scenario.HookContext) error {
			sawCommit = true
			return nil
		},
	})

	_, trace, err := ctx.Run(event.Start(), state.State{App: "wordpress"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(sawCommit, jc.IsTrue)
	c.Check(eventNames(trace), jc.DeepEquals, []string{"start"})
}

func (s *runSuite) TestFrameworkEventsCaptured(c *gc.C) {
	ctx, err := scenario.NewContext(scenario.ContextArgs{
		Meta:                   s.meta,
		CaptureFrameworkEvents: true,
	})
	c.Assert(err, jc.ErrorIsNil)

	_, trace, err := ctx.Run(event.Start(), state.State{App: "wordpress"})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(eventNames(trace), jc.DeepEquals, []string{"start", "pre-commit", "commit"})
	c.Check(trace[1].Framework, jc.IsTrue)
	c.Check(trace[2].Framework, jc.IsTrue)
}

func (s *runSuite) TestHandlerErrorAborts(c *gc.C) {
	boom := errors.New("boom")
	ctx := s.context(c, scenario.Observer{
		Event: "start",
		Name:  "on-start",
		Func: func(*scenario.HookContext) error {
			return boom
		},
	})

	out, trace, err := ctx.Run(event.Start(), state.State{App: "wordpress"})
	c.Assert(err, gc.ErrorMatches, `handler on-start observing "start": boom`)
	c.Check(errors.Cause(err), gc.Equals, boom)
	c.Check(trace, gc.IsNil)
	c.Check(out, jc.DeepEquals, state.State{})
}

func (s *runSuite) TestRemoteUnitDefaultsToLowest(c *gc.C) {
	var remote string
	ctx := s.context(c, scenario.Observer{
		Event: "db-relation-changed",
		Name:  "on-db-changed",
		Func: func(hctx *scenario.HookContext) error {
			var err error
			remote, err = hctx.RemoteUnit()
			return err
		},
	})
	rel := state.NewRelation(state.RegularRelationArgs{
		Endpoint:  "db",
		Interface: "mysql",
		ID:        3,
		RemoteApp: "mysql",
		RemoteUnitsData: map[int]map[string]string{
			5: {}, 2: {},
		},
	})
	in := state.State{App: "wordpress", Relations: []state.Relation{rel}}

	_, _, err := ctx.Run(event.RelationChanged("db", 3), in)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(remote, gc.Equals, "mysql/2")

	_, _, err = ctx.Run(event.RelationChanged("db", 3).WithRemoteUnit(5), in)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(remote, gc.Equals, "mysql/5")
}

func (s *runSuite) TestObserverNameDefaultsToEvent(c *gc.C) {
	ctx := s.context(c, scenario.Observer{
		Event: "start",
		Func: func(hctx *scenario.HookContext) error {
			hctx.Defer()
			return nil
		},
	})
	out, _, err := ctx.Run(event.Start(), state.State{App: "wordpress"})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(out.Deferred, gc.HasLen, 1)
	c.Check(out.Deferred[0].Observer, gc.Equals, "start")
}

func (s *runSuite) TestJujuLogCapturedOnContext(c *gc.C) {
	ctx := s.context(c, scenario.Observer{
		Event: "start",
		Name:  "on-start",
		Func: func(hctx *scenario.HookContext) error {
			return hctx.JujuLog(loggo.INFO, "starting up")
		},
	})
	_, _, err := ctx.Run(event.Start(), state.State{App: "wordpress"})
	c.Assert(err, jc.ErrorIsNil)
	logs := ctx.JujuLogs()
	c.Assert(logs, gc.HasLen, 1)
	c.Check(logs[0].Message, gc.Equals, "starting up")
}
