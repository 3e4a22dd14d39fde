// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scenario

import (
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/scenario/backend"
	"github.com/juju/scenario/charm"
	"github.com/juju/scenario/state"
)

var logger = loggo.GetLogger("scenario")

// ContextArgs holds the arguments for NewContext.
type ContextArgs struct {
	// Meta is the charm's metadata declaration. Required.
	Meta *charm.Meta

	// Config and Actions are the charm's optional config.yaml and
	// actions.yaml declarations.
	Config  *charm.Config
	Actions *charm.Actions

	// Observers is the charm's dispatch table: which handler runs for
	// which event. Resolved once, here; dispatch never does name
	// lookups at emission time.
	Observers []Observer

	// Clock stamps status changes. Defaults to clock.WallClock.
	Clock clock.Clock

	// SkipConsistencyChecks runs events against states the checker
	// would reject. Escape hatch for exploring hypothetical worlds;
	// leave it unset otherwise.
	SkipConsistencyChecks bool

	// CaptureFrameworkEvents retains the dispatcher's own pre-commit
	// and commit emissions in the trace.
	CaptureFrameworkEvents bool
}

// Context runs events against a charm. One Context can run any number
// of events, sequentially or from concurrent tests; every run is fully
// isolated from every other, except for the captured side effects of
// the most recent run, which the accessors below expose.
type Context struct {
	meta    *charm.Meta
	config  *charm.Config
	actions *charm.Actions

	dispatch map[string][]Observer

	clock            clock.Clock
	skipChecks       bool
	captureFramework bool

	// Side effects of the last run.
	jujuLogs          []backend.JujuLogLine
	actionResults     map[string]interface{}
	actionFailure     string
	actionLogs        []string
	requestedStorages []state.RequestedStorage
}

// NewContext returns a context for the charm the arguments describe.
func NewContext(args ContextArgs) (*Context, error) {
	if args.Meta == nil {
		return nil, errors.NotValidf("context without metadata")
	}
	if err := args.Meta.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if args.Clock == nil {
		args.Clock = clock.WallClock
	}
	dispatch := make(map[string][]Observer)
	for _, obs := range args.Observers {
		if obs.Event == "" || obs.Func == nil {
			return nil, errors.NotValidf("observer %q without event or handler", obs.Name)
		}
		if obs.Name == "" {
			obs.Name = obs.Event
		}
		dispatch[obs.Event] = append(dispatch[obs.Event], obs)
	}
	return &Context{
		meta:             args.Meta,
		config:           args.Config,
		actions:          args.Actions,
		dispatch:         dispatch,
		clock:            args.Clock,
		skipChecks:       args.SkipConsistencyChecks,
		captureFramework: args.CaptureFrameworkEvents,
	}, nil
}

// JujuLogs returns the juju-log lines the charm wrote during the last
// run.
func (c *Context) JujuLogs() []backend.JujuLogLine {
	return append([]backend.JujuLogLine(nil), c.jujuLogs...)
}

// ActionResults returns the results the last run's action set.
func (c *Context) ActionResults() map[string]interface{} {
	out := make(map[string]interface{}, len(c.actionResults))
	for k, v := range c.actionResults {
		out[k] = v
	}
	return out
}

// ActionFailure returns the failure message of the last run's action,
// empty when it did not fail.
func (c *Context) ActionFailure() string { return c.actionFailure }

// ActionLogs returns the progress messages the last run's action
// logged.
func (c *Context) ActionLogs() []string {
	return append([]string(nil), c.actionLogs...)
}

// RequestedStorages returns the storage-add requests recorded during
// the last run.
func (c *Context) RequestedStorages() []state.RequestedStorage {
	return append([]state.RequestedStorage(nil), c.requestedStorages...)
}
