// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scenario

import (
	"github.com/juju/errors"

	"github.com/juju/scenario/backend"
	"github.com/juju/scenario/checker"
	"github.com/juju/scenario/event"
	"github.com/juju/scenario/hooks"
	"github.com/juju/scenario/internal/charmroot"
	"github.com/juju/scenario/state"
)

// Run executes one event against the charm. The input state is never
// mutated; the returned state is the world as the charm left it. The
// trace lists every event actually emitted, in emission order. On any
// error no state and no trace are returned.
func (c *Context) Run(ev event.Event, in state.State) (state.State, []Emission, error) {
	if !c.skipChecks {
		if violations := checker.Check(checker.Params{
			Meta:    c.meta,
			Config:  c.config,
			Actions: c.actions,
			Event:   ev,
			State:   in,
		}); len(violations) > 0 {
			return state.State{}, nil, &InconsistentStateError{Violations: violations}
		}
	}

	working := in.Copy()
	b, err := backend.New(backend.Params{
		Meta:    c.meta,
		Config:  c.config,
		Actions: c.actions,
		Event:   ev,
		State:   &working,
		Clock:   c.clock,
	})
	if err != nil {
		return state.State{}, nil, errors.Trace(err)
	}

	root, err := charmroot.Write(charmroot.Args{
		Meta:    c.meta,
		Config:  c.config,
		Actions: c.actions,
	})
	if err != nil {
		return state.State{}, nil, errors.Trace(err)
	}
	defer func() {
		if err := charmroot.Remove(root); err != nil {
			logger.Warningf("removing charm root: %v", err)
		}
	}()

	r := &run{ctx: c, backend: b, working: &working}

	// Replay phase: previously deferred events go first, in original
	// insertion order, each to the handler that deferred it. Re-defers
	// re-enqueue.
	pending := working.Deferred
	working.Deferred = nil
	for _, d := range pending {
		logger.Tracef("replaying deferred %q to %s", d.Name, d.Observer)
		if err := r.emit(eventFromDeferred(d), PhaseReplay, d.Observer); err != nil {
			return state.State{}, nil, errors.Trace(err)
		}
	}

	// Trigger phase.
	logger.Debugf("dispatching %q to %s", ev.Name, working.UnitName())
	if err := r.emit(ev, PhaseTrigger, ""); err != nil {
		return state.State{}, nil, errors.Trace(err)
	}

	// Cascade phase: drain synchronously raised events in the order
	// raised; they may raise further events themselves.
	if err := r.drain(); err != nil {
		return state.State{}, nil, errors.Trace(err)
	}

	// Framework lifecycle, after the cascade settles.
	for _, name := range []string{string(hooks.PreCommit), string(hooks.Commit)} {
		fev := event.Event{Name: name, Kind: hooks.Kind(name)}
		if err := r.emit(fev, PhaseCascade, ""); err != nil {
			return state.State{}, nil, errors.Trace(err)
		}
	}
	if err := r.drain(); err != nil {
		return state.State{}, nil, errors.Trace(err)
	}

	c.jujuLogs = b.JujuLogs()
	c.actionResults = b.ActionResults()
	c.actionFailure = b.ActionFailure()
	c.actionLogs = b.ActionLogs()
	c.requestedStorages = b.RequestedStorages()

	return working, r.trace, nil
}

// run is the mutable guts of one Run call.
type run struct {
	ctx     *Context
	backend *backend.Backend
	working *state.State
	trace   []Emission
	queue   []event.Event
}

// emit dispatches one event to its observers. only restricts dispatch
// to the named handler (deferred replay); empty means all registered
// observers, in registration order.
func (r *run) emit(ev event.Event, phase Phase, only string) error {
	framework := ev.Kind.IsFramework()
	em := Emission{Event: ev, Phase: phase, Framework: framework}
	dispatched := false
	for _, obs := range r.ctx.dispatch[ev.Name] {
		if only != "" && obs.Name != only {
			continue
		}
		dispatched = true
		hctx := &HookContext{
			Backend:  r.backend,
			ev:       ev,
			observer: obs.Name,
		}
		if err := obs.Func(hctx); err != nil {
			return errors.Annotatef(err, "handler %s observing %q", obs.Name, ev.Name)
		}
		if hctx.deferred {
			em.Deferred = true
			r.working.Deferred = append(r.working.Deferred, hctx.deferredEntry())
		}
		r.queue = append(r.queue, hctx.raised...)
	}
	if only != "" && !dispatched {
		// A deferred notice whose handler is no longer registered:
		// nothing ran, so nothing was emitted. The stale entry stays
		// cleared from the queue.
		logger.Debugf("dropping deferred %q: no observer %s", ev.Name, only)
		return nil
	}
	if !framework || r.ctx.captureFramework {
		r.trace = append(r.trace, em)
	}
	return nil
}

// drain emits queued cascade events until none remain.
func (r *run) drain() error {
	for len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		if err := r.emit(next, PhaseCascade, ""); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// eventFromDeferred rebuilds the event a deferred entry stands for.
func eventFromDeferred(d state.DeferredEvent) event.Event {
	ev := event.New(d.Name)
	ev.RelationID = d.RelationID
	ev.ContainerName = d.ContainerName
	ev.SecretID = d.SecretID
	return ev
}
