// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scenario

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/juju/scenario/backend"
	"github.com/juju/scenario/event"
	"github.com/juju/scenario/state"
)

// Observer binds a handler to an event name. Observers registered on
// the same event are invoked in registration order.
type Observer struct {
	// Event is the full event name observed, e.g. "install" or
	// "db-relation-changed".
	Event string

	// Name identifies the handler; deferred events are replayed only to
	// the handler that deferred them.
	Name string

	// Func is the handler body. It talks to the run exclusively through
	// the HookContext.
	Func func(*HookContext) error
}

// HookContext is what one handler invocation sees: the full backend
// surface plus the event being dispatched, deferral and the ability to
// raise follow-up events.
type HookContext struct {
	*backend.Backend

	ev       event.Event
	observer string

	deferred bool
	raised   []event.Event
}

// Event returns the event being dispatched.
func (ctx *HookContext) Event() event.Event { return ctx.ev }

// RemoteUnit returns the name of the remote unit a relation event
// concerns: the explicit override when the event carries one, otherwise
// the lowest remote unit id present on the relation.
func (ctx *HookContext) RemoteUnit() (string, error) {
	if !ctx.ev.Kind.IsRelation() {
		return "", errors.Errorf("%q is not a relation event", ctx.ev.Name)
	}
	rel, err := ctx.State().GetRelationByID(ctx.ev.RelationID)
	if err != nil {
		return "", errors.Trace(err)
	}
	remoteApp := rel.RemoteAppName(ctx.State().AppName())
	if ctx.ev.RemoteUnitID != nil {
		return fmt.Sprintf("%s/%d", remoteApp, *ctx.ev.RemoteUnitID), nil
	}
	ids := rel.RemoteUnitIDs()
	if len(ids) == 0 {
		return "", errors.NotFoundf("remote units in relation %d", rel.RelationID())
	}
	return fmt.Sprintf("%s/%d", remoteApp, ids[0]), nil
}

// DepartingUnit returns the name of the unit leaving on a
// relation-departed event.
func (ctx *HookContext) DepartingUnit() (string, error) {
	if ctx.ev.DepartingUnitID == nil {
		return "", errors.NotFoundf("departing unit on event %q", ctx.ev.Name)
	}
	rel, err := ctx.State().GetRelationByID(ctx.ev.RelationID)
	if err != nil {
		return "", errors.Trace(err)
	}
	return fmt.Sprintf("%s/%d", rel.RemoteAppName(ctx.State().AppName()), *ctx.ev.DepartingUnitID), nil
}

// Defer postpones the event: it is re-dispatched to this handler at
// the start of the next run.
func (ctx *HookContext) Defer() {
	ctx.deferred = true
}

// Raise emits a follow-up event once the current emission completes.
// Raised events are dispatched in the order raised.
func (ctx *HookContext) Raise(ev event.Event) {
	ctx.raised = append(ctx.raised, ev)
}

// deferredEntry captures the handler identity and the event's
// references for the deferred queue.
func (ctx *HookContext) deferredEntry() state.DeferredEvent {
	return state.DeferredEvent{
		Name:          ctx.ev.Name,
		HandlePath:    fmt.Sprintf("%s/on/%s", ctx.observer, ctx.ev.Name),
		Observer:      ctx.observer,
		RelationID:    ctx.ev.RelationID,
		ContainerName: ctx.ev.ContainerName,
		SecretID:      ctx.ev.SecretID,
	}
}
