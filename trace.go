// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scenario

import (
	"github.com/juju/scenario/event"
)

// Phase says why an event was emitted during a run.
type Phase string

const (
	// PhaseReplay marks the replay of a previously deferred event.
	PhaseReplay Phase = "replay"

	// PhaseTrigger marks the run's primary triggering event.
	PhaseTrigger Phase = "trigger"

	// PhaseCascade marks an event raised synchronously by the charm as
	// a consequence of an earlier emission in the same run.
	PhaseCascade Phase = "cascade"
)

// Emission is one entry of a run's trace: an event that was actually
// emitted, in emission order.
type Emission struct {
	Event event.Event
	Phase Phase

	// Framework marks the dispatcher's own lifecycle events
	// (pre-commit, commit). They only appear in the trace when the
	// context was asked to capture them.
	Framework bool

	// Deferred reports whether a handler deferred the event during
	// this emission.
	Deferred bool
}
