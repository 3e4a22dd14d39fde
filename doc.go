// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package scenario is a state-transition test harness for charm
// business logic. A test declares the complete world the charm can
// observe as a state.State value, picks a triggering event, and runs
// the charm against a fully mocked backend:
//
//	ctx, err := scenario.NewContext(scenario.ContextArgs{
//		Meta:      meta,
//		Observers: []scenario.Observer{{
//			Event: "start",
//			Name:  "on-start",
//			Func: func(hctx *scenario.HookContext) error {
//				return hctx.SetUnitStatus(state.StatusInfo{Status: state.Active})
//			},
//		}},
//	})
//	...
//	out, trace, err := ctx.Run(event.Start(), state.State{Leader: true})
//
// The input state is never mutated; the output state is the world as
// the charm left it, and the trace records every event emitted during
// the run, in order. Before anything executes, the consistency checker
// rejects worlds that could never occur on a real controller.
package scenario
