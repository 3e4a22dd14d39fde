// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backend

import (
	"github.com/juju/errors"
)

func (b *Backend) inActionContext() error {
	if !b.event.Kind.IsAction() {
		return errors.Errorf("%q is not an action event", b.event.Name)
	}
	return nil
}

// ActionParams returns the parameters the action was invoked with,
// overlaid on the defaults its declaration carries.
func (b *Backend) ActionParams() (map[string]interface{}, error) {
	if err := b.inActionContext(); err != nil {
		return nil, errors.Trace(err)
	}
	out := make(map[string]interface{})
	if spec, ok := b.actions.Spec(b.event.ActionName); ok {
		for name, decl := range spec.Params {
			if def, ok := decl["default"]; ok {
				out[name] = def
			}
		}
	}
	for k, v := range b.event.ActionParams {
		out[k] = v
	}
	return out, nil
}

// ActionSet merges values into the action's result map.
func (b *Backend) ActionSet(results map[string]interface{}) error {
	if err := b.inActionContext(); err != nil {
		return errors.Trace(err)
	}
	if b.actionResults == nil {
		b.actionResults = make(map[string]interface{})
	}
	for k, v := range results {
		b.actionResults[k] = v
	}
	return nil
}

// ActionFail marks the action as failed with the given message.
func (b *Backend) ActionFail(message string) error {
	if err := b.inActionContext(); err != nil {
		return errors.Trace(err)
	}
	b.actionFailure = message
	return nil
}

// ActionLog appends a progress message to the action's log.
func (b *Backend) ActionLog(message string) error {
	if err := b.inActionContext(); err != nil {
		return errors.Trace(err)
	}
	b.actionLogs = append(b.actionLogs, message)
	return nil
}

// ActionResults returns the results accumulated by ActionSet.
func (b *Backend) ActionResults() map[string]interface{} {
	out := make(map[string]interface{}, len(b.actionResults))
	for k, v := range b.actionResults {
		out[k] = v
	}
	return out
}

// ActionFailure returns the failure message set by ActionFail, empty
// when the action did not fail.
func (b *Backend) ActionFailure() string { return b.actionFailure }

// ActionLogs returns the progress messages logged by the action.
func (b *Backend) ActionLogs() []string {
	return append([]string(nil), b.actionLogs...)
}
