// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"io"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// ActionSpec is a definition of the parameters and traits of an Action.
// The Params map is the action's parameter declarations: a mapping from
// parameter name to a json-schema-like property map carrying at least a
// "type" key.
type ActionSpec struct {
	Description string
	Params      map[string]map[string]interface{}
}

// Actions defines the available actions for the charm.
type Actions struct {
	ActionSpecs map[string]ActionSpec
}

// Spec returns the declaration of the named action.
func (a *Actions) Spec(name string) (ActionSpec, bool) {
	if a == nil {
		return ActionSpec{}, false
	}
	spec, ok := a.ActionSpecs[name]
	return spec, ok
}

// ReadActions reads an actions.yaml declaration and returns its
// representation.
func ReadActions(r io.Reader) (*Actions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "parsing actions")
	}
	actions := &Actions{ActionSpecs: make(map[string]ActionSpec)}
	for name, rawSpec := range raw {
		spec := ActionSpec{}
		sm, ok := rawSpec.(map[string]interface{})
		if !ok {
			if rawSpec != nil {
				return nil, errors.NotValidf("action %q declaration", name)
			}
			actions.ActionSpecs[name] = spec
			continue
		}
		if desc, ok := sm["description"].(string); ok {
			spec.Description = desc
		}
		if params, ok := sm["params"].(map[string]interface{}); ok {
			spec.Params = make(map[string]map[string]interface{})
			for paramName, rawParam := range params {
				pm, ok := rawParam.(map[string]interface{})
				if !ok {
					return nil, errors.NotValidf("parameter %q of action %q", paramName, name)
				}
				spec.Params[paramName] = pm
			}
		}
		actions.ActionSpecs[name] = spec
	}
	return actions, nil
}
