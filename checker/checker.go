// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package checker validates (metadata, event, state) triples before a
// run executes. It rejects combinations that could never occur on a
// real controller, so that a scenario failure always means the charm
// misbehaved rather than the test author describing an impossible
// world.
package checker

import (
	"fmt"

	"github.com/juju/collections/set"
	"github.com/juju/schema"

	"github.com/juju/scenario/charm"
	"github.com/juju/scenario/event"
	"github.com/juju/scenario/hooks"
	"github.com/juju/scenario/state"
)

// Violation is one consistency rule the triple breaks. Code is a
// stable machine-readable tag; Field names the offending part of the
// input.
type Violation struct {
	Code    string
	Message string
	Field   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Code, v.Message, v.Field)
}

// Params are the inputs to Check. Meta is required; Config and Actions
// may be nil when the charm ships no such declaration.
type Params struct {
	Meta    *charm.Meta
	Config  *charm.Config
	Actions *charm.Actions
	Event   event.Event
	State   state.State
}

// Check runs every consistency rule over the given triple and returns
// the violations found. It is pure and deterministic; an empty result
// means the run may proceed.
func Check(p Params) []Violation {
	c := &checkRun{Params: p}
	c.checkEventShape()
	c.checkRelations()
	c.checkContainers()
	c.checkStorage()
	c.checkSecrets()
	c.checkLeadership()
	c.checkConfig()
	c.checkResources()
	c.checkNetworks()
	c.checkAction()
	c.checkDeferred()
	return c.violations
}

type checkRun struct {
	Params
	violations []Violation
}

func (c *checkRun) addf(code, field, format string, args ...interface{}) {
	c.violations = append(c.violations, Violation{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	})
}

func (c *checkRun) checkEventShape() {
	if err := c.Event.Validate(); err != nil {
		c.addf("event-invalid", "event", "%v", err)
	}
}

func (c *checkRun) checkRelations() {
	seen := set.NewInts()
	for _, rel := range c.State.Relations {
		id := rel.RelationID()
		if seen.Contains(id) {
			c.addf("relation-id-duplicate", "state.relations",
				"relation id %d appears more than once", id)
		}
		seen.Add(id)

		ep, ok := c.Meta.Endpoint(rel.EndpointName())
		if !ok {
			c.addf("relation-endpoint-unknown", "state.relations",
				"relation %d endpoint %q is not declared in metadata", id, rel.EndpointName())
			continue
		}
		switch r := rel.(type) {
		case *state.PeerRelation:
			if ep.Role != charm.RolePeer {
				c.addf("relation-variant-mismatch", "state.relations",
					"endpoint %q is not a peer endpoint but relation %d is a peer relation",
					ep.Name, id)
			}
			for _, peerID := range r.RemoteUnitIDs() {
				if peerID == c.State.Unit {
					c.addf("peer-contains-self", "state.relations",
						"peer relation %d on %q contains the local unit %s",
						id, ep.Name, c.State.UnitName())
				}
			}
		case *state.SubordinateRelation:
			if !ep.IsSubordinate() {
				c.addf("relation-variant-mismatch", "state.relations",
					"endpoint %q is not container-scoped but relation %d is a subordinate relation",
					ep.Name, id)
			}
		default:
			if ep.Role == charm.RolePeer {
				c.addf("relation-variant-mismatch", "state.relations",
					"endpoint %q is a peer endpoint but relation %d is not a peer relation",
					ep.Name, id)
			} else if ep.IsSubordinate() {
				c.addf("relation-variant-mismatch", "state.relations",
					"endpoint %q is container-scoped but relation %d is not a subordinate relation",
					ep.Name, id)
			}
			if rel.RemoteAppName(c.State.AppName()) != c.State.AppName() {
				continue
			}
			for _, unitID := range rel.RemoteUnitIDs() {
				if unitID == c.State.Unit {
					c.addf("relation-contains-self", "state.relations",
						"relation %d on %q lists the local unit %s as a remote unit",
						id, ep.Name, c.State.UnitName())
				}
			}
		}
	}

	if !c.Event.Kind.IsRelation() {
		return
	}
	rel, err := c.State.GetRelationByID(c.Event.RelationID)
	if err != nil {
		c.addf("relation-unknown", "event",
			"event %q references relation %d which is not in the state",
			c.Event.Name, c.Event.RelationID)
		return
	}
	if prefix := c.Event.Prefix(); prefix != rel.EndpointName() {
		c.addf("relation-endpoint-mismatch", "event",
			"event %q names endpoint %q but relation %d is on endpoint %q",
			c.Event.Name, prefix, rel.RelationID(), rel.EndpointName())
	}
	if c.Event.RemoteUnitID != nil {
		c.checkRemoteUnit(rel, *c.Event.RemoteUnitID, "relation-remote-unit-unknown")
	}
	if c.Event.DepartingUnitID != nil && *c.Event.DepartingUnitID != c.State.Unit {
		c.checkRemoteUnit(rel, *c.Event.DepartingUnitID, "relation-departing-unit-unknown")
	}
}

func (c *checkRun) checkRemoteUnit(rel state.Relation, unitID int, code string) {
	for _, id := range rel.RemoteUnitIDs() {
		if id == unitID {
			return
		}
	}
	c.addf(code, "event",
		"event %q names remote unit %d which is not a member of relation %d",
		c.Event.Name, unitID, rel.RelationID())
}

func (c *checkRun) checkContainers() {
	names := set.NewStrings()
	for _, ctr := range c.State.Containers {
		if names.Contains(ctr.Name) {
			c.addf("container-name-duplicate", "state.containers",
				"container %q appears more than once", ctr.Name)
		}
		names.Add(ctr.Name)
		if _, ok := c.Meta.Containers[ctr.Name]; !ok {
			c.addf("container-unknown", "state.containers",
				"container %q is not declared in metadata", ctr.Name)
		}
	}
	if c.Event.Kind.IsWorkload() {
		if _, ok := c.Meta.Containers[c.Event.ContainerName]; !ok {
			c.addf("container-unknown", "event",
				"event %q references container %q which is not declared in metadata",
				c.Event.Name, c.Event.ContainerName)
		}
		if !names.Contains(c.Event.ContainerName) {
			c.addf("container-not-present", "event",
				"event %q references container %q which is not in the state",
				c.Event.Name, c.Event.ContainerName)
		}
	}
}

func (c *checkRun) checkStorage() {
	seen := set.NewStrings()
	for _, st := range c.State.Storages {
		if _, ok := c.Meta.Storage[st.Name]; !ok {
			c.addf("storage-unknown", "state.storages",
				"storage %q is not declared in metadata", st.Name)
		}
		if seen.Contains(st.FullID()) {
			c.addf("storage-duplicate", "state.storages",
				"storage instance %s appears more than once", st.FullID())
		}
		seen.Add(st.FullID())
	}
	if c.Event.Kind.IsStorage() {
		if _, ok := c.Meta.Storage[c.Event.StorageName]; !ok {
			c.addf("storage-unknown", "event",
				"event %q references storage %q which is not declared in metadata",
				c.Event.Name, c.Event.StorageName)
		}
		id := fmt.Sprintf("%s/%d", c.Event.StorageName, c.Event.StorageIndex)
		if !seen.Contains(id) {
			c.addf("storage-not-attached", "event",
				"event %q references storage instance %s which is not attached",
				c.Event.Name, id)
		}
	}
}

func (c *checkRun) checkSecrets() {
	usesSecrets := len(c.State.Secrets) > 0 || c.Event.Kind.IsSecret()
	if usesSecrets {
		v, err := c.State.AgentVersion()
		if err != nil {
			c.addf("juju-version-invalid", "state.jujuVersion", "%v", err)
		} else if v.Major < 3 {
			c.addf("secrets-need-juju-3", "state.jujuVersion",
				"secrets require juju 3.0 or later, got %s", v)
		}
	}
	if !c.Event.Kind.IsSecret() {
		return
	}
	sec, err := c.State.GetSecret(c.Event.SecretID)
	if err != nil {
		c.addf("secret-unknown", "event",
			"event %q references secret %q which is not in the state",
			c.Event.Name, c.Event.SecretID)
		return
	}
	if c.Event.Kind.IsSecretOwner() && sec.Owner == state.OwnerNone {
		c.addf("secret-not-owned", "event",
			"event %q is only ever dispatched to the owner of secret %q",
			c.Event.Name, sec.ID)
	}
	if rev := c.Event.SecretRevision; rev != 0 {
		if _, ok := sec.Contents[rev]; !ok {
			c.addf("secret-revision-unknown", "event",
				"event %q references revision %d of secret %q which does not exist",
				c.Event.Name, rev, sec.ID)
		}
	}
}

func (c *checkRun) checkLeadership() {
	if c.Event.Kind == hooks.LeaderElected && !c.State.Leader {
		c.addf("leader-elected-without-leadership", "state.leader",
			"cannot dispatch leader-elected while the unit does not hold leadership")
	}
}

func (c *checkRun) checkConfig() {
	if len(c.State.Config) == 0 {
		return
	}
	if c.Config == nil {
		c.addf("config-without-declaration", "state.config",
			"state sets config values but the charm declares no options")
		return
	}
	for key, value := range c.State.Config {
		if _, err := c.Config.ValidateSettings(map[string]interface{}{key: value}); err != nil {
			c.addf("config-value-invalid", "state.config", "%v", err)
		}
	}
}

func (c *checkRun) checkResources() {
	for name := range c.State.Resources {
		if _, ok := c.Meta.Resources[name]; !ok {
			c.addf("resource-unknown", "state.resources",
				"resource %q is not declared in metadata", name)
		}
	}
}

func (c *checkRun) checkNetworks() {
	valid := set.NewStrings()
	for name, ep := range c.Meta.AllRelations() {
		if !ep.IsSubordinate() {
			valid.Add(name)
		}
	}
	for name := range c.Meta.ExtraBindings {
		valid.Add(name)
	}
	for binding := range c.State.Networks {
		if !valid.Contains(binding) {
			c.addf("network-binding-unknown", "state.networks",
				"binding %q matches no non-subordinate endpoint or extra binding", binding)
		}
	}
}

// actionParamCheckers maps the parameter types an action declaration
// may use to value checkers.
var actionParamCheckers = map[string]schema.Checker{
	"string":  schema.String(),
	"integer": schema.Int(),
	"number":  schema.Float(),
	"boolean": schema.Bool(),
	"array":   schema.List(schema.Any()),
	"object":  schema.StringMap(schema.Any()),
}

func (c *checkRun) checkAction() {
	if !c.Event.Kind.IsAction() {
		return
	}
	spec, ok := c.Actions.Spec(c.Event.ActionName)
	if !ok {
		c.addf("action-unknown", "event",
			"action %q is not declared by the charm", c.Event.ActionName)
		return
	}
	for name, value := range c.Event.ActionParams {
		decl, ok := spec.Params[name]
		if !ok {
			c.addf("action-param-unknown", "event",
				"action %q does not declare parameter %q", c.Event.ActionName, name)
			continue
		}
		typ, _ := decl["type"].(string)
		checker := actionParamCheckers[typ]
		if checker == nil {
			continue
		}
		if _, err := checker.Coerce(value, nil); err != nil {
			c.addf("action-param-invalid", "event",
				"parameter %q of action %q: %v", name, c.Event.ActionName, err)
		}
	}
}

func (c *checkRun) checkDeferred() {
	for _, d := range c.State.Deferred {
		if d.RelationID == 0 {
			continue
		}
		if _, err := c.State.GetRelationByID(d.RelationID); err != nil {
			c.addf("deferred-relation-unknown", "state.deferred",
				"deferred event %q references relation %d which is not in the state",
				d.Name, d.RelationID)
		}
	}
}
