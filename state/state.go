// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package state holds the data model of a scenario: the full snapshot
// of everything a charm can observe about its juju environment, as a
// plain value that can be copied, compared and asserted on.
package state

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"
	"github.com/juju/version/v2"
)

// ModelType distinguishes machine models from kubernetes ones.
type ModelType string

const (
	ModelIAAS ModelType = "iaas"
	ModelCAAS ModelType = "caas"
)

// Model describes the model the unit under test lives in.
type Model struct {
	Name string
	UUID string
	Type ModelType
}

// Port is a port range opened by the unit. EndPort zero means a single
// port.
type Port struct {
	Protocol string
	Port     int
	EndPort  int
}

// State is a snapshot of everything the charm under test can observe.
// A State given to a run is never mutated; the run works on a deep
// copy and returns it as the output state.
type State struct {
	// Leader reports whether this unit holds application leadership.
	Leader bool

	// App is the application name; Unit the unit's id within it. The
	// unit name is then App/Unit.
	App  string
	Unit int

	// Model is the containing model. Zero value gets defaulted on use.
	Model Model

	// JujuVersion is the agent version the unit believes it runs
	// under. Empty means a modern 3.x agent.
	JujuVersion string

	// Config holds the charm config values explicitly set in the
	// model. Values for declared options not present here fall back to
	// the declaration defaults.
	Config map[string]interface{}

	UnitStatus        StatusInfo
	UnitStatusHistory []StatusInfo
	AppStatus         StatusInfo
	AppStatusHistory  []StatusInfo

	WorkloadVersion string

	Relations  []Relation
	Networks   map[string]Network
	Containers []Container
	Storages   []Storage
	Secrets    []Secret

	StoredState []StoredState

	// Resources maps resource names to the local path resource-get
	// reports for them.
	Resources map[string]string

	OpenedPorts []Port

	// PlannedUnits is the number of units the model plans for this
	// application. Zero is reported as 1.
	PlannedUnits int

	Deferred []DeferredEvent
}

// UnitName returns the juju name of the unit under test.
func (s State) UnitName() string {
	return fmt.Sprintf("%s/%d", s.AppName(), s.Unit)
}

// AppName returns the application name, defaulted when unset.
func (s State) AppName() string {
	if s.App == "" {
		return "local"
	}
	return s.App
}

// ModelOrDefault returns the model, filling in defaults for unset
// fields.
func (s State) ModelOrDefault() Model {
	m := s.Model
	if m.Name == "" {
		m.Name = "test-model"
	}
	if m.UUID == "" {
		m.UUID = utils.MustNewUUID().String()
	}
	if m.Type == "" {
		m.Type = ModelIAAS
	}
	return m
}

// AgentVersion returns the parsed juju agent version.
func (s State) AgentVersion() (version.Number, error) {
	if s.JujuVersion == "" {
		return version.MustParse("3.5.0"), nil
	}
	v, err := version.Parse(s.JujuVersion)
	if err != nil {
		return version.Zero, errors.Annotatef(err, "juju version %q", s.JujuVersion)
	}
	return v, nil
}

// GetRelation returns the relation with the given endpoint name.
func (s State) GetRelation(endpoint string) (Relation, error) {
	for _, rel := range s.Relations {
		if rel.EndpointName() == endpoint {
			return rel, nil
		}
	}
	return nil, errors.NotFoundf("relation with endpoint %q", endpoint)
}

// GetRelationByID returns the relation with the given id.
func (s State) GetRelationByID(id int) (Relation, error) {
	for _, rel := range s.Relations {
		if rel.RelationID() == id {
			return rel, nil
		}
	}
	return nil, errors.NotFoundf("relation %d", id)
}

// GetRelations returns all relations on the given endpoint.
func (s State) GetRelations(endpoint string) []Relation {
	var out []Relation
	for _, rel := range s.Relations {
		if rel.EndpointName() == endpoint {
			out = append(out, rel)
		}
	}
	return out
}

// GetContainer returns the container with the given name.
func (s State) GetContainer(name string) (*Container, error) {
	for i := range s.Containers {
		if s.Containers[i].Name == name {
			return &s.Containers[i], nil
		}
	}
	return nil, errors.NotFoundf("container %q", name)
}

// GetStorage returns the storage instance with the given name and
// index.
func (s State) GetStorage(name string, index int) (*Storage, error) {
	for i := range s.Storages {
		if s.Storages[i].Name == name && s.Storages[i].Index == index {
			return &s.Storages[i], nil
		}
	}
	return nil, errors.NotFoundf("storage %s/%d", name, index)
}

// GetStorages returns all attached instances of the named storage.
func (s State) GetStorages(name string) []Storage {
	var out []Storage
	for _, st := range s.Storages {
		if st.Name == name {
			out = append(out, st)
		}
	}
	return out
}

// GetSecret returns the secret with the given id.
func (s State) GetSecret(id string) (*Secret, error) {
	for i := range s.Secrets {
		if s.Secrets[i].ID == id {
			return &s.Secrets[i], nil
		}
	}
	return nil, errors.NotFoundf("secret %q", id)
}

// GetSecretByLabel returns the secret carrying the given label.
func (s State) GetSecretByLabel(label string) (*Secret, error) {
	for i := range s.Secrets {
		if s.Secrets[i].Label == label {
			return &s.Secrets[i], nil
		}
	}
	return nil, errors.NotFoundf("secret with label %q", label)
}

// GetStoredState returns the stored state with the given owner and
// name.
func (s State) GetStoredState(owner, name string) (*StoredState, error) {
	for i := range s.StoredState {
		ss := &s.StoredState[i]
		if ss.Owner == owner && ss.Name == name {
			return ss, nil
		}
	}
	return nil, errors.NotFoundf("stored state %s/%s", owner, name)
}

// Copy returns a deep copy of the state. Runs operate on copies so the
// caller's input state stays pristine for comparison with the output.
func (s State) Copy() State {
	out := s
	if s.Config != nil {
		out.Config = make(map[string]interface{}, len(s.Config))
		for k, v := range s.Config {
			out.Config[k] = v
		}
	}
	out.UnitStatus = s.UnitStatus.Copy()
	out.UnitStatusHistory = copyStatusHistory(s.UnitStatusHistory)
	out.AppStatus = s.AppStatus.Copy()
	out.AppStatusHistory = copyStatusHistory(s.AppStatusHistory)
	if s.Relations != nil {
		out.Relations = make([]Relation, len(s.Relations))
		for i, rel := range s.Relations {
			out.Relations[i] = rel.CopyRelation()
		}
	}
	if s.Networks != nil {
		out.Networks = make(map[string]Network, len(s.Networks))
		for name, n := range s.Networks {
			out.Networks[name] = n.Copy()
		}
	}
	if s.Containers != nil {
		out.Containers = make([]Container, len(s.Containers))
		for i, c := range s.Containers {
			out.Containers[i] = c.Copy()
		}
	}
	out.Storages = append([]Storage(nil), s.Storages...)
	if s.Secrets != nil {
		out.Secrets = make([]Secret, len(s.Secrets))
		for i, sec := range s.Secrets {
			out.Secrets[i] = sec.Copy()
		}
	}
	if s.StoredState != nil {
		out.StoredState = make([]StoredState, len(s.StoredState))
		for i, ss := range s.StoredState {
			out.StoredState[i] = ss.Copy()
		}
	}
	out.Resources = copyBag(s.Resources)
	out.OpenedPorts = append([]Port(nil), s.OpenedPorts...)
	out.Deferred = copyDeferred(s.Deferred)
	return out
}
