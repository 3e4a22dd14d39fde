// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package backend answers every hook-tool style query or mutation a
// charm can issue during one scenario run, purely from an in-memory
// working copy of the input state. Nothing here touches the network or
// the filesystem; permission and not-found failures come back as
// distinguishable error kinds so charm code can branch on them the way
// it would against a real controller.
package backend

import (
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/scenario/charm"
	"github.com/juju/scenario/event"
	"github.com/juju/scenario/state"
)

var logger = loggo.GetLogger("scenario.backend")

// Params holds the arguments for New.
type Params struct {
	Meta    *charm.Meta
	Config  *charm.Config
	Actions *charm.Actions

	// Event is the triggering event of the run.
	Event event.Event

	// State is the working copy the backend mutates. The caller keeps
	// ownership; the dispatcher reads it back after the run.
	State *state.State

	// Clock stamps status changes and secret revisions. Defaults to
	// clock.WallClock.
	Clock clock.Clock
}

// Backend is the mocked runtime one charm talks to for the duration of
// one run. It is not safe for concurrent use; a run is a single
// logical thread of control.
type Backend struct {
	meta    *charm.Meta
	config  *charm.Config
	actions *charm.Actions
	event   event.Event
	st      *state.State
	clock   clock.Clock

	jujuLogs          []JujuLogLine
	requestedStorages []state.RequestedStorage

	actionResults map[string]interface{}
	actionLogs    []string
	actionFailure string
}

// JujuLogLine is one juju-log call captured during the run.
type JujuLogLine struct {
	Level   loggo.Level
	Message string
}

// New returns a backend over the given working state.
func New(p Params) (*Backend, error) {
	if p.Meta == nil {
		return nil, errors.NotValidf("backend without metadata")
	}
	if p.State == nil {
		return nil, errors.NotValidf("backend without state")
	}
	if p.Clock == nil {
		p.Clock = clock.WallClock
	}
	return &Backend{
		meta:    p.Meta,
		config:  p.Config,
		actions: p.Actions,
		event:   p.Event,
		st:      p.State,
		clock:   p.Clock,
	}, nil
}

// State exposes the working copy, for the dispatcher's read-back.
func (b *Backend) State() *state.State { return b.st }

// IsLeader reports whether this unit holds application leadership.
func (b *Backend) IsLeader() (bool, error) {
	return b.st.Leader, nil
}

// UnitStatus returns the unit's current workload status.
func (b *Backend) UnitStatus() (state.StatusInfo, error) {
	return currentStatus(b.st.UnitStatus), nil
}

// currentStatus normalizes a status nothing ever set to the unknown
// sentinel.
func currentStatus(info state.StatusInfo) state.StatusInfo {
	if info.Status == "" {
		return state.UnknownStatus()
	}
	return info.Copy()
}

// SetUnitStatus replaces the unit's workload status. The previous
// current value is appended to the history.
func (b *Backend) SetUnitStatus(info state.StatusInfo) error {
	if !info.Status.KnownWorkloadStatus() {
		return errors.NotValidf("workload status %q", info.Status)
	}
	b.stamp(&info)
	b.st.UnitStatusHistory = append(b.st.UnitStatusHistory, currentStatus(b.st.UnitStatus))
	b.st.UnitStatus = info
	return nil
}

// AppStatus returns the application status. Only the leader may ask.
func (b *Backend) AppStatus() (state.StatusInfo, error) {
	if !b.st.Leader {
		return state.StatusInfo{}, errors.Forbiddenf("%s is not leader and cannot read application status", b.st.UnitName())
	}
	return currentStatus(b.st.AppStatus), nil
}

// SetAppStatus replaces the application status. Only the leader may
// write it.
func (b *Backend) SetAppStatus(info state.StatusInfo) error {
	if !b.st.Leader {
		return errors.Forbiddenf("%s is not leader and cannot set application status", b.st.UnitName())
	}
	if !info.Status.KnownWorkloadStatus() {
		return errors.NotValidf("workload status %q", info.Status)
	}
	b.stamp(&info)
	b.st.AppStatusHistory = append(b.st.AppStatusHistory, currentStatus(b.st.AppStatus))
	b.st.AppStatus = info
	return nil
}

func (b *Backend) stamp(info *state.StatusInfo) {
	if info.Since == nil {
		now := b.clock.Now()
		info.Since = &now
	}
}

// ConfigGet returns the effective charm config: the declaration
// defaults overlaid with the values set in the state.
func (b *Backend) ConfigGet() (map[string]interface{}, error) {
	out := make(map[string]interface{})
	if b.config != nil {
		for k, v := range b.config.DefaultSettings() {
			out[k] = v
		}
	}
	for k, v := range b.st.Config {
		out[k] = v
	}
	return out, nil
}

// Model returns the model the unit lives in.
func (b *Backend) Model() (state.Model, error) {
	return b.st.ModelOrDefault(), nil
}

// PlannedUnits returns the number of units the model plans for this
// application.
func (b *Backend) PlannedUnits() (int, error) {
	if b.st.PlannedUnits == 0 {
		return 1, nil
	}
	return b.st.PlannedUnits, nil
}

// WorkloadVersion returns the workload version last set by the charm.
func (b *Backend) WorkloadVersion() (string, error) {
	return b.st.WorkloadVersion, nil
}

// SetWorkloadVersion records the version of the workload the charm
// manages.
func (b *Backend) SetWorkloadVersion(v string) error {
	b.st.WorkloadVersion = v
	return nil
}

// OpenPort opens a port range on the unit. Opening an already-open
// range is a no-op.
func (b *Backend) OpenPort(protocol string, port, endPort int) error {
	p := state.Port{Protocol: protocol, Port: port, EndPort: endPort}
	for _, existing := range b.st.OpenedPorts {
		if existing == p {
			return nil
		}
	}
	b.st.OpenedPorts = append(b.st.OpenedPorts, p)
	return nil
}

// ClosePort closes a port range. Closing a range that is not open is a
// no-op.
func (b *Backend) ClosePort(protocol string, port, endPort int) error {
	p := state.Port{Protocol: protocol, Port: port, EndPort: endPort}
	for i, existing := range b.st.OpenedPorts {
		if existing == p {
			b.st.OpenedPorts = append(b.st.OpenedPorts[:i], b.st.OpenedPorts[i+1:]...)
			return nil
		}
	}
	return nil
}

// OpenedPorts returns the port ranges currently open on the unit.
func (b *Backend) OpenedPorts() ([]state.Port, error) {
	return append([]state.Port(nil), b.st.OpenedPorts...), nil
}

// NetworkGet resolves a binding name to its network. Bindings the test
// author did not model resolve to a synthesised default network.
func (b *Backend) NetworkGet(binding string) (state.Network, error) {
	if _, ok := b.meta.Endpoint(binding); !ok {
		if _, ok := b.meta.ExtraBindings[binding]; !ok {
			return state.Network{}, errors.NotFoundf("binding %q", binding)
		}
	}
	if n, ok := b.st.Networks[binding]; ok {
		return n.Copy(), nil
	}
	return state.DefaultNetwork(), nil
}

// ResourceGet returns the local path of the named resource.
func (b *Backend) ResourceGet(name string) (string, error) {
	if _, ok := b.meta.Resources[name]; !ok {
		return "", errors.NotFoundf("resource %q", name)
	}
	path, ok := b.st.Resources[name]
	if !ok {
		return "", errors.NotFoundf("resource %q", name)
	}
	return path, nil
}

// JujuLog records a charm log line and forwards it to the scenario
// logger.
func (b *Backend) JujuLog(level loggo.Level, message string) error {
	b.jujuLogs = append(b.jujuLogs, JujuLogLine{Level: level, Message: message})
	logger.Logf(level, "%s: %s", b.st.UnitName(), message)
	return nil
}

// JujuLogs returns the juju-log lines captured so far, in call order.
func (b *Backend) JujuLogs() []JujuLogLine {
	return append([]JujuLogLine(nil), b.jujuLogs...)
}

// RequestedStorages returns the storage-add requests recorded during
// the run.
func (b *Backend) RequestedStorages() []state.RequestedStorage {
	return append([]state.RequestedStorage(nil), b.requestedStorages...)
}
