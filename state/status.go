// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"time"
)

// Status represents the workload status of a unit or application.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

const (
	// Unknown is the initial status of every fresh unit: the charm has
	// not called status-set yet. It is the current status of a fresh
	// backend and never appears in the history until it is replaced.
	Unknown Status = "unknown"

	// Maintenance means the unit is not yet providing services, but is
	// actively doing work in preparation for providing those services.
	Maintenance Status = "maintenance"

	// Waiting means the unit is unable to progress because an
	// application it is integrated with is not running.
	Waiting Status = "waiting"

	// Blocked means the unit needs manual intervention to get back to
	// the Active state.
	Blocked Status = "blocked"

	// Active means the unit believes it is correctly offering all the
	// services it has been asked to offer.
	Active Status = "active"

	// Error means the entity requires human intervention in order to
	// operate correctly.
	Error Status = "error"
)

// KnownWorkloadStatus reports whether the status is a value a charm may
// set on itself.
func (s Status) KnownWorkloadStatus() bool {
	switch s {
	case Maintenance, Waiting, Blocked, Active:
		return true
	}
	return false
}

// StatusInfo holds a Status and associated information.
type StatusInfo struct {
	Status  Status
	Message string
	Data    map[string]interface{}
	Since   *time.Time
}

// UnknownStatus returns the status of an entity nothing has ever set a
// status on.
func UnknownStatus() StatusInfo {
	return StatusInfo{Status: Unknown}
}

// Copy returns a deep copy of the status info.
func (s StatusInfo) Copy() StatusInfo {
	out := s
	if s.Data != nil {
		out.Data = make(map[string]interface{}, len(s.Data))
		for k, v := range s.Data {
			out.Data[k] = v
		}
	}
	if s.Since != nil {
		since := *s.Since
		out.Since = &since
	}
	return out
}

func copyStatusHistory(history []StatusInfo) []StatusInfo {
	if history == nil {
		return nil
	}
	out := make([]StatusInfo, len(history))
	for i, info := range history {
		out[i] = info.Copy()
	}
	return out
}
