// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"github.com/canonical/pebble/client"
)

// Exec declares the mocked outcome of a workload exec call. Command is
// matched against the argv the charm passes to exec: of all declared
// vectors that are a prefix of the argv, the longest wins.
type Exec struct {
	Command    []string
	ReturnCode int
	Stdout     string
	Stderr     string

	// Stdin records what the charm wrote to the process, filled in by
	// the backend when the exec runs.
	Stdin string
}

// Mount is a filesystem subtree visible inside a workload container.
// Files maps absolute paths under Location to their content; the
// harness never touches the real filesystem for container content.
type Mount struct {
	Location string
	Files    map[string]string
}

// Copy returns a deep copy of the mount.
func (m Mount) Copy() Mount {
	out := m
	if m.Files != nil {
		out.Files = make(map[string]string, len(m.Files))
		for k, v := range m.Files {
			out.Files[k] = v
		}
	}
	return out
}

// Container models one workload container and the slice of Pebble state
// the charm can observe through it.
type Container struct {
	Name       string
	CanConnect bool

	// Mounts maps mount names to their modelled content.
	Mounts map[string]Mount

	// Execs lists the exec calls the workload is prepared to answer.
	Execs []Exec

	// ServiceStatuses maps Pebble service names to their current status.
	ServiceStatuses map[string]client.ServiceStatus

	// Notices are the Pebble notices pending in this container.
	Notices []Notice

	// CheckInfos are the Pebble check results reported by this
	// container.
	CheckInfos []CheckInfo
}

// Notice is a Pebble notice the charm can observe.
type Notice struct {
	ID          string
	Type        string
	Key         string
	Occurrences int
}

// CheckInfo is the result of a Pebble health check.
type CheckInfo struct {
	Name     string
	Level    string
	Status   string
	Failures int
}

// Copy returns a deep copy of the container.
func (c Container) Copy() Container {
	out := c
	if c.Mounts != nil {
		out.Mounts = make(map[string]Mount, len(c.Mounts))
		for name, m := range c.Mounts {
			out.Mounts[name] = m.Copy()
		}
	}
	if c.Execs != nil {
		out.Execs = make([]Exec, len(c.Execs))
		for i, e := range c.Execs {
			e.Command = append([]string(nil), e.Command...)
			out.Execs[i] = e
		}
	}
	if c.ServiceStatuses != nil {
		out.ServiceStatuses = make(map[string]client.ServiceStatus, len(c.ServiceStatuses))
		for name, status := range c.ServiceStatuses {
			out.ServiceStatuses[name] = status
		}
	}
	out.Notices = append([]Notice(nil), c.Notices...)
	out.CheckInfos = append([]CheckInfo(nil), c.CheckInfos...)
	return out
}

// MatchExec returns the declared exec whose Command is the longest
// prefix of argv, or false when no declared command matches. The
// returned pointer aliases the container's exec table so the caller
// can record the run on it.
func (c *Container) MatchExec(argv []string) (*Exec, bool) {
	best := -1
	match := -1
	for i, e := range c.Execs {
		if len(e.Command) > len(argv) || len(e.Command) <= best {
			continue
		}
		ok := true
		for j, word := range e.Command {
			if argv[j] != word {
				ok = false
				break
			}
		}
		if ok {
			best = len(e.Command)
			match = i
		}
	}
	if match < 0 {
		return nil, false
	}
	return &c.Execs[match], true
}
