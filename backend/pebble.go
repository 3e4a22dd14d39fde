// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package backend

import (
	"path"
	"strings"

	"github.com/canonical/pebble/client"
	"github.com/juju/errors"
	"github.com/juju/naturalsort"

	"github.com/juju/scenario/state"
)

// ExecResult is the outcome of a modeled exec call.
type ExecResult struct {
	ReturnCode int
	Stdout     string
	Stderr     string
}

// CanConnect reports whether the pebble socket of the named container
// is reachable.
func (b *Backend) CanConnect(container string) (bool, error) {
	ctr, err := b.st.GetContainer(container)
	if err != nil {
		return false, errors.Trace(err)
	}
	return ctr.CanConnect, nil
}

func (b *Backend) connectedContainer(container string) (*state.Container, error) {
	ctr, err := b.st.GetContainer(container)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !ctr.CanConnect {
		return nil, errors.Errorf("cannot connect to pebble in container %q", container)
	}
	return ctr, nil
}

// Push writes content to a file in the container.
func (b *Backend) Push(container, filePath, content string) error {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return errors.Trace(err)
	}
	for name, m := range ctr.Mounts {
		if filePath == m.Location || strings.HasPrefix(filePath, m.Location+"/") {
			if m.Files == nil {
				m.Files = make(map[string]string)
				ctr.Mounts[name] = m
			}
			m.Files[filePath] = content
			return nil
		}
	}
	return errors.NotFoundf("mount holding %q in container %q", filePath, container)
}

// Pull reads a file from the container.
func (b *Backend) Pull(container, filePath string) (string, error) {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return "", errors.Trace(err)
	}
	for _, m := range ctr.Mounts {
		if content, ok := m.Files[filePath]; ok {
			return content, nil
		}
	}
	return "", errors.NotFoundf("file %q in container %q", filePath, container)
}

// ListFiles returns the paths of the files directly under dir in the
// container, in natural sort order.
func (b *Backend) ListFiles(container, dir string) ([]string, error) {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dir = strings.TrimSuffix(dir, "/")
	seen := make(map[string]bool)
	var out []string
	for _, m := range ctr.Mounts {
		for p := range m.Files {
			if path.Dir(p) != dir {
				continue
			}
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.NotFoundf("directory %q in container %q", dir, container)
	}
	naturalsort.Sort(out)
	return out, nil
}

// Exec runs a modeled command in the container. Of all modeled command
// vectors that are a prefix of argv, the longest wins; an unmodeled
// argv is a not-found error.
func (b *Backend) Exec(container string, argv []string, stdin string) (ExecResult, error) {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return ExecResult{}, errors.Trace(err)
	}
	match, ok := ctr.MatchExec(argv)
	if !ok {
		return ExecResult{}, errors.NotFoundf("command %q in container %q", strings.Join(argv, " "), container)
	}
	if stdin != "" {
		match.Stdin = stdin
	}
	return ExecResult{
		ReturnCode: match.ReturnCode,
		Stdout:     match.Stdout,
		Stderr:     match.Stderr,
	}, nil
}

// ServiceStatuses returns the status of every pebble service modeled in
// the container.
func (b *Backend) ServiceStatuses(container string) (map[string]client.ServiceStatus, error) {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return nil, errors.Trace(err)
	}
	out := make(map[string]client.ServiceStatus, len(ctr.ServiceStatuses))
	for name, status := range ctr.ServiceStatuses {
		out[name] = status
	}
	return out, nil
}

// SetServiceStatus records a pebble service status change, as a
// start/stop/restart of the service would.
func (b *Backend) SetServiceStatus(container, service string, status client.ServiceStatus) error {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return errors.Trace(err)
	}
	if ctr.ServiceStatuses == nil {
		ctr.ServiceStatuses = make(map[string]client.ServiceStatus)
	}
	ctr.ServiceStatuses[service] = status
	return nil
}

// PebbleNotices returns the notices pending in the container.
func (b *Backend) PebbleNotices(container string) ([]state.Notice, error) {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return append([]state.Notice(nil), ctr.Notices...), nil
}

// PebbleChecks returns the health check results reported by the
// container.
func (b *Backend) PebbleChecks(container string) ([]state.CheckInfo, error) {
	ctr, err := b.connectedContainer(container)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return append([]state.CheckInfo(nil), ctr.CheckInfos...), nil
}
