// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package scenario

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/scenario/checker"
)

// InconsistentStateError aborts a run before any charm code executes:
// the (metadata, event, state) triple the test supplied could never
// occur on a real controller.
type InconsistentStateError struct {
	Violations []checker.Violation
}

// Error is part of the error interface.
func (e *InconsistentStateError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("inconsistent scenario: %s", strings.Join(msgs, "; "))
}

// IsInconsistentState reports whether the error marks a consistency
// check failure.
func IsInconsistentState(err error) bool {
	var target *InconsistentStateError
	return errors.As(errors.Cause(err), &target)
}
