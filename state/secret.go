// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"time"

	"github.com/juju/collections/set"
	"github.com/juju/utils/v4"
)

// SecretOwner says which entity, if any, owns a secret from the point
// of view of the charm under test.
type SecretOwner string

const (
	// OwnerNone marks a secret some other application owns. The charm
	// can read it only if it has been granted access.
	OwnerNone SecretOwner = ""

	// OwnerApp marks an application-owned secret. Management requires
	// leadership.
	OwnerApp SecretOwner = "app"

	// OwnerUnit marks a secret owned by this unit.
	OwnerUnit SecretOwner = "unit"
)

// RotatePolicy is a secret rotation policy.
type RotatePolicy string

const (
	RotateNever   RotatePolicy = "never"
	RotateHourly  RotatePolicy = "hourly"
	RotateDaily   RotatePolicy = "daily"
	RotateWeekly  RotatePolicy = "weekly"
	RotateMonthly RotatePolicy = "monthly"
	RotateYearly  RotatePolicy = "yearly"
)

// Secret models one juju secret and the charm's standing with respect
// to it.
type Secret struct {
	ID          string
	Label       string
	Description string

	// Contents maps revision numbers to that revision's payload.
	Contents map[int]map[string]string

	// TrackedRevision is the revision this unit currently tracks. Zero
	// means the latest revision in Contents.
	TrackedRevision int

	Owner  SecretOwner
	Rotate RotatePolicy

	// Grants maps relation ids to the entity names granted read access
	// over that relation. For owned secrets the names are remote
	// applications or units; for secrets of other owners the local
	// application or unit name appearing here is what makes the secret
	// readable at all.
	Grants map[int]set.Strings

	ExpireTime *time.Time
}

// NewSecretID returns a fresh secret id in juju's URI form.
func NewSecretID() string {
	return "secret:" + utils.MustNewUUID().String()
}

// LatestRevision returns the secret's highest revision number.
func (s Secret) LatestRevision() int {
	latest := 0
	for rev := range s.Contents {
		if rev > latest {
			latest = rev
		}
	}
	return latest
}

// CurrentRevision returns the revision this unit reads by default.
func (s Secret) CurrentRevision() int {
	if s.TrackedRevision != 0 {
		return s.TrackedRevision
	}
	return s.LatestRevision()
}

// GrantedTo reports whether the named entity (an application or unit
// name) appears in any of the secret's grants.
func (s Secret) GrantedTo(name string) bool {
	for _, grantees := range s.Grants {
		if grantees.Contains(name) {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the secret.
func (s Secret) Copy() Secret {
	out := s
	if s.Contents != nil {
		out.Contents = make(map[int]map[string]string, len(s.Contents))
		for rev, payload := range s.Contents {
			out.Contents[rev] = copyBag(payload)
		}
	}
	if s.Grants != nil {
		out.Grants = make(map[int]set.Strings, len(s.Grants))
		for relID, grantees := range s.Grants {
			out.Grants[relID] = set.NewStrings(grantees.Values()...)
		}
	}
	if s.ExpireTime != nil {
		t := *s.ExpireTime
		out.ExpireTime = &t
	}
	return out
}
