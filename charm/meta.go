// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charm holds the declaration side of a scenario: the metadata,
// config and actions a charm ships with, and readers for their YAML forms.
package charm

import (
	"io"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"
)

// RelationRole describes which side of a relation an endpoint takes.
type RelationRole string

const (
	RoleProvider RelationRole = "provider"
	RoleRequirer RelationRole = "requirer"
	RolePeer     RelationRole = "peer"
)

// RelationScope describes the scope of a relation endpoint.
type RelationScope string

const (
	// ScopeGlobal relations reach any remote application in the model.
	ScopeGlobal RelationScope = "global"

	// ScopeContainer relations are restricted to the principal unit the
	// subordinate is deployed alongside.
	ScopeContainer RelationScope = "container"
)

// Relation represents a single relation endpoint defined in the charm
// metadata.
type Relation struct {
	Name      string
	Role      RelationRole
	Interface string
	Optional  bool
	Limit     int
	Scope     RelationScope
}

// IsSubordinate reports whether the endpoint is container-scoped, which
// is the mark of a subordinate relation.
func (r Relation) IsSubordinate() bool {
	return r.Scope == ScopeContainer
}

// StorageType defines a storage pool type.
type StorageType string

const (
	StorageBlock      StorageType = "block"
	StorageFilesystem StorageType = "filesystem"
)

// Storage represents a charm's storage requirement.
type Storage struct {
	Name        string
	Type        StorageType
	Description string
	ReadOnly    bool
	CountMin    int
	CountMax    int
	Location    string
}

// Mount allows a container to mount a storage volume.
type Mount struct {
	Storage  string
	Location string
}

// Container declares a workload container and the storage mounted in it.
type Container struct {
	Resource string
	Mounts   []Mount
}

// Resource represents a charm resource declaration.
type Resource struct {
	Name        string
	Type        string
	Description string
}

// ExtraBinding represents a network binding not tied to a relation
// endpoint. Kept for completeness; the feature is deprecated upstream.
type ExtraBinding struct {
	Name string
}

// Meta represents all the known content that may be defined within a
// charm's metadata declaration.
type Meta struct {
	Name          string
	Summary       string
	Description   string
	Subordinate   bool
	Provides      map[string]Relation
	Requires      map[string]Relation
	Peers         map[string]Relation
	ExtraBindings map[string]ExtraBinding
	Storage       map[string]Storage
	Containers    map[string]Container
	Resources     map[string]Resource
}

// AllRelations returns a map of all relation endpoints declared in the
// metadata, whichever role they have.
func (m *Meta) AllRelations() map[string]Relation {
	all := make(map[string]Relation)
	for name, rel := range m.Provides {
		all[name] = rel
	}
	for name, rel := range m.Requires {
		all[name] = rel
	}
	for name, rel := range m.Peers {
		all[name] = rel
	}
	return all
}

// Endpoint returns the declared relation endpoint with the given name.
func (m *Meta) Endpoint(name string) (Relation, bool) {
	rel, ok := m.AllRelations()[name]
	return rel, ok
}

// Validate returns an error if the metadata is not sane.
func (m *Meta) Validate() error {
	if m.Name == "" {
		return errors.NotValidf("metadata without name")
	}
	seen := make(map[string]bool)
	for _, block := range []map[string]Relation{m.Provides, m.Requires, m.Peers} {
		for name := range block {
			if seen[name] {
				return errors.NotValidf("duplicate relation endpoint %q", name)
			}
			seen[name] = true
		}
	}
	for name := range m.ExtraBindings {
		if seen[name] {
			return errors.NotValidf("extra binding %q clashing with a relation endpoint", name)
		}
	}
	return nil
}

// ReadMeta reads the content of a metadata.yaml declaration and returns
// its representation.
func ReadMeta(r io.Reader) (*Meta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "parsing metadata")
	}
	v, err := charmSchema.Coerce(raw, nil)
	if err != nil {
		return nil, errors.Annotate(err, "metadata")
	}
	m := v.(map[string]interface{})
	meta := &Meta{
		Name:          m["name"].(string),
		Summary:       optionalString(m, "summary"),
		Description:   optionalString(m, "description"),
		Provides:      parseRelations(m["provides"], RoleProvider),
		Requires:      parseRelations(m["requires"], RoleRequirer),
		Peers:         parseRelations(m["peers"], RolePeer),
		ExtraBindings: parseExtraBindings(m["extra-bindings"]),
		Storage:       parseStorage(m["storage"]),
		Containers:    parseContainers(m["containers"]),
		Resources:     parseResources(m["resources"]),
	}
	if subordinate, ok := m["subordinate"].(bool); ok {
		meta.Subordinate = subordinate
	}
	if err := meta.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return meta, nil
}

func optionalString(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func parseRelations(relations interface{}, role RelationRole) map[string]Relation {
	if relations == nil {
		return nil
	}
	result := make(map[string]Relation)
	for name, rel := range relations.(map[string]interface{}) {
		relMap := rel.(map[string]interface{})
		relation := Relation{
			Name:      name,
			Role:      role,
			Interface: relMap["interface"].(string),
			Scope:     ScopeGlobal,
		}
		if scope, ok := relMap["scope"].(string); ok {
			relation.Scope = RelationScope(scope)
		}
		if optional, ok := relMap["optional"].(bool); ok {
			relation.Optional = optional
		}
		if limit, ok := relMap["limit"].(int64); ok {
			relation.Limit = int(limit)
		}
		if role == RolePeer {
			// Peer endpoints are always global scope, whatever the
			// declaration says.
			relation.Scope = ScopeGlobal
		}
		result[name] = relation
	}
	return result
}

func parseExtraBindings(bindings interface{}) map[string]ExtraBinding {
	if bindings == nil {
		return nil
	}
	result := make(map[string]ExtraBinding)
	for name := range bindings.(map[string]interface{}) {
		result[name] = ExtraBinding{Name: name}
	}
	return result
}

func parseStorage(stores interface{}) map[string]Storage {
	if stores == nil {
		return nil
	}
	result := make(map[string]Storage)
	for name, raw := range stores.(map[string]interface{}) {
		sm := raw.(map[string]interface{})
		store := Storage{
			Name:     name,
			Type:     StorageType(sm["type"].(string)),
			CountMin: 1,
			CountMax: 1,
		}
		if desc, ok := sm["description"].(string); ok {
			store.Description = desc
		}
		if ro, ok := sm["read-only"].(bool); ok {
			store.ReadOnly = ro
		}
		if loc, ok := sm["location"].(string); ok {
			store.Location = loc
		}
		result[name] = store
	}
	return result
}

func parseContainers(containers interface{}) map[string]Container {
	if containers == nil {
		return nil
	}
	result := make(map[string]Container)
	for name, raw := range containers.(map[string]interface{}) {
		cm := raw.(map[string]interface{})
		container := Container{}
		if res, ok := cm["resource"].(string); ok {
			container.Resource = res
		}
		if mounts, ok := cm["mounts"].([]interface{}); ok {
			for _, rawMount := range mounts {
				mm := rawMount.(map[string]interface{})
				container.Mounts = append(container.Mounts, Mount{
					Storage:  mm["storage"].(string),
					Location: mm["location"].(string),
				})
			}
		}
		result[name] = container
	}
	return result
}

func parseResources(resources interface{}) map[string]Resource {
	if resources == nil {
		return nil
	}
	result := make(map[string]Resource)
	for name, raw := range resources.(map[string]interface{}) {
		rm := raw.(map[string]interface{})
		resource := Resource{Name: name, Type: "file"}
		if typ, ok := rm["type"].(string); ok {
			resource.Type = typ
		}
		if desc, ok := rm["description"].(string); ok {
			resource.Description = desc
		}
		result[name] = resource
	}
	return result
}

// Schema coercer that expands the interface shorthand notation. A
// consistent format is easier to work with than considering the
// potential difference everywhere.
//
// Supports the following variants:
//
//	provides:
//	  server: riak
//	  admin: http
//	  foobar:
//	    interface: blah
func ifaceExpander(limit interface{}) schema.Checker {
	return ifaceExpC{limit}
}

type ifaceExpC struct {
	limit interface{}
}

var (
	stringC = schema.String()
	mapC    = schema.StringMap(schema.Any())
)

func (c ifaceExpC) Coerce(v interface{}, path []string) (interface{}, error) {
	if s, err := stringC.Coerce(v, path); err == nil {
		expanded := map[string]interface{}{
			"interface": s,
			"optional":  false,
		}
		if c.limit != nil {
			expanded["limit"] = c.limit
		}
		return expanded, nil
	}
	v, err := mapC.Coerce(v, path)
	if err != nil {
		return nil, err
	}
	m := v.(map[string]interface{})
	if _, ok := m["limit"]; !ok && c.limit != nil {
		m["limit"] = c.limit
	}
	return ifaceSchema.Coerce(m, path)
}

var ifaceSchema = schema.FieldMap(
	schema.Fields{
		"interface": schema.String(),
		"limit":     schema.Int(),
		"scope":     schema.String(),
		"optional":  schema.Bool(),
	},
	schema.Defaults{
		"scope":    schema.Omit,
		"optional": schema.Omit,
		"limit":    schema.Omit,
	},
)

var storageSchema = schema.FieldMap(
	schema.Fields{
		"type":        schema.OneOf(schema.Const(string(StorageBlock)), schema.Const(string(StorageFilesystem))),
		"read-only":   schema.Bool(),
		"description": schema.String(),
		"location":    schema.String(),
	},
	schema.Defaults{
		"read-only":   schema.Omit,
		"description": schema.Omit,
		"location":    schema.Omit,
	},
)

var containerSchema = schema.FieldMap(
	schema.Fields{
		"resource": schema.String(),
		"mounts": schema.List(schema.FieldMap(
			schema.Fields{
				"storage":  schema.String(),
				"location": schema.String(),
			},
			schema.Defaults{},
		)),
	},
	schema.Defaults{
		"resource": schema.Omit,
		"mounts":   schema.Omit,
	},
)

var resourceSchema = schema.FieldMap(
	schema.Fields{
		"type":        schema.String(),
		"description": schema.String(),
	},
	schema.Defaults{
		"type":        schema.Omit,
		"description": schema.Omit,
	},
)

var charmSchema = schema.FieldMap(
	schema.Fields{
		"name":           schema.String(),
		"summary":        schema.String(),
		"description":    schema.String(),
		"subordinate":    schema.Bool(),
		"provides":       schema.StringMap(ifaceExpander(nil)),
		"requires":       schema.StringMap(ifaceExpander(int64(1))),
		"peers":          schema.StringMap(ifaceExpander(int64(1))),
		"extra-bindings": schema.StringMap(schema.Any()),
		"storage":        schema.StringMap(storageSchema),
		"containers":     schema.StringMap(containerSchema),
		"resources":      schema.StringMap(resourceSchema),
	},
	schema.Defaults{
		"summary":        schema.Omit,
		"description":    schema.Omit,
		"subordinate":    schema.Omit,
		"provides":       schema.Omit,
		"requires":       schema.Omit,
		"peers":          schema.Omit,
		"extra-bindings": schema.Omit,
		"storage":        schema.Omit,
		"containers":     schema.Omit,
		"resources":      schema.Omit,
	},
)
