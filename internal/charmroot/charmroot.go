// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charmroot renders the transient on-disk charm directory a
// run executes against. The directory only carries the declaration
// files charm frameworks expect to find next to themselves; all
// runtime "I/O" is served in memory by the backend.
package charmroot

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/juju/scenario/charm"
)

// Args holds the declarations to render into the root.
type Args struct {
	Meta    *charm.Meta
	Config  *charm.Config
	Actions *charm.Actions
}

// Write creates a temporary charm root holding the rendered
// declarations and returns its path. The caller owns the directory and
// must Remove it on every exit path.
func Write(args Args) (string, error) {
	if args.Meta == nil {
		return "", errors.NotValidf("charm root without metadata")
	}
	root, err := os.MkdirTemp("", "scenario-charm-")
	if err != nil {
		return "", errors.Trace(err)
	}
	if err := writeYAML(root, "metadata.yaml", metaDoc(args.Meta)); err != nil {
		_ = os.RemoveAll(root)
		return "", errors.Trace(err)
	}
	if args.Config != nil {
		if err := writeYAML(root, "config.yaml", configDoc(args.Config)); err != nil {
			_ = os.RemoveAll(root)
			return "", errors.Trace(err)
		}
	}
	if args.Actions != nil {
		if err := writeYAML(root, "actions.yaml", actionsDoc(args.Actions)); err != nil {
			_ = os.RemoveAll(root)
			return "", errors.Trace(err)
		}
	}
	return root, nil
}

// Remove deletes a charm root created by Write.
func Remove(root string) error {
	if root == "" {
		return nil
	}
	return errors.Trace(os.RemoveAll(root))
}

func writeYAML(root, name string, doc interface{}) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(filepath.Join(root, name), data, 0o644))
}

func metaDoc(meta *charm.Meta) map[string]interface{} {
	doc := map[string]interface{}{
		"name": meta.Name,
	}
	if meta.Summary != "" {
		doc["summary"] = meta.Summary
	}
	if meta.Description != "" {
		doc["description"] = meta.Description
	}
	if meta.Subordinate {
		doc["subordinate"] = true
	}
	addRelations(doc, "provides", meta.Provides)
	addRelations(doc, "requires", meta.Requires)
	addRelations(doc, "peers", meta.Peers)
	if len(meta.ExtraBindings) > 0 {
		bindings := make(map[string]interface{}, len(meta.ExtraBindings))
		for name := range meta.ExtraBindings {
			bindings[name] = nil
		}
		doc["extra-bindings"] = bindings
	}
	if len(meta.Storage) > 0 {
		stores := make(map[string]interface{}, len(meta.Storage))
		for name, st := range meta.Storage {
			entry := map[string]interface{}{"type": string(st.Type)}
			if st.Description != "" {
				entry["description"] = st.Description
			}
			if st.ReadOnly {
				entry["read-only"] = true
			}
			if st.Location != "" {
				entry["location"] = st.Location
			}
			stores[name] = entry
		}
		doc["storage"] = stores
	}
	if len(meta.Containers) > 0 {
		containers := make(map[string]interface{}, len(meta.Containers))
		for name, ctr := range meta.Containers {
			entry := map[string]interface{}{}
			if ctr.Resource != "" {
				entry["resource"] = ctr.Resource
			}
			if len(ctr.Mounts) > 0 {
				var mounts []interface{}
				for _, m := range ctr.Mounts {
					mounts = append(mounts, map[string]interface{}{
						"storage":  m.Storage,
						"location": m.Location,
					})
				}
				entry["mounts"] = mounts
			}
			containers[name] = entry
		}
		doc["containers"] = containers
	}
	if len(meta.Resources) > 0 {
		resources := make(map[string]interface{}, len(meta.Resources))
		for name, res := range meta.Resources {
			entry := map[string]interface{}{"type": res.Type}
			if res.Description != "" {
				entry["description"] = res.Description
			}
			resources[name] = entry
		}
		doc["resources"] = resources
	}
	return doc
}

func addRelations(doc map[string]interface{}, key string, endpoints map[string]charm.Relation) {
	if len(endpoints) == 0 {
		return
	}
	block := make(map[string]interface{}, len(endpoints))
	for name, ep := range endpoints {
		entry := map[string]interface{}{"interface": ep.Interface}
		if ep.Scope == charm.ScopeContainer {
			entry["scope"] = string(ep.Scope)
		}
		if ep.Optional {
			entry["optional"] = true
		}
		if ep.Limit > 0 {
			entry["limit"] = ep.Limit
		}
		block[name] = entry
	}
	doc[key] = block
}

func configDoc(cfg *charm.Config) map[string]interface{} {
	options := make(map[string]interface{}, len(cfg.Options))
	for name, opt := range cfg.Options {
		entry := map[string]interface{}{"type": opt.Type}
		if opt.Description != "" {
			entry["description"] = opt.Description
		}
		if opt.Default != nil {
			entry["default"] = opt.Default
		}
		options[name] = entry
	}
	return map[string]interface{}{"options": options}
}

func actionsDoc(actions *charm.Actions) map[string]interface{} {
	doc := make(map[string]interface{}, len(actions.ActionSpecs))
	for name, spec := range actions.ActionSpecs {
		entry := map[string]interface{}{}
		if spec.Description != "" {
			entry["description"] = spec.Description
		}
		if len(spec.Params) > 0 {
			params := make(map[string]interface{}, len(spec.Params))
			for pname, decl := range spec.Params {
				params[pname] = decl
			}
			entry["params"] = params
		}
		doc[name] = entry
	}
	return doc
}
