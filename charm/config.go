// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"io"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"
)

// Option represents a single configuration option declared by a charm.
type Option struct {
	Type        string
	Description string
	Default     interface{}
}

// Config represents the supported configuration options for a charm.
type Config struct {
	Options map[string]Option
}

// ReadConfig reads a config.yaml declaration and returns its
// representation.
func ReadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "parsing config")
	}
	v, err := configSchema.Coerce(raw, nil)
	if err != nil {
		return nil, errors.Annotate(err, "config")
	}
	m := v.(map[string]interface{})
	cfg := &Config{Options: make(map[string]Option)}
	options, _ := m["options"].(map[string]interface{})
	for name, rawOption := range options {
		om := rawOption.(map[string]interface{})
		option := Option{}
		typ, ok := om["type"].(string)
		if !ok {
			return nil, errors.NotValidf("option %q without type", name)
		}
		if optionCheckers[typ] == nil {
			return nil, errors.NotValidf("option %q with unknown type %q", name, typ)
		}
		option.Type = typ
		if desc, ok := om["description"].(string); ok {
			option.Description = desc
		}
		if def, ok := om["default"]; ok && def != nil {
			coerced, err := option.validate(name, def)
			if err != nil {
				return nil, errors.Annotatef(err, "default for option %q", name)
			}
			option.Default = coerced
		}
		cfg.Options[name] = option
	}
	return cfg, nil
}

// optionCheckers maps declared option types to their value checkers.
var optionCheckers = map[string]schema.Checker{
	"string":  schema.String(),
	"int":     schema.Int(),
	"float":   schema.Float(),
	"boolean": schema.Bool(),
	"secret":  schema.String(),
}

func (option Option) validate(name string, value interface{}) (interface{}, error) {
	checker := optionCheckers[option.Type]
	if checker == nil {
		return nil, errors.NotValidf("option %q with unknown type %q", name, option.Type)
	}
	v, err := checker.Coerce(value, nil)
	if err != nil {
		return nil, errors.NotValidf("value %v for %s option %q", value, option.Type, name)
	}
	return v, nil
}

// ValidateSettings checks that every setting is a declared option with a
// value of the declared type, and returns the settings with values
// coerced to their canonical form.
func (c *Config) ValidateSettings(settings map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(settings))
	for name, value := range settings {
		option, ok := c.Options[name]
		if !ok {
			return nil, errors.NotValidf("unknown option %q", name)
		}
		if value == nil {
			out[name] = nil
			continue
		}
		coerced, err := option.validate(name, value)
		if err != nil {
			return nil, errors.Trace(err)
		}
		out[name] = coerced
	}
	return out, nil
}

// DefaultSettings returns settings containing the default value of every
// option that has one.
func (c *Config) DefaultSettings() map[string]interface{} {
	out := make(map[string]interface{})
	for name, option := range c.Options {
		if option.Default != nil {
			out[name] = option.Default
		}
	}
	return out
}

var configSchema = schema.FieldMap(
	schema.Fields{
		"options": schema.StringMap(schema.StringMap(schema.Any())),
	},
	schema.Defaults{
		"options": schema.Omit,
	},
)

// Settings is a group of charm config option values.
type Settings = map[string]interface{}
