// Package config reads the environment and the migration definition files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BartekS5/contentmigrate/internal/tree"
	"github.com/BartekS5/contentmigrate/pkg/models"
	"gopkg.in/yaml.v3"
)

// LoadDefinitions reads every path in order. YAML is used for .yaml and .yml
// files, JSON for everything else. Definitions get their defaults applied and
// are validated. A definition that fails to decode or validate is reported
// and skipped; the others in the same file still load. All problems are
// returned together.
func LoadDefinitions(paths ...string) ([]models.Definition, error) {
	var (
		out  []models.Definition
		errs []error
	)
	for _, p := range paths {
		defs, err := loadFile(p)
		if err != nil {
			errs = append(errs, err)
		}
		for _, d := range defs {
			d = normalize(d).WithDefaults()
			if err := d.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p, err))
				continue
			}
			out = append(out, d)
		}
	}
	return out, errors.Join(errs...)
}

func loadFile(path string) ([]models.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file '%s': %w", path, err)
	}

	var (
		defs []models.Definition
		errs []error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		defs, errs = decodeYAML(data)
	default:
		defs, errs = decodeJSON(data)
	}
	if len(errs) > 0 {
		return defs, fmt.Errorf("failed to parse definition file '%s': %w", path, errors.Join(errs...))
	}
	return defs, nil
}

func decodeYAML(data []byte) ([]models.Definition, []error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, []error{err}
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]

	nodes := []*yaml.Node{doc}
	switch {
	case doc.Kind == yaml.SequenceNode:
		nodes = doc.Content
	case doc.Kind == yaml.MappingNode:
		if list, ok := yamlValue(doc, "migrations"); ok {
			if list.Kind != yaml.SequenceNode {
				return nil, []error{fmt.Errorf("line %d: migrations must be a list", list.Line)}
			}
			nodes = list.Content
		}
	}

	var (
		defs []models.Definition
		errs []error
	)
	for i, n := range nodes {
		var d models.Definition
		if err := n.Decode(&d); err != nil {
			errs = append(errs, fmt.Errorf("definition %d (line %d): %w", i+1, n.Line, err))
			continue
		}
		defs = append(defs, d)
	}
	return defs, errs
}

func yamlValue(n *yaml.Node, key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1], true
		}
	}
	return nil, false
}

func decodeJSON(data []byte) ([]models.Definition, []error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var raws []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, []error{err}
		}
	} else {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, []error{err}
		}
		if list, ok := wrapper["migrations"]; ok {
			if err := json.Unmarshal(list, &raws); err != nil {
				return nil, []error{fmt.Errorf("migrations: %w", err)}
			}
		} else {
			raws = []json.RawMessage{trimmed}
		}
	}

	var (
		defs []models.Definition
		errs []error
	)
	for i, raw := range raws {
		var d models.Definition
		if err := json.Unmarshal(raw, &d); err != nil {
			errs = append(errs, fmt.Errorf("definition %d: %w", i+1, err))
			continue
		}
		defs = append(defs, d)
	}
	return defs, errs
}

// normalize turns the free-form values of d into Trees all the way down, so
// numeric-keyed YAML mappings (flexform sections) resolve by path and
// serialize like any other level.
func normalize(d models.Definition) models.Definition {
	d.Source.Filter = normalizeMap(d.Source.Filter)
	for i := range d.Source.FetchFal {
		for j := range d.Source.FetchFal[i].Wheres {
			w := &d.Source.FetchFal[i].Wheres[j]
			w.Value = tree.Normalize(w.Value)
		}
	}
	d.Destination.Change = normalizeMap(d.Destination.Change)
	d.Destination.Default = normalizeMap(d.Destination.Default)

	mappings := make([]models.Descriptor, len(d.Mappings))
	for i, m := range d.Mappings {
		m.Map = normalizeMap(m.Map)
		m.Default = tree.Normalize(m.Default)
		if m.Overrides != nil {
			overrides := make([]map[string]any, len(m.Overrides))
			for j, o := range m.Overrides {
				overrides[j] = normalizeMap(o)
			}
			m.Overrides = overrides
		}
		mappings[i] = m
	}
	if d.Mappings != nil {
		d.Mappings = mappings
	}
	return d
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return tree.Normalize(m).(tree.Tree)
}
