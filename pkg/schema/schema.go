// Package schema loads DBC table definitions from YAML documents.
//
// A definition names a table, the file it is stored in and its columns:
//
//	name: AreaTable
//	file: AreaTable.dbc
//	fields:
//	  - name: id
//	    type: uint32
//	  - name: name
//	    type: locstring
//	  - name: bounds
//	    type: float32[]
//	    count: 4
package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/dbcdb/pkg/dbc"
)

// FieldDef is one column of a definition.
type FieldDef struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Count int    `yaml:"count,omitempty"`
}

// Definition describes a table and how to find its file.
type Definition struct {
	Name   string     `yaml:"name"`
	File   string     `yaml:"file"`
	Fields []FieldDef `yaml:"fields"`

	// Source is the path the definition was loaded from, if any.
	Source string `yaml:"-"`
}

// Schema builds the decode schema for the definition.
func (d *Definition) Schema() (*dbc.Schema, error) {
	fields := make([]dbc.Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		kind, err := parseType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("table %s field %s: %w", d.Name, fd.Name, err)
		}
		fields = append(fields, dbc.Field{Name: fd.Name, Kind: kind, Count: fd.Count})
	}
	return dbc.NewSchema(d.Name, fields...)
}

// FileName returns the table file name, defaulting to "<name>.dbc".
func (d *Definition) FileName() string {
	if d.File != "" {
		return d.File
	}
	return d.Name + ".dbc"
}

// parseType accepts the dbc kind names plus "name[n]" array shorthand,
// which is normalised to "name[]" so the count comes from the count key.
func parseType(t string) (dbc.FieldKind, error) {
	t = strings.TrimSpace(t)
	if i := strings.IndexByte(t, '['); i >= 0 && strings.HasSuffix(t, "]") {
		t = t[:i] + "[]"
	}
	return dbc.ParseFieldKind(t)
}

// Parse decodes a YAML document into a definition and applies array
// shorthand counts such as "int32[3]".
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("schema has no name")
	}
	for i, fd := range d.Fields {
		if fd.Count == 0 {
			d.Fields[i].Count = shorthandCount(fd.Type)
		}
	}
	if _, err := d.Schema(); err != nil {
		return nil, err
	}
	return &d, nil
}

func shorthandCount(t string) int {
	open := strings.IndexByte(t, '[')
	if open < 0 || !strings.HasSuffix(t, "]") {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(t[open+1:len(t)-1], "%d", &n); err != nil {
		return 0
	}
	return n
}

// LoadFile reads a definition from a YAML file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// LoadDir reads every *.yaml and *.yml file in dir, sorted by table name.
// Table names must be unique.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var defs []*Definition
	seen := make(map[string]string)
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		d, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("table %s defined in both %s and %s", d.Name, prev, path)
		}
		seen[d.Name] = path
		defs = append(defs, d)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}
