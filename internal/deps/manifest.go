// Package deps describes the native dependencies nativedeps installs: the
// per-dependency descriptor, the YAML manifest that lists them, and the
// built-in catalog used when no manifest is given.
package deps

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownDependency reports a selected name absent from the manifest.
var ErrUnknownDependency = errors.New("unknown dependency")

// Manifest is an ordered list of dependencies. Order is install order.
type Manifest struct {
	Dependencies []Descriptor `yaml:"dependencies"`
}

// Parse decodes a YAML manifest. Unknown fields are rejected.
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing manifest: empty document")
		}
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.normalize(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) normalize() error {
	if len(m.Dependencies) == 0 {
		return fmt.Errorf("manifest lists no dependencies")
	}
	names := make(map[string]bool, len(m.Dependencies))
	dirs := make(map[string]string, len(m.Dependencies))
	for i := range m.Dependencies {
		d := &m.Dependencies[i]
		d.Normalize()
		if err := d.Validate(); err != nil {
			return err
		}
		if names[d.Name] {
			return fmt.Errorf("dependency %s listed twice", d.Name)
		}
		names[d.Name] = true
		if other, ok := dirs[d.Dir]; ok {
			return fmt.Errorf("dependencies %s and %s share directory %q", other, d.Name, d.Dir)
		}
		dirs[d.Dir] = d.Name
	}
	return nil
}

// Select returns the named dependencies in manifest order, or all of them
// when names is empty.
func (m *Manifest) Select(names ...string) ([]Descriptor, error) {
	if len(names) == 0 {
		return append([]Descriptor(nil), m.Dependencies...), nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		if m.find(name) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDependency, name)
		}
		want[name] = true
	}
	var out []Descriptor
	for _, d := range m.Dependencies {
		if want[d.Name] || want[d.Dir] {
			out = append(out, d)
		}
	}
	return out, nil
}

// find locates a dependency by name or checkout directory.
func (m *Manifest) find(name string) int {
	for i, d := range m.Dependencies {
		if d.Name == name || d.Dir == name {
			return i
		}
	}
	return -1
}
