package deps

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lsmon/nativedeps/internal/platform"
)

// Mode selects how a dependency's build output reaches the install root.
type Mode string

const (
	// ModePackage packs the build tree with cpack and installs from the archive.
	ModePackage Mode = "package"
	// ModeDirect skips packaging and installs straight from the build and source trees.
	ModeDirect Mode = "direct"
)

// DefaultLibrary is the library template used when a dependency names none.
const DefaultLibrary = "lib_{name}-{version}.a"

// Install describes what ends up in the install root.
type Install struct {
	Mode      Mode     `yaml:"mode,omitempty"`
	Libraries []string `yaml:"libraries,omitempty"`
	Headers   string   `yaml:"headers,omitempty"` // direct mode, relative to the source root
}

// Descriptor identifies one installable dependency.
type Descriptor struct {
	Name      string `yaml:"name"`          // artifact name, as in lib_<name>-<version>
	SourceURL string `yaml:"url"`           // clone URL
	Dir       string `yaml:"dir,omitempty"` // checkout directory under the root; defaults to Name
	Branch    string `yaml:"branch,omitempty"`

	// Version is supplied per run, never by the manifest.
	Version string `yaml:"-"`

	Defines           map[string]string `yaml:"defines,omitempty"`
	CompilerOverrides bool              `yaml:"compilerOverrides,omitempty"`
	Install           Install           `yaml:"install,omitempty"`
}

// Normalize fills defaulted fields.
func (d *Descriptor) Normalize() {
	if d.Dir == "" {
		d.Dir = d.Name
	}
	if d.Branch == "" {
		d.Branch = "main"
	}
	if d.Install.Mode == "" {
		d.Install.Mode = ModePackage
	}
	if len(d.Install.Libraries) == 0 {
		d.Install.Libraries = []string{DefaultLibrary}
	}
	if d.Install.Mode == ModeDirect && d.Install.Headers == "" {
		d.Install.Headers = "include"
	}
}

// Validate reports descriptor fields that cannot produce a usable pipeline.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("dependency has no name")
	}
	if strings.ContainsAny(d.Name, `/\`) {
		return fmt.Errorf("dependency %s: name must not contain path separators", d.Name)
	}
	if d.SourceURL == "" {
		return fmt.Errorf("dependency %s: no url", d.Name)
	}
	if !isLocal(d.Dir) {
		return fmt.Errorf("dependency %s: dir %q must be a relative path inside the root", d.Name, d.Dir)
	}
	switch d.Install.Mode {
	case ModePackage, ModeDirect, "":
	default:
		return fmt.Errorf("dependency %s: unknown install mode %q", d.Name, d.Install.Mode)
	}
	for _, lib := range d.Install.Libraries {
		if !isLocal(lib) {
			return fmt.Errorf("dependency %s: library %q must be a relative path", d.Name, lib)
		}
	}
	if d.Install.Headers != "" && !isLocal(d.Install.Headers) {
		return fmt.Errorf("dependency %s: headers %q must be a relative path", d.Name, d.Install.Headers)
	}
	return nil
}

func isLocal(p string) bool {
	return p != "" && filepath.IsLocal(filepath.FromSlash(p))
}

// WithVersion returns a copy of d bound to version.
func (d Descriptor) WithVersion(version string) Descriptor {
	d.Version = version
	if d.Defines != nil {
		defines := make(map[string]string, len(d.Defines))
		for k, v := range d.Defines {
			defines[k] = v
		}
		d.Defines = defines
	}
	d.Install.Libraries = append([]string(nil), d.Install.Libraries...)
	return d
}

// ArchiveStem is the archive name without extension; cpack extracts the
// archive into a directory of the same name.
func ArchiveStem(d Descriptor, p platform.Profile) string {
	return "lib_" + d.Name + "-" + d.Version + "-" + p.OSPostfix
}

// ArchiveName is the file cpack -G ZIP produces for d on p.
func ArchiveName(d Descriptor, p platform.Profile) string {
	return ArchiveStem(d, p) + ".zip"
}

// Expand substitutes {name}, {version} and {os} in tmpl.
func Expand(tmpl string, d Descriptor, p platform.Profile) string {
	r := strings.NewReplacer(
		"{name}", d.Name,
		"{version}", d.Version,
		"{os}", p.OSPostfix,
	)
	return r.Replace(tmpl)
}

// Libraries returns the expanded library paths of d, slash-separated.
func (d Descriptor) Libraries(p platform.Profile) []string {
	libs := d.Install.Libraries
	if len(libs) == 0 {
		libs = []string{DefaultLibrary}
	}
	out := make([]string, len(libs))
	for i, lib := range libs {
		out[i] = Expand(lib, d, p)
	}
	return out
}
