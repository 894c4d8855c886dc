// Package platform maps the running operating system onto the closed set of
// platforms nativedeps knows how to build on, and each platform onto the
// tool paths and archive naming it uses.
package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnsupported reports an operating system outside the closed set.
var ErrUnsupported = errors.New("unsupported platform")

// Tag identifies one supported platform.
type Tag int

const (
	Unknown Tag = iota
	Linux
	MacOS
	Windows
)

var tagNames = [...]string{
	Unknown: "unknown",
	Linux:   "linux",
	MacOS:   "macos",
	Windows: "windows",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return tagNames[Unknown]
	}
	return tagNames[t]
}

// FromGOOS converts a runtime.GOOS value into a Tag.
func FromGOOS(goos string) (Tag, error) {
	switch goos {
	case "linux":
		return Linux, nil
	case "darwin":
		return MacOS, nil
	case "windows":
		return Windows, nil
	}
	return Unknown, fmt.Errorf("%w: %s", ErrUnsupported, goos)
}

// Detect returns the Tag of the running process.
func Detect() (Tag, error) {
	return FromGOOS(runtime.GOOS)
}

// Compilers overrides the C and C++ compilers handed to the build generator.
type Compilers struct {
	C   string
	CXX string
}

// IsZero reports whether no override is configured.
func (c Compilers) IsZero() bool {
	return c.C == "" && c.CXX == ""
}

// Profile is everything platform-specific about a run.
type Profile struct {
	Tag         Tag
	BuildTool   string    // build generator/driver (cmake)
	PackageTool string    // packager (cpack)
	OSPostfix   string    // trailing label of packaged archive names
	Compilers   Compilers // applied only to dependencies that opt in
}

func (p Profile) String() string {
	s := fmt.Sprintf("%s (cmake=%s cpack=%s postfix=%s", p.Tag, p.BuildTool, p.PackageTool, p.OSPostfix)
	if !p.Compilers.IsZero() {
		s += fmt.Sprintf(" cc=%s cxx=%s", p.Compilers.C, p.Compilers.CXX)
	}
	return s + ")"
}

// profiles is the reviewed platform table. The postfix must equal the
// CPACK_SYSTEM_NAME cpack uses on that platform, or archive lookup fails.
var profiles = map[Tag]Profile{
	Linux: {
		Tag:         Linux,
		BuildTool:   "cmake",
		PackageTool: "/usr/bin/cpack",
		OSPostfix:   "Linux",
	},
	MacOS: {
		Tag:         MacOS,
		BuildTool:   "/opt/homebrew/bin/cmake",
		PackageTool: "/opt/homebrew/bin/cpack",
		OSPostfix:   "Darwin",
		Compilers: Compilers{
			C:   "/usr/bin/clang",
			CXX: "/usr/bin/clang++",
		},
	},
	Windows: {
		Tag:         Windows,
		BuildTool:   "cmake",
		PackageTool: "cpack",
		OSPostfix:   "Windows",
	},
}

// Lookup returns the profile for t.
func Lookup(t Tag) (Profile, error) {
	p, ok := profiles[t]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
	return p, nil
}

// Current returns the profile of the running process.
func Current() (Profile, error) {
	t, err := Detect()
	if err != nil {
		return Profile{}, err
	}
	return Lookup(t)
}

// Overrides replaces individual profile fields; empty fields keep the table value.
type Overrides struct {
	BuildTool   string
	PackageTool string
	OSPostfix   string
}

// Apply returns p with the non-empty overrides applied.
func (o Overrides) Apply(p Profile) Profile {
	if o.BuildTool != "" {
		p.BuildTool = o.BuildTool
	}
	if o.PackageTool != "" {
		p.PackageTool = o.PackageTool
	}
	if o.OSPostfix != "" {
		p.OSPostfix = o.OSPostfix
	}
	return p
}

// CheckKernel compares the profile postfix with the kernel name the OS
// reports (uname -s), which is what cpack derives its default system name
// from on unix. It returns a non-empty description of any mismatch.
func CheckKernel(p Profile, kernel string) string {
	if kernel == "" || kernel == p.OSPostfix {
		return ""
	}
	return fmt.Sprintf("archive postfix %q differs from kernel name %q; set os_postfix if cpack names archives differently", p.OSPostfix, kernel)
}
