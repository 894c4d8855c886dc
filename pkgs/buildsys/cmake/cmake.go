package cmake

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/lsmon/nativedeps/internal/command"
	"github.com/lsmon/nativedeps/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	runner    command.Runner
	bin       string
	SourceDir string
	buildDir  string
	generator string
	buildType string
	target    string
	jobs      int
	Defines   map[string]defineValue
	env       map[string]string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper that runs bin through r. An empty bin means "cmake".
func New(r command.Runner, bin string) *CMake {
	if bin == "" {
		bin = "cmake"
	}
	return &CMake{
		runner:  r,
		bin:     bin,
		Defines: map[string]defineValue{},
		env:     map[string]string{},
	}
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
}

// BuildDir sets the binary directory. Defaults to <source>/build.
func (c *CMake) BuildDir(dir string) {
	c.buildDir = dir
}

// Generator selects the native build system passed as -G; empty keeps
// cmake's platform default.
func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

// Target selects the target built by Build; empty builds the default target.
func (c *CMake) Target(name string) *CMake {
	c.target = name
	return c
}

// Jobs bounds build parallelism; n <= 0 leaves it to the native tool.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	return c.define(key, value, "STRING")
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		return c.define(key, "ON", "BOOL")
	}
	return c.define(key, "OFF", "BOOL")
}

func (c *CMake) DefineFilepath(key, path string) *CMake {
	return c.define(key, path, "FILEPATH")
}

// DefineRaw adds an untyped -DKEY=VALUE entry.
func (c *CMake) DefineRaw(key, value string) *CMake {
	return c.define(key, value, "")
}

func (c *CMake) define(key, value, typeName string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: typeName}
	return c
}

// Env sets a variable in the environment of every cmake invocation.
// The environment of the current process is left untouched.
func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

// Use makes prefix/include and prefix/lib visible to find_package,
// find_path and find_library.
func (c *CMake) Use(prefix string) {
	includeDir := filepath.Join(prefix, "include")
	libDir := filepath.Join(prefix, "lib")

	if _, err := os.Stat(prefix); err == nil {
		c.prependEnv("CMAKE_PREFIX_PATH", prefix)
	}
	if _, err := os.Stat(includeDir); err == nil {
		c.prependEnv("CMAKE_INCLUDE_PATH", includeDir)
	}
	if _, err := os.Stat(libDir); err == nil {
		c.prependEnv("CMAKE_LIBRARY_PATH", libDir)
	}
}

func (c *CMake) Configure(ctx context.Context, args ...string) error {
	buildDir := c.OutputDir()
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"--no-warn-unused-cli", "-S", c.SourceDir, "-B", buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	return c.run(ctx, "", cmakeArgs)
}

func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.OutputDir()}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.target != "" {
		cmdArgs = append(cmdArgs, "--target", c.target)
	}
	if c.jobs > 0 {
		cmdArgs = append(cmdArgs, "-j", strconv.Itoa(c.jobs))
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, "", cmdArgs)
}

// OutputDir returns the build dir, defaulting to <source>/build.
func (c *CMake) OutputDir() string {
	if c.buildDir != "" {
		return c.buildDir
	}
	return filepath.Join(c.SourceDir, "build")
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

func (c *CMake) run(ctx context.Context, dir string, args []string) error {
	return c.runner.Run(ctx, command.Cmd{Path: c.bin, Args: args, Dir: dir, Env: c.envCopy()})
}

func (c *CMake) envCopy() map[string]string {
	if len(c.env) == 0 {
		return nil
	}
	env := make(map[string]string, len(c.env))
	for k, v := range c.env {
		env[k] = v
	}
	return env
}

// prependEnv prepends a value to a path-list variable of the cmake environment,
// falling back to the inherited value of the current process.
func (c *CMake) prependEnv(key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	current, ok := c.env[key]
	if !ok {
		current = os.Getenv(key)
	}
	if current == "" {
		c.Env(key, value)
	} else {
		c.Env(key, value+sep+current)
	}
}
