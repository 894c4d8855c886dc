package cmake

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/lsmon/nativedeps/internal/command"
	"github.com/lsmon/nativedeps/internal/command/commandtest"
)

func TestUseSetsEnv(t *testing.T) {
	prefix := t.TempDir()
	includeDir := filepath.Join(prefix, "include")
	libDir := filepath.Join(prefix, "lib")
	for _, dir := range []string{includeDir, libDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	for _, key := range []string{"CMAKE_PREFIX_PATH", "CMAKE_INCLUDE_PATH", "CMAKE_LIBRARY_PATH"} {
		t.Setenv(key, "")
	}

	rec := &commandtest.Recorder{}
	c := New(rec, "")
	c.Source(t.TempDir())
	c.Use(prefix)
	if err := c.Configure(context.Background()); err != nil {
		t.Fatal(err)
	}

	env := rec.Calls()[0].Env
	expectEq := map[string]string{
		"CMAKE_PREFIX_PATH":  prefix,
		"CMAKE_INCLUDE_PATH": includeDir,
		"CMAKE_LIBRARY_PATH": libDir,
	}
	for k, v := range expectEq {
		if got := env[k]; got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
		if got := os.Getenv(k); got != "" {
			t.Errorf("Use leaked %s=%q into the process environment", k, got)
		}
	}
}

func TestUsePrependsInherited(t *testing.T) {
	prefix := t.TempDir()
	t.Setenv("CMAKE_PREFIX_PATH", "/opt/other")

	c := New(&commandtest.Recorder{}, "")
	c.Use(prefix)

	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	if got, want := c.env["CMAKE_PREFIX_PATH"], prefix+sep+"/opt/other"; got != want {
		t.Errorf("CMAKE_PREFIX_PATH = %q, want %q", got, want)
	}
}

func TestUseMissingPrefix(t *testing.T) {
	c := New(&commandtest.Recorder{}, "")
	c.Use(filepath.Join(t.TempDir(), "absent"))
	if len(c.env) != 0 {
		t.Errorf("Use of a missing prefix set %v", c.env)
	}
}

func TestOutputDirDefaultsToSourceBuild(t *testing.T) {
	c := New(nil, "")
	c.Source("src")
	if got, want := c.OutputDir(), filepath.Join("src", "build"); got != want {
		t.Fatalf("default OutputDir = %q, want %q", got, want)
	}
	c.BuildDir("custom-build")
	if got := c.OutputDir(); got != "custom-build" {
		t.Fatalf("OutputDir after BuildDir = %q, want %q", got, "custom-build")
	}
}

func TestConfigureArgs(t *testing.T) {
	src := t.TempDir()
	build := filepath.Join(src, "build")
	rec := &commandtest.Recorder{}

	c := New(rec, "/opt/homebrew/bin/cmake")
	c.Source(src)
	c.BuildDir(build)
	c.BuildType("Debug").
		DefineBool("CMAKE_EXPORT_COMPILE_COMMANDS", true).
		DefineFilepath("CMAKE_C_COMPILER", "/usr/bin/clang").
		DefineRaw("BUILD_TEST", "OFF").
		Generator("Ninja")

	if err := c.Configure(context.Background(), "--fresh"); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(build); err != nil || !info.IsDir() {
		t.Fatalf("Configure did not create the build dir: %v", err)
	}

	want := command.Cmd{
		Path: "/opt/homebrew/bin/cmake",
		Args: []string{
			"--no-warn-unused-cli",
			"-S", src,
			"-B", build,
			"-G", "Ninja",
			"-DBUILD_TEST=OFF",
			"-DCMAKE_BUILD_TYPE:STRING=Debug",
			"-DCMAKE_C_COMPILER:FILEPATH=/usr/bin/clang",
			"-DCMAKE_EXPORT_COMPILE_COMMANDS:BOOL=ON",
			"--fresh",
		},
	}
	if got := rec.Calls()[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("configure =\n  %v\nwant\n  %v", got, want)
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*CMake)
		want  string
	}{
		{"bare", func(c *CMake) {}, "cmake --build /b"},
		{"full", func(c *CMake) { c.BuildType("Debug").Target("all").Jobs(12) }, "cmake --build /b --config Debug --target all -j 12"},
		{"unbounded", func(c *CMake) { c.Target("all").Jobs(0) }, "cmake --build /b --target all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &commandtest.Recorder{}
			c := New(rec, "")
			c.BuildDir("/b")
			tt.setup(c)
			if err := c.Build(context.Background()); err != nil {
				t.Fatal(err)
			}
			if got := rec.Lines()[0]; got != tt.want {
				t.Errorf("build = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCPackArgs(t *testing.T) {
	rec := &commandtest.Recorder{}
	if err := NewCPack(rec, "/usr/bin/cpack", "/src/cache/build").Package(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := command.Cmd{Path: "/usr/bin/cpack", Args: []string{"-G", "ZIP"}, Dir: "/src/cache/build"}
	if got := rec.Calls()[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("cpack = %+v, want %+v", got, want)
	}

	rec = &commandtest.Recorder{}
	if err := NewCPack(rec, "", "/b").Package(context.Background(), "--verbose"); err != nil {
		t.Fatal(err)
	}
	if got := rec.Lines()[0]; got != "cpack -G ZIP --verbose" {
		t.Errorf("cpack = %q", got)
	}
}

func TestRunFailurePropagates(t *testing.T) {
	rec := &commandtest.Recorder{
		Handle: func(c command.Cmd) (string, error) { return "", commandtest.Fail(c, 2) },
	}
	c := New(rec, "")
	c.Source(t.TempDir())
	err := c.Configure(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exit code 2") {
		t.Fatalf("Configure error = %v, want exit code 2", err)
	}
}

func TestConfigureBuildPackE2E(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("archive layout differs with multi-config generators")
	}
	for _, tool := range []string{"cmake", "cpack", "cc"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH", tool)
		}
	}

	src, err := filepath.Abs(filepath.Join("testdata", "project"))
	if err != nil {
		t.Fatal(err)
	}
	build := filepath.Join(t.TempDir(), "build")
	runner := &command.Exec{}

	c := New(runner, "")
	c.Source(src)
	c.BuildDir(build)
	c.BuildType("Debug").Target("all").Jobs(2)
	c.DefineBool("CMAKE_EXPORT_COMPILE_COMMANDS", true)

	ctx := context.Background()
	if err := c.Configure(ctx); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.Build(ctx); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(build, "compile_commands.json")); err != nil {
		t.Errorf("compile commands not exported: %v", err)
	}
	if err := NewCPack(runner, "", build).Package(ctx); err != nil {
		t.Fatalf("cpack: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(build, "lib_dummy-1.2.0-*.zip"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("archive not produced: %v %v", matches, err)
	}

	cache, err := os.ReadFile(filepath.Join(build, "CMakeCache.txt"))
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	for _, snippet := range []string{
		"CMAKE_BUILD_TYPE:STRING=Debug",
		"CMAKE_EXPORT_COMPILE_COMMANDS:BOOL=ON",
	} {
		if !strings.Contains(string(cache), snippet) {
			t.Errorf("cache missing %q", snippet)
		}
	}
}
