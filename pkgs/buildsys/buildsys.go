package buildsys

import "context"

// BuildSystem captures shared capabilities of build helpers (CMake, etc).
// It keeps the common configure/compile lifecycle; implementations add their own extras.
type BuildSystem interface {
	// Make an installed prefix (include/, lib/) visible to the build.
	Use(prefix string)

	// Basic paths.
	Source(dir string)
	BuildDir(dir string)

	// Environment helper.
	Env(key, val string)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}

// Packager turns a configured and compiled build tree into a distributable archive.
type Packager interface {
	Package(ctx context.Context, args ...string) error
}
