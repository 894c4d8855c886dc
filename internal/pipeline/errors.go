package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of the install pipeline.
type Stage string

const (
	StageSync    Stage = "sync"
	StageBuild   Stage = "build"
	StagePackage Stage = "package"
	StageInstall Stage = "install"
)

// Sentinels matched by errors.Is against an *Error of the same stage.
var (
	ErrSync    = errors.New("sync failed")
	ErrBuild   = errors.New("build failed")
	ErrPackage = errors.New("package failed")
	ErrInstall = errors.New("install failed")
)

var stageErrors = map[Stage]error{
	StageSync:    ErrSync,
	StageBuild:   ErrBuild,
	StagePackage: ErrPackage,
	StageInstall: ErrInstall,
}

// Error records the stage and dependency an install failed at.
type Error struct {
	Stage      Stage
	Dependency string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Dependency, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's stage.
func (e *Error) Is(target error) bool {
	sentinel, ok := stageErrors[e.Stage]
	return ok && target == sentinel
}

func stageError(stage Stage, dep string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Dependency: dep, Err: err}
}
