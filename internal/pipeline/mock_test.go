package pipeline

import (
	"context"
	"sync"

	"github.com/lsmon/nativedeps/internal/deps"
	"github.com/lsmon/nativedeps/internal/vcs"
)

// journal records stage calls across mocks in invocation order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.entries = append(j.entries, s)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// mockVCS implements vcs.VCS. Nil funcs report a present, current checkout.
type mockVCS struct {
	j          *journal
	ensure     func(remote, dir string) (vcs.State, error)
	isUpToDate func(dir, branch string) (bool, error)
	update     func(dir, branch string) error

	ensureCalls, statusCalls, updateCalls int
}

func (m *mockVCS) EnsurePresent(ctx context.Context, remote, dir string) (vcs.State, error) {
	m.ensureCalls++
	m.j.add("sync " + remote)
	if m.ensure != nil {
		return m.ensure(remote, dir)
	}
	return vcs.AlreadyPresent, nil
}

func (m *mockVCS) IsUpToDate(ctx context.Context, dir, branch string) (bool, error) {
	m.statusCalls++
	if m.isUpToDate != nil {
		return m.isUpToDate(dir, branch)
	}
	return true, nil
}

func (m *mockVCS) Update(ctx context.Context, dir, branch string) error {
	m.updateCalls++
	if m.update != nil {
		return m.update(dir, branch)
	}
	return nil
}

func (m *mockVCS) Latest(ctx context.Context, remote, branch string) (string, error) {
	return "abc123", nil
}

type mockBuilder struct {
	j         *journal
	configure func(d deps.Descriptor, t BuildTree) error
	compile   func(d deps.Descriptor, t BuildTree) error

	configureCalls, compileCalls int
}

func (m *mockBuilder) Configure(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) error {
	m.configureCalls++
	m.j.add("configure " + d.Name)
	if m.configure != nil {
		return m.configure(d, t)
	}
	return nil
}

func (m *mockBuilder) Compile(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) error {
	m.compileCalls++
	m.j.add("compile " + d.Name)
	if m.compile != nil {
		return m.compile(d, t)
	}
	return nil
}

type mockPackager struct {
	j   *journal
	pkg func(rc RunContext, d deps.Descriptor, t BuildTree) (Archive, error)

	calls int
}

func (m *mockPackager) Package(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree) (Archive, error) {
	m.calls++
	m.j.add("package " + d.Name)
	if m.pkg != nil {
		return m.pkg(rc, d, t)
	}
	return ArchiveFor(t, d, rc.Profile), nil
}

type mockInstaller struct {
	j       *journal
	install func(d deps.Descriptor, a Archive) error

	calls int
}

func (m *mockInstaller) Install(ctx context.Context, rc RunContext, d deps.Descriptor, t BuildTree, a Archive) error {
	m.calls++
	m.j.add("install " + d.Name)
	if m.install != nil {
		return m.install(d, a)
	}
	return nil
}
