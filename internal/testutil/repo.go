package testutil

import (
	"fmt"
	"testing"
)

// TestRepo builds a local innovation-kit repository directory.
type TestRepo struct {
	Path    string
	t       *testing.T
	project *TestProject
}

// NewTestRepo creates a repository builder. Call Build to create the
// directory.
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()
	return &TestRepo{
		t:       t,
		project: NewTestProject(t),
	}
}

// WithKit adds a kit directory holding a minimal kit.yaml manifest.
func (r *TestRepo) WithKit(name, version string) *TestRepo {
	r.project.WithFile(name+"/kit.yaml", fmt.Sprintf("id: %s\nname: %s\nversion: %s\n", name, name, version))
	return r
}

// WithBareKit adds a kit directory with content but no manifest.
func (r *TestRepo) WithBareKit(name string) *TestRepo {
	r.project.WithFile(name+"/README.md", "# "+name+"\n")
	return r
}

// WithKitFile adds a file beneath a kit directory.
func (r *TestRepo) WithKitFile(kit, relPath, content string) *TestRepo {
	r.project.WithFile(kit+"/"+relPath, content)
	return r
}

// Build creates the repository directory and all configured kits.
func (r *TestRepo) Build() *TestRepo {
	r.t.Helper()
	r.project.Build()
	r.Path = r.project.Path
	return r
}
