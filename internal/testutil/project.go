// Package testutil provides reusable builders for vibekit integration
// tests: throwaway projects, kit repositories, and fake repository
// archives.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestProject is a temporary project directory under test.
type TestProject struct {
	Path  string
	t     *testing.T
	files map[string]string
}

// NewTestProject creates a project builder. Call Build to create the
// directory.
func NewTestProject(t *testing.T) *TestProject {
	t.Helper()
	return &TestProject{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file to the project. The path is relative to the project
// root.
func (p *TestProject) WithFile(path, content string) *TestProject {
	p.files[path] = content
	return p
}

// Build creates the project directory and all configured files.
func (p *TestProject) Build() *TestProject {
	p.t.Helper()

	p.Path = p.t.TempDir()
	for path, content := range p.files {
		p.writeFile(path, content)
	}
	return p
}

func (p *TestProject) writeFile(relPath, content string) {
	p.t.Helper()
	fullPath := filepath.Join(p.Path, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		p.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		p.t.Fatalf("failed to write file %s: %v", relPath, err)
	}
}

// ReadFile reads a file from the project and returns its content.
func (p *TestProject) ReadFile(relPath string) string {
	p.t.Helper()
	content, err := os.ReadFile(filepath.Join(p.Path, filepath.FromSlash(relPath)))
	if err != nil {
		p.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// FileExists reports whether a file exists in the project.
func (p *TestProject) FileExists(relPath string) bool {
	p.t.Helper()
	_, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath)))
	return err == nil
}

// AssertFileExists fails the test if the file does not exist.
func (p *TestProject) AssertFileExists(relPath string) {
	p.t.Helper()
	if !p.FileExists(relPath) {
		p.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (p *TestProject) AssertFileNotExists(relPath string) {
	p.t.Helper()
	if p.FileExists(relPath) {
		p.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the
// substring.
func (p *TestProject) AssertFileContains(relPath, substr string) {
	p.t.Helper()
	content := p.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		p.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertDirExists fails the test if the directory does not exist.
func (p *TestProject) AssertDirExists(relPath string) {
	p.t.Helper()
	info, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath)))
	if os.IsNotExist(err) {
		p.t.Errorf("expected directory to exist: %s", relPath)
		return
	}
	if err == nil && !info.IsDir() {
		p.t.Errorf("expected %s to be a directory, but it's a file", relPath)
	}
}

// AssertDirNotExists fails the test if the directory exists.
func (p *TestProject) AssertDirNotExists(relPath string) {
	p.t.Helper()
	if _, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath))); err == nil {
		p.t.Errorf("expected directory to not exist: %s", relPath)
	}
}
