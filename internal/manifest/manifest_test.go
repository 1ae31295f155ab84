package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlatStub(t *testing.T) {
	t.Parallel()

	meta, ok := Parse([]byte("id: test-kit\nname: Test Kit\nversion: 0.0.1\n"))
	if !ok {
		t.Fatalf("Parse() ok = false, want true")
	}
	if meta.ID != "test-kit" || meta.Name != "Test Kit" || meta.Version != "0.0.1" {
		t.Fatalf("Parse() = %+v", meta)
	}
}

func TestParseKitInfo(t *testing.T) {
	t.Parallel()

	meta, ok := Parse([]byte("kit_info:\n  name: test-kit\n  version: 0.0.1\n  description: test kit\n"))
	if !ok {
		t.Fatalf("Parse() ok = false, want true")
	}
	if meta.ID != "test-kit" {
		t.Fatalf("id = %q, want test-kit", meta.ID)
	}
	if meta.Version != "0.0.1" {
		t.Fatalf("version = %q, want 0.0.1", meta.Version)
	}
	if meta.Description != "test kit" {
		t.Fatalf("description = %q, want test kit", meta.Description)
	}
}

func TestParseSlugsSpacedNames(t *testing.T) {
	t.Parallel()

	meta, ok := Parse([]byte("kit_info:\n  name: Protein Analysis\n  version: 1.0.0\n"))
	if !ok {
		t.Fatalf("Parse() ok = false, want true")
	}
	if meta.ID != "protein-analysis" {
		t.Fatalf("id = %q, want protein-analysis", meta.ID)
	}
	if meta.Name != "Protein Analysis" {
		t.Fatalf("name = %q, want Protein Analysis", meta.Name)
	}
}

func TestParseUnquotedNumericVersion(t *testing.T) {
	t.Parallel()

	// 1.0 is a YAML float; the scalar decoding must keep its literal text.
	meta, ok := Parse([]byte("id: c-kit\nversion: 1.0\n"))
	if !ok {
		t.Fatalf("Parse() ok = false, want true")
	}
	if meta.Version != "1.0" {
		t.Fatalf("version = %q, want 1.0", meta.Version)
	}
}

func TestParseWithoutIdentity(t *testing.T) {
	t.Parallel()

	if _, ok := Parse([]byte("version: 1.2.3\n")); ok {
		t.Fatalf("Parse() ok = true for manifest without id or name")
	}
	if _, ok := Parse([]byte("not: [valid")); ok {
		t.Fatalf("Parse() ok = true for invalid YAML")
	}
}

func TestPreferFileOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "MANIFEST.yml"), "kit_info:\n  name: from-manifest\n  version: 2.0.0\n")
	writeFile(t, filepath.Join(dir, "kit.yaml"), "id: from-stub\nname: from-stub\nversion: 1.0.0\n")

	path, ok := PreferFile(dir)
	if !ok {
		t.Fatalf("PreferFile() ok = false, want true")
	}
	if filepath.Base(path) != "kit.yaml" {
		t.Fatalf("PreferFile() = %q, want kit.yaml", path)
	}

	meta, ok := ReadDir(dir)
	if !ok || meta.ID != "from-stub" {
		t.Fatalf("ReadDir() = %+v, ok=%v; want id from-stub", meta, ok)
	}
}

func TestReadDirMissingManifest(t *testing.T) {
	t.Parallel()

	if _, ok := ReadDir(t.TempDir()); ok {
		t.Fatalf("ReadDir() ok = true for empty directory")
	}
}

func TestEnsureStub(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	meta := Metadata{ID: "ignored", Name: "Test Kit", Version: "0.0.1"}
	if err := EnsureStub(dir, "test-kit", meta); err != nil {
		t.Fatalf("EnsureStub() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, StubName))
	if err != nil {
		t.Fatalf("read stub: %v", err)
	}
	got := string(data)
	want := "id: test-kit\nname: Test Kit\nversion: 0.0.1\n"
	if got != want {
		t.Fatalf("stub = %q, want %q", got, want)
	}
}

func TestEnsureStubKeepsExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, StubName), "id: original\nname: original\nversion: 9.9.9\n")

	if err := EnsureStub(dir, "test-kit", Synthesize("test-kit")); err != nil {
		t.Fatalf("EnsureStub() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, StubName))
	if err != nil {
		t.Fatalf("read stub: %v", err)
	}
	if !strings.Contains(string(data), "original") {
		t.Fatalf("EnsureStub() overwrote existing stub: %q", data)
	}
}

func TestEnsureStubDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := EnsureStub(dir, "bare-kit", Metadata{}); err != nil {
		t.Fatalf("EnsureStub() error = %v", err)
	}

	meta, ok := ReadDir(dir)
	if !ok {
		t.Fatalf("ReadDir() ok = false after EnsureStub")
	}
	if meta.ID != "bare-kit" || meta.Name != "bare-kit" || meta.Version != "0.0.0" {
		t.Fatalf("stub metadata = %+v", meta)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
