package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestResolveRootWalksAncestors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DirName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nested := filepath.Join(root, "src", "deep", "deeper")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, ok := ResolveRoot(nested)
	if !ok {
		t.Fatal("ResolveRoot() ok = false, want true")
	}
	if got != root {
		t.Errorf("ResolveRoot() = %q, want %q", got, root)
	}
}

func TestResolveRootFallsBackToStart(t *testing.T) {
	t.Parallel()

	start := t.TempDir()
	got, ok := ResolveRoot(start)
	if ok {
		t.Error("ResolveRoot() ok = true for directory without state")
	}
	if got != start {
		t.Errorf("ResolveRoot() = %q, want start %q", got, start)
	}
}

func TestResolveRootIgnoresMarkerFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DirName), []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := ResolveRoot(dir); ok {
		t.Error("ResolveRoot() ok = true when marker is a regular file")
	}
}

func TestLoadInstalledMissingFile(t *testing.T) {
	t.Parallel()

	records, warning := LoadInstalled(t.TempDir())
	if warning != "" {
		t.Errorf("LoadInstalled() warning = %q, want empty", warning)
	}
	if len(records) != 0 {
		t.Errorf("LoadInstalled() = %v, want empty", records)
	}
}

func TestLoadInstalledEmptyFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	if err := os.WriteFile(InstalledPath(root), []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, warning := LoadInstalled(root)
	if warning != "" {
		t.Errorf("LoadInstalled() warning = %q, want none for empty file", warning)
	}
	if len(records) != 0 {
		t.Errorf("LoadInstalled() = %v, want empty", records)
	}
}

func TestLoadInstalledMalformed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	if err := os.WriteFile(InstalledPath(root), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, warning := LoadInstalled(root)
	if warning == "" {
		t.Error("LoadInstalled() warning empty for malformed file")
	}
	if len(records) != 0 {
		t.Errorf("LoadInstalled() = %v, want empty", records)
	}
}

func TestWriteInstalledRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}

	rec := KitRecord{
		ID:          "test-kit",
		Name:        "Test Kit",
		Version:     "0.0.1",
		InstalledAt: Timestamp(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)),
		Path:        RelKitPath("test-kit"),
		Source:      SourceEnvRepository,
	}
	if err := WriteInstalled(root, []KitRecord{rec}); err != nil {
		t.Fatalf("WriteInstalled() error = %v", err)
	}

	records, warning := LoadInstalled(root)
	if warning != "" {
		t.Fatalf("LoadInstalled() warning = %q", warning)
	}
	if len(records) != 1 || records[0] != rec {
		t.Errorf("round trip = %+v, want %+v", records, rec)
	}

	data, err := os.ReadFile(InstalledPath(root))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("installed file missing trailing newline")
	}
	if !strings.Contains(string(data), `"installed_at": "2025-03-14T09:26:53Z"`) {
		t.Errorf("installed file missing expected timestamp:\n%s", data)
	}
	if strings.Contains(string(data), "description") {
		t.Error("empty description serialized")
	}
}

func TestWriteInstalledEmptyIsArray(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	if err := WriteInstalled(root, nil); err != nil {
		t.Fatalf("WriteInstalled() error = %v", err)
	}

	data, err := os.ReadFile(InstalledPath(root))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Errorf("empty write = %q, want []", got)
	}
}

func TestRecordInstallStampsTime(t *testing.T) {
	restore := now
	now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { now = restore }()

	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	rec := KitRecord{ID: "test-kit", Name: "Test Kit", Version: "0.0.1", Path: RelKitPath("test-kit"), Source: SourceEnvRepository}
	if err := RecordInstall(root, rec); err != nil {
		t.Fatalf("RecordInstall() error = %v", err)
	}

	records, _ := LoadInstalled(root)
	if len(records) != 1 {
		t.Fatalf("records = %+v, want one entry", records)
	}
	if got := records[0].InstalledAt; got != "2025-06-01T12:00:00Z" {
		t.Errorf("installed_at = %q", got)
	}
}

func TestRecordInstallSkipsEmptyID(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	if err := RecordInstall(root, KitRecord{Version: "1.0"}); err != nil {
		t.Fatalf("RecordInstall() error = %v", err)
	}
	if _, err := os.Stat(InstalledPath(root)); !os.IsNotExist(err) {
		t.Error("RecordInstall() persisted a record without an id")
	}
}

func TestUpsertMovesReplacedRecordToEnd(t *testing.T) {
	t.Parallel()

	records := []KitRecord{
		{ID: "a-kit", Version: "1.0"},
		{ID: "b-kit", Version: "2.0"},
	}

	updated := Upsert(records, KitRecord{ID: "a-kit", Version: "1.1"})
	if len(updated) != 2 {
		t.Fatalf("Upsert() len = %d, want 2", len(updated))
	}
	if updated[0].ID != "b-kit" || updated[1].ID != "a-kit" || updated[1].Version != "1.1" {
		t.Errorf("Upsert() = %+v, want replaced record appended", updated)
	}
	if records[0].Version != "1.0" {
		t.Error("Upsert() mutated input slice")
	}

	appended := Upsert(records, KitRecord{ID: "c-kit", Version: "3.0"})
	if len(appended) != 3 || appended[2].ID != "c-kit" {
		t.Errorf("Upsert() append = %+v", appended)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	records := []KitRecord{{ID: "a-kit"}, {ID: "b-kit"}}

	out, found := Remove(records, "a-kit")
	if !found {
		t.Error("Remove() found = false")
	}
	if len(out) != 1 || out[0].ID != "b-kit" {
		t.Errorf("Remove() = %+v", out)
	}

	out, found = Remove(records, "missing")
	if found {
		t.Error("Remove() found = true for missing id")
	}
	if len(out) != 2 {
		t.Errorf("Remove() dropped entries: %+v", out)
	}
}

func TestListKitDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ids, err := ListKitDirs(root)
	if err != nil {
		t.Fatalf("ListKitDirs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListKitDirs() = %v, want empty before init", ids)
	}

	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	for _, id := range []string{"zeta-kit", "alpha-kit"} {
		if err := os.MkdirAll(KitDir(root, id), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(KitsDir(root), "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ids, err = ListKitDirs(root)
	if err != nil {
		t.Fatalf("ListKitDirs() error = %v", err)
	}
	want := []string{"alpha-kit", "zeta-kit"}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Errorf("ListKitDirs() = %v, want %v", ids, want)
	}
}

func TestEnsureReadme(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	if err := EnsureReadme(root, "env-repository"); err != nil {
		t.Fatalf("EnsureReadme() error = %v", err)
	}

	readme := filepath.Join(Dir(root), "README.md")
	data, err := os.ReadFile(readme)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "source: env-repository") {
		t.Errorf("README missing source line:\n%s", data)
	}

	if err := os.WriteFile(readme, []byte("edited by hand\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := EnsureReadme(root, "env-remote"); err != nil {
		t.Fatalf("EnsureReadme() error = %v", err)
	}
	data, err = os.ReadFile(readme)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "edited by hand\n" {
		t.Error("EnsureReadme() overwrote existing README")
	}
}
