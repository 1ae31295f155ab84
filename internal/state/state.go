// Package state persists the record of installed kits beneath a project's
// .vibe-kit directory. The directory marks the project root; the JSON file
// inside it is the single source of truth for what is installed.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/msr-creativetech/vibekit/internal/atomicfile"
)

const (
	// DirName is the marker directory created at the project root.
	DirName = ".vibe-kit"
	// KitsDirName holds one subdirectory per installed kit.
	KitsDirName = "innovation-kits"
	// InstalledFileName records the installed kits as a JSON array.
	InstalledFileName = "innovation-kits.json"

	readmeName = "README.md"
)

// Source values recorded per kit. They describe where the kit's files came
// from, not where the kit lives now.
const (
	SourceEnvRepository       = "env-repository"
	SourceEnvRemote           = "env-remote"
	SourceExistingDirectory   = "existing-directory"
	SourceEnvRepositoryUpdate = "env-repository-update"
)

// KitRecord is one entry in the installed-kits file. Field order fixes the
// on-disk key order.
type KitRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	InstalledAt string `json:"installed_at"`
	Path        string `json:"path"`
	Source      string `json:"source"`
}

// Timestamp renders t the way installed_at is stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ResolveRoot walks from start toward the filesystem root and returns the
// first directory containing a .vibe-kit directory. When none is found it
// returns start itself with found=false; a fresh directory is a valid root.
func ResolveRoot(start string) (string, bool) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start, false
	}
	dir := abs
	for {
		info, err := os.Stat(filepath.Join(dir, DirName))
		if err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, false
		}
		dir = parent
	}
}

// Dir returns the state directory for a project root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// KitsDir returns the directory that holds installed kit trees.
func KitsDir(root string) string {
	return filepath.Join(root, DirName, KitsDirName)
}

// KitDir returns the install directory for a kit id.
func KitDir(root, id string) string {
	return filepath.Join(KitsDir(root), id)
}

// InstalledPath returns the path of the installed-kits file.
func InstalledPath(root string) string {
	return filepath.Join(root, DirName, InstalledFileName)
}

// RelKitPath returns the slash-separated path stored in a record, relative
// to the project root.
func RelKitPath(id string) string {
	return path.Join(DirName, KitsDirName, id)
}

// EnsureLayout creates the state directory and the kits directory.
func EnsureLayout(root string) error {
	return os.MkdirAll(KitsDir(root), 0o755)
}

// LoadInstalled reads the installed-kits file. A missing file yields an
// empty list. Unreadable or malformed content also yields an empty list,
// plus a warning the caller should surface; the file itself is left alone
// until the next write.
func LoadInstalled(root string) ([]KitRecord, string) {
	data, err := os.ReadFile(InstalledPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ""
		}
		return nil, fmt.Sprintf("ignoring unreadable %s: %v", InstalledFileName, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ""
	}

	var records []KitRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Sprintf("ignoring malformed %s: %v", InstalledFileName, err)
	}
	return records, ""
}

// WriteInstalled replaces the installed-kits file atomically. An empty set
// is written as [] so the file always parses.
func WriteInstalled(root string, records []KitRecord) error {
	if records == nil {
		records = []KitRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode %s: %w", InstalledFileName, err)
	}
	if err := atomicfile.WriteFile(InstalledPath(root), buf.Bytes(), 0); err != nil {
		return fmt.Errorf("write %s: %w", InstalledFileName, err)
	}
	return nil
}

var now = time.Now

// RecordInstall upserts rec into the installed-kits file, stamping
// installed_at with the current time when unset. Records without an id are
// not persisted.
func RecordInstall(root string, rec KitRecord) error {
	if rec.ID == "" {
		return nil
	}
	if rec.InstalledAt == "" {
		rec.InstalledAt = Timestamp(now())
	}
	records, _ := LoadInstalled(root)
	return WriteInstalled(root, Upsert(records, rec))
}

// Upsert returns records with any entry sharing rec's id dropped and rec
// appended, so the freshest install always sits last.
func Upsert(records []KitRecord, rec KitRecord) []KitRecord {
	out := make([]KitRecord, 0, len(records)+1)
	for _, existing := range records {
		if existing.ID == rec.ID {
			continue
		}
		out = append(out, existing)
	}
	return append(out, rec)
}

// Remove returns records without the entry for id and whether one existed.
func Remove(records []KitRecord, id string) ([]KitRecord, bool) {
	out := make([]KitRecord, 0, len(records))
	found := false
	for _, rec := range records {
		if rec.ID == id {
			found = true
			continue
		}
		out = append(out, rec)
	}
	return out, found
}

// Find returns the record for id.
func Find(records []KitRecord, id string) (KitRecord, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return KitRecord{}, false
}

// ListKitDirs returns the kit ids that have a directory on disk, sorted.
// Records and directories can drift apart; callers reconcile, so both views
// are needed.
func ListKitDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(KitsDir(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", KitsDirName, err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// EnsureReadme drops a short README into the state directory so a reader
// stumbling over .vibe-kit learns what owns it. Existing files are kept.
func EnsureReadme(root, source string) error {
	readme := filepath.Join(Dir(root), readmeName)
	if _, err := os.Stat(readme); err == nil {
		return nil
	}
	content := fmt.Sprintf("Innovation Kit State (source: %s)\n\nThis directory stores installed kits (innovation-kits/) and metadata (innovation-kits.json).\n", source)
	return os.WriteFile(readme, []byte(content), 0o644)
}
