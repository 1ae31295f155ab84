// Package assets manages customization files shipped inside kits. Matching
// files are copied flat into per-category directories under the state dir,
// and an index records which kit owns which file so later installs can
// detect collisions and uninstalls can clean up.
package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/msr-creativetech/vibekit/internal/atomicfile"
)

const (
	// IndexFileName is the customization index inside the state dir.
	IndexFileName = "customizations-index.json"
	// CustomizationsDirName is the kit subfolder scanned for assets.
	CustomizationsDirName = "customizations"

	schemaVersion = 1
)

// categoryBySuffix maps filename suffixes to the flat category directory a
// file is copied into. Matching is exact and case-sensitive; order matters
// when suffixes overlap.
var categoryBySuffix = []struct {
	suffix   string
	category string
}{
	{".chatmode.md", "chatmodes"},
	{".prompt.md", "prompts"},
	{".instructions.md", "instructions"},
	{".agent.md", "agents"},
}

// Entry records one copied customization file.
type Entry struct {
	Bundle  string   `json:"bundle"`
	Sources []string `json:"sources"`
}

// Index is the on-disk customization index. Kits maps
// kit -> category -> filename -> entry.
type Index struct {
	SchemaVersion int                                    `json:"schema_version"`
	GeneratedAt   string                                 `json:"generated_at"`
	Kits          map[string]map[string]map[string]Entry `json:"kits"`
}

// NewIndex returns an empty index at the current schema version.
func NewIndex() Index {
	return Index{SchemaVersion: schemaVersion, Kits: map[string]map[string]map[string]Entry{}}
}

var now = time.Now

// Classify returns the category for a customization filename.
func Classify(filename string) (string, bool) {
	name := path.Base(filepath.ToSlash(filename))
	for _, entry := range categoryBySuffix {
		if strings.HasSuffix(name, entry.suffix) {
			return entry.category, true
		}
	}
	return "", false
}

// IndexPath returns the index file location for a state dir.
func IndexPath(stateDir string) string {
	return filepath.Join(stateDir, IndexFileName)
}

// LoadIndex reads the customization index. Missing, unreadable, or
// malformed files yield an empty index; the latter two also yield a warning
// for the caller to surface.
func LoadIndex(stateDir string) (Index, string) {
	data, err := os.ReadFile(IndexPath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex(), ""
		}
		return NewIndex(), fmt.Sprintf("ignoring unreadable %s: %v", IndexFileName, err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return NewIndex(), fmt.Sprintf("ignoring malformed %s: %v", IndexFileName, err)
	}
	if idx.Kits == nil {
		idx.Kits = map[string]map[string]map[string]Entry{}
	}
	return idx, ""
}

// WriteIndex persists the index atomically, restamping generated_at. The
// temp-then-rename swap keeps a crashed write from leaving a truncated
// document behind.
func WriteIndex(stateDir string, idx Index) error {
	idx.SchemaVersion = schemaVersion
	idx.GeneratedAt = now().UTC().Format(time.RFC3339)
	if idx.Kits == nil {
		idx.Kits = map[string]map[string]map[string]Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(idx); err != nil {
		return fmt.Errorf("encode %s: %w", IndexFileName, err)
	}
	if err := atomicfile.WriteFile(IndexPath(stateDir), buf.Bytes(), 0); err != nil {
		return fmt.Errorf("write %s: %w", IndexFileName, err)
	}
	return nil
}

// ListFiles returns the slash-separated relative paths of every regular
// file under dir, sorted for deterministic processing.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// basenameOwners maps each customization basename in idx to the sorted kits
// claiming it, through either an index key, a bundle path, or a source path.
func basenameOwners(idx Index) map[string][]string {
	claims := map[string]map[string]struct{}{}
	claim := func(name, kit string) {
		if name == "" {
			return
		}
		if claims[name] == nil {
			claims[name] = map[string]struct{}{}
		}
		claims[name][kit] = struct{}{}
	}

	for kit, categories := range idx.Kits {
		for _, files := range categories {
			for filename, entry := range files {
				claim(filename, kit)
				claim(path.Base(entry.Bundle), kit)
				for _, source := range entry.Sources {
					claim(path.Base(source), kit)
				}
			}
		}
	}

	owners := make(map[string][]string, len(claims))
	for name, kits := range claims {
		list := make([]string, 0, len(kits))
		for kit := range kits {
			list = append(list, kit)
		}
		sort.Strings(list)
		owners[name] = list
	}
	return owners
}

// DetectConflicts reports which of the candidate files (deduplicated by
// basename) are already claimed by a kit other than kit. The messages are
// advisory; installs proceed and rely on copy-time skips for safety.
func DetectConflicts(stateDir, kit string, files []string) []string {
	idx, _ := LoadIndex(stateDir)
	delete(idx.Kits, kit)
	owners := basenameOwners(idx)

	seen := map[string]bool{}
	var messages []string
	for _, file := range files {
		name := path.Base(filepath.ToSlash(file))
		if seen[name] {
			continue
		}
		seen[name] = true
		if kits := owners[name]; len(kits) > 0 {
			messages = append(messages, fmt.Sprintf("Customization file name conflict: '%s' already provided by kit(s): %s", name, strings.Join(kits, ", ")))
		}
	}
	return messages
}

// CopyReport summarizes one CopyKitAssets run.
type CopyReport struct {
	Copied   []string // bundle paths, relative to the state dir
	Skipped  []string // messages for files left alone
	Warnings []string // best-effort failures worth surfacing
}

// CopyKitAssets copies kit's customization files from sourceDir into the
// per-category directories under stateDir and rewrites the kit's index
// entry. A kit with no customizations folder is a no-op. Existing files are
// never overwritten: a basename claimed by another kit, or a destination
// already on disk, is skipped with a message. Per-file failures degrade to
// warnings; only an index write failure is returned as an error.
func CopyKitAssets(sourceDir, stateDir, kit string) (CopyReport, error) {
	var report CopyReport

	src := filepath.Join(sourceDir, CustomizationsDirName)
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return report, nil
	}

	idx, warning := LoadIndex(stateDir)
	if warning != "" {
		report.Warnings = append(report.Warnings, warning)
	}

	// Replace semantics: drop the kit's previous bundles before recopying.
	for _, bundle := range kitBundles(idx, kit) {
		err := os.Remove(filepath.Join(stateDir, filepath.FromSlash(bundle)))
		if err != nil && !os.IsNotExist(err) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("failed to remove stale bundle %s: %v", bundle, err))
		}
	}
	delete(idx.Kits, kit)

	files, err := ListFiles(src)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("failed to scan %s: %v", CustomizationsDirName, err))
	}

	owners := basenameOwners(idx)
	fresh := map[string]map[string]Entry{}

	for _, rel := range files {
		name := path.Base(rel)
		category, ok := Classify(name)
		if !ok {
			continue
		}
		if kits := owners[name]; len(kits) > 0 {
			report.Skipped = append(report.Skipped, fmt.Sprintf("Skipping customization '%s' in '%s'; already provided by kit '%s'.", name, category, kits[0]))
			continue
		}

		bundle := path.Join(category, name)
		dest := filepath.Join(stateDir, filepath.FromSlash(bundle))
		if _, err := os.Lstat(dest); err == nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("Skipping customization '%s' in '%s'; file already exists in state directory.", name, category))
			continue
		}

		data, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(rel)))
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("failed to copy customization '%s': %v", name, err))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("failed to copy customization '%s': %v", name, err))
			continue
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("failed to copy customization '%s': %v", name, err))
			continue
		}

		if fresh[category] == nil {
			fresh[category] = map[string]Entry{}
		}
		fresh[category][name] = Entry{
			Bundle:  bundle,
			Sources: []string{path.Join(CustomizationsDirName, rel)},
		}
		report.Copied = append(report.Copied, bundle)
	}

	if len(fresh) > 0 {
		idx.Kits[kit] = fresh
	}
	// Written even when nothing was copied so the document always reflects
	// the last run.
	if err := WriteIndex(stateDir, idx); err != nil {
		return report, err
	}
	return report, nil
}

// RemoveKitFromIndex drops kit's entry from the index and persists it. It
// returns the bundle paths the entry owned so the caller can delete those
// files, plus any load warning. A kit with no entry leaves the index file
// untouched.
func RemoveKitFromIndex(stateDir, kit string) ([]string, string, error) {
	idx, warning := LoadIndex(stateDir)
	if _, ok := idx.Kits[kit]; !ok {
		return nil, warning, nil
	}
	bundles := kitBundles(idx, kit)
	delete(idx.Kits, kit)
	if err := WriteIndex(stateDir, idx); err != nil {
		return bundles, warning, err
	}
	return bundles, warning, nil
}

func kitBundles(idx Index, kit string) []string {
	var bundles []string
	for _, files := range idx.Kits[kit] {
		for _, entry := range files {
			if entry.Bundle != "" {
				bundles = append(bundles, entry.Bundle)
			}
		}
	}
	sort.Strings(bundles)
	return bundles
}
