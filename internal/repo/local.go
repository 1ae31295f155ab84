// Package repo resolves kit sources. A source is either a local
// innovation-kit repository on disk or a remote repository downloaded as a
// gzipped tar archive.
package repo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/msr-creativetech/vibekit/internal/manifest"
)

// RepoDirName is the directory name probed during auto-discovery.
const RepoDirName = "innovation-kit-repository"

// Root resolution kinds, reported in the "Repository source:" banner.
const (
	RootsKindEnv    = "env"
	RootsKindConfig = "config"
	RootsKindAuto   = "auto"
	RootsKindNone   = "none"
)

// LocalOptions configures local repository discovery.
type LocalOptions struct {
	// BasePath is an explicit repository path, usually taken from
	// VIBEKIT_BASE_PATH when it points at the filesystem.
	BasePath string
	// Repositories are additional configured search paths.
	Repositories []string
}

// Roots is an ordered list of local repository directories plus the kind of
// resolution that produced them.
type Roots struct {
	Kind  string
	Paths []string
}

// None reports whether resolution found no repository at all.
func (r Roots) None() bool {
	return len(r.Paths) == 0
}

// Entry is one kit visible in a repository listing.
type Entry struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Path    string `json:"path,omitempty"`
}

// ResolveRoots finds the local repository directories for start. Resolution
// is tiered and the first tier that yields an existing directory wins: the
// explicit base path, then configured repositories, then any
// innovation-kit-repository directory beside start or an ancestor.
func ResolveRoots(start string, opts LocalOptions) Roots {
	if strings.TrimSpace(opts.BasePath) != "" {
		if paths := existingDirs(start, []string{opts.BasePath}); len(paths) > 0 {
			return Roots{Kind: RootsKindEnv, Paths: paths}
		}
	}
	if paths := existingDirs(start, opts.Repositories); len(paths) > 0 {
		return Roots{Kind: RootsKindConfig, Paths: paths}
	}
	if paths := existingDirs(start, discoverRoots(start)); len(paths) > 0 {
		return Roots{Kind: RootsKindAuto, Paths: paths}
	}
	return Roots{Kind: RootsKindNone}
}

// existingDirs resolves candidates against base (relative paths are taken
// from the state root), drops duplicates, and keeps only directories.
func existingDirs(base string, candidates []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		resolved := candidate
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(base, resolved)
		}
		abs, err := filepath.Abs(resolved)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			dirs = append(dirs, abs)
		}
	}
	return dirs
}

// discoverRoots lists the candidate innovation-kit-repository locations for
// start and every ancestor, nearest first.
func discoverRoots(start string) []string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil
	}
	var found []string
	for {
		found = append(found, filepath.Join(dir, RepoDirName))
		parent := filepath.Dir(dir)
		if parent == dir {
			return found
		}
		dir = parent
	}
}

// KitDirs returns every <root>/<kit> that exists as a directory, preserving
// root order. Installation uses only the first match.
func (r Roots) KitDirs(kit string) []string {
	var dirs []string
	for _, root := range r.Paths {
		candidate := filepath.Join(root, kit)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			dirs = append(dirs, candidate)
		}
	}
	return dirs
}

// Entries lists the kits under every root, in root order with each root's
// children sorted by name. Kits appearing under several roots are listed
// once per root so shadowed copies stay visible. Kits without a manifest
// get metadata synthesized from the directory name.
func (r Roots) Entries() []Entry {
	var kits []Entry
	for _, root := range r.Paths {
		children, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, child := range children {
			name := child.Name()
			if !child.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			dir := filepath.Join(root, name)
			meta, ok := manifest.ReadDir(dir)
			if !ok {
				meta = manifest.Synthesize(name)
			}
			version := meta.Version
			if version == "" {
				version = "0.0.0"
			}
			kits = append(kits, Entry{ID: meta.ID, Version: version, Path: dir})
		}
	}
	return kits
}
