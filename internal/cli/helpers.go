package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msr-creativetech/vibekit/internal/config"
	"github.com/msr-creativetech/vibekit/internal/manifest"
	"github.com/msr-creativetech/vibekit/internal/repo"
	"github.com/msr-creativetech/vibekit/internal/state"
	"github.com/msr-creativetech/vibekit/internal/ui"
)

// workingDir returns the directory commands operate from, honoring the
// --chdir flag.
func workingDir() (string, error) {
	if chdirFlag == "" {
		return os.Getwd()
	}
	dir, err := filepath.Abs(chdirFlag)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("cannot change to %s: %w", chdirFlag, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("cannot change to %s: not a directory", chdirFlag)
	}
	return dir, nil
}

// resolveProject locates the state root for this invocation and loads the
// project's .env so repository settings declared there take effect.
func resolveProject() (string, error) {
	dir, err := workingDir()
	if err != nil {
		return "", err
	}
	root, _ := state.ResolveRoot(dir)
	if err := config.LoadDotEnv(root); err != nil {
		warnf("failed to load .env: %v", err)
	}
	return root, nil
}

// localOptions collects the local repository search settings for root
// resolution. A remote VIBEKIT_BASE_PATH is handled by the remote path and
// never treated as a directory.
func localOptions() repo.LocalOptions {
	opts := repo.LocalOptions{Repositories: getConfig().Repositories}
	if base := config.BasePath(); base != "" && !repo.IsRemoteURL(base) {
		opts.BasePath = base
	}
	return opts
}

// printRepoSource echoes which repository tier served a command. Nothing is
// printed for kind none.
func printRepoSource(roots repo.Roots) {
	if roots.None() {
		return
	}
	fmt.Println(ui.Hint(fmt.Sprintf("Repository source: %s -> %s", roots.Kind, strings.Join(roots.Paths, ", "))))
}

// printRemoteSource is the remote counterpart of printRepoSource.
func printRemoteSource(url string) {
	fmt.Println(ui.Hint(fmt.Sprintf("Repository source: %s -> %s", state.SourceEnvRemote, url)))
}

// newFetcher builds the archive fetcher for remote sources. Tests swap it
// to inject a fake transport.
var newFetcher = func() *repo.Fetcher {
	return repo.NewFetcher(repo.WithToken(config.AccessToken()))
}

// kitRecord shapes manifest metadata into the record persisted for kit.
func kitRecord(kit string, meta manifest.Metadata, source string) state.KitRecord {
	return state.KitRecord{
		ID:          meta.ID,
		Name:        meta.Name,
		Version:     meta.Version,
		Description: meta.Description,
		Path:        state.RelKitPath(kit),
		Source:      source,
	}
}

// targetMetadata reads the manifest from an installed kit directory,
// synthesizing identity from the kit name when none is usable.
func targetMetadata(dir, kit string) manifest.Metadata {
	if meta, ok := manifest.ReadDir(dir); ok {
		return meta
	}
	return manifest.Synthesize(kit)
}
