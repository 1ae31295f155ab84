package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/assets"
	"github.com/msr-creativetech/vibekit/internal/config"
	"github.com/msr-creativetech/vibekit/internal/fsutil"
	"github.com/msr-creativetech/vibekit/internal/manifest"
	"github.com/msr-creativetech/vibekit/internal/repo"
	"github.com/msr-creativetech/vibekit/internal/state"
)

var installCmd = &cobra.Command{
	Use:   "install <kit>",
	Short: "Install an innovation kit into the project",
	Long: `Installs a kit directory into .vibe-kit/innovation-kits/, records it in
innovation-kits.json, and aggregates its customization files into the flat
per-category directories under .vibe-kit/.

The kit source is VIBEKIT_BASE_PATH (a local repository path or a remote
repository URL), configured repositories, or an innovation-kit-repository
directory discovered in an ancestor of the project.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(args[0])
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(kit string) error {
	root, err := resolveProject()
	if err != nil {
		return err
	}

	records, warning := state.LoadInstalled(root)
	if warning != "" {
		warnf("%s", warning)
	}
	if _, ok := state.Find(records, kit); ok {
		fmt.Printf("%s already installed (recorded in innovation-kits.json)\n", kit)
		return nil
	}

	if err := state.EnsureLayout(root); err != nil {
		return failf(codeIO, "Failed to prepare state directory: %v", err)
	}

	target := state.KitDir(root, kit)
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		// Drift reconciliation: the directory is already on disk but the
		// metadata never recorded it.
		fmt.Printf("%s directory already exists; recording metadata (drift reconciliation)\n", kit)
		rec := kitRecord(kit, targetMetadata(target, kit), state.SourceExistingDirectory)
		if err := state.RecordInstall(root, rec); err != nil {
			return failf(codeIO, "Failed to record installation: %v", err)
		}
		return nil
	}

	configured := config.BasePath()
	if configured != "" && repo.IsRemoteURL(configured) {
		return installRemote(root, kit, target, configured)
	}

	roots := repo.ResolveRoots(root, localOptions())
	printRepoSource(roots)
	candidates := roots.KitDirs(kit)
	if len(candidates) == 0 {
		return failf(codeResolution, "Unknown kit name: %s", kit)
	}
	return installFrom(root, kit, candidates[0], target, state.SourceEnvRepository)
}

// installRemote downloads the kit subtree from a remote repository archive
// into a temporary directory and installs from there.
func installRemote(root, kit, target, configured string) error {
	remote, err := repo.ParseRemote(configured)
	if err != nil {
		return failf(codeResolution, "%v", err)
	}

	tmpDir, err := os.MkdirTemp("", "vibekit-remote-")
	if err != nil {
		return failf(codeIO, "Failed to stage remote download: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	srcDir, err := newFetcher().DownloadKit(remote, kit, tmpDir)
	if err != nil {
		if errors.Is(err, repo.ErrKitNotFound) {
			return failf(codeResolution, "%v", err)
		}
		return failf(codeIO, "%v", err)
	}
	printRemoteSource(configured)

	return installFrom(root, kit, srcDir, target, state.SourceEnvRemote)
}

// installFrom copies the kit tree from srcDir into target and performs the
// bookkeeping shared by local and remote installs.
func installFrom(root, kit, srcDir, target, source string) error {
	reportConflicts(root, kit, srcDir)

	if err := fsutil.CopyTree(srcDir, target); err != nil {
		return failf(codeIO, "Failed to copy local repository kit from %s: %v", srcDir, err)
	}
	for _, w := range fsutil.FixPermissions(target) {
		warnf("%s", w)
	}

	meta := targetMetadata(target, kit)
	if err := state.RecordInstall(root, kitRecord(kit, meta, source)); err != nil {
		return failf(codeIO, "Failed to record installation: %v", err)
	}
	if err := manifest.EnsureStub(target, kit, meta); err != nil {
		return failf(codeIO, "Failed to write %s: %v", manifest.StubName, err)
	}

	report, err := assets.CopyKitAssets(srcDir, state.Dir(root), kit)
	for _, msg := range report.Skipped {
		fmt.Println(msg)
	}
	for _, w := range report.Warnings {
		warnf("%s", w)
	}
	if err != nil {
		return failf(codeIO, "Failed to update customization index: %v", err)
	}

	if err := os.RemoveAll(filepath.Join(target, assets.CustomizationsDirName)); err != nil {
		warnf("failed to remove customizations directory from installed kit: %v", err)
	}

	if n := len(report.Copied); n > 0 {
		fmt.Printf("Copied %d customization file(s) for %s\n", n, kit)
	}
	fmt.Printf("Installed kit %s -> %s\n", kit, target)
	return nil
}

// reportConflicts prints advisory notices when the kit ships customization
// files whose names are already claimed by other kits. Installation
// continues; the conflicting files are skipped at copy time.
func reportConflicts(root, kit, srcDir string) {
	customDir := filepath.Join(srcDir, assets.CustomizationsDirName)
	info, err := os.Stat(customDir)
	if err != nil || !info.IsDir() {
		return
	}
	files, err := assets.ListFiles(customDir)
	if err != nil {
		return
	}
	conflicts := assets.DetectConflicts(state.Dir(root), kit, files)
	if len(conflicts) == 0 {
		return
	}
	for _, msg := range conflicts {
		fmt.Println(msg)
	}
	fmt.Println("Continuing installation; conflicting customization files will be skipped.")
}
