package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/assets"
	"github.com/msr-creativetech/vibekit/internal/fsutil"
	"github.com/msr-creativetech/vibekit/internal/manifest"
	"github.com/msr-creativetech/vibekit/internal/repo"
	"github.com/msr-creativetech/vibekit/internal/state"
	"github.com/msr-creativetech/vibekit/internal/versioning"
)

var updateDryRun bool

var updateCmd = &cobra.Command{
	Use:   "update <kit>",
	Short: "Update an installed kit from the local repository",
	Long: `Replaces an installed kit with the copy in the local repository when the
repository carries a newer version, refreshing the kit's customization
files along the way. Versions that compare equal or older leave the
installation untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(args[0], updateDryRun)
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Report whether an update is available without changing anything")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(kit string, dryRun bool) error {
	root, err := resolveProject()
	if err != nil {
		return err
	}

	records, warning := state.LoadInstalled(root)
	if warning != "" {
		warnf("%s", warning)
	}

	roots := repo.ResolveRoots(root, localOptions())
	printRepoSource(roots)
	sources := roots.KitDirs(kit)

	rec, installed := state.Find(records, kit)
	if !installed {
		fmt.Printf("Package '%s' is not installed. Run 'vibekit install %s' first\n", kit, kit)
		return nil
	}
	if len(sources) == 0 {
		return failf(codeResolution, "Package '%s' not found in local repository", kit)
	}
	srcDir := sources[0]

	installedVersion := rec.Version
	if installedVersion == "" {
		installedVersion = "0.0.0"
	}
	sourceVersion := "0.0.0"
	if meta, ok := manifest.ReadDir(srcDir); ok && meta.Version != "" {
		sourceVersion = meta.Version
	}

	cmp := versioning.Compare(installedVersion, sourceVersion)
	if dryRun {
		if cmp < 0 {
			fmt.Printf("DRY-RUN: update available for %s (installed: %s, available: %s)\n", kit, installedVersion, sourceVersion)
		} else {
			fmt.Printf("DRY-RUN: no update needed for %s (installed: %s, available: %s)\n", kit, installedVersion, sourceVersion)
		}
		return nil
	}
	if cmp >= 0 {
		fmt.Printf("No newer version for %s (installed: %s, available: %s)\n", kit, installedVersion, sourceVersion)
		return nil
	}

	target := state.KitDir(root, kit)
	if err := os.RemoveAll(target); err != nil {
		return failf(codeIO, "Failed to remove existing installation: %v", err)
	}
	if err := fsutil.CopyTree(srcDir, target); err != nil {
		return failf(codeIO, "Failed to copy new version from %s: %v", srcDir, err)
	}

	newMeta, ok := manifest.ReadDir(target)
	if !ok {
		newMeta = manifest.Synthesize(kit)
		newMeta.Version = sourceVersion
	}
	if newMeta.Version == "" {
		newMeta.Version = sourceVersion
	}

	if err := state.RecordInstall(root, kitRecord(kit, newMeta, state.SourceEnvRepositoryUpdate)); err != nil {
		return failf(codeIO, "Failed to record installation: %v", err)
	}
	if err := manifest.EnsureStub(target, kit, newMeta); err != nil {
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
		warnf("failed to remove customizations directory after update: %v", err)
	}

	if n := len(report.Copied); n > 0 {
		fmt.Printf("Refreshed %d customization file(s) for %s\n", n, kit)
	}
	fmt.Printf("Updated %s from %s to %s\n", kit, installedVersion, newMeta.Version)
	return nil
}
