package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/assets"
	"github.com/msr-creativetech/vibekit/internal/state"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <kit>",
	Short: "Remove an installed kit and its customization files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUninstall(args[0])
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(kit string) error {
	root, err := resolveProject()
	if err != nil {
		return err
	}

	records, warning := state.LoadInstalled(root)
	if warning != "" {
		warnf("%s", warning)
	}
	remaining, wasInstalled := state.Remove(records, kit)
	if !wasInstalled {
		fmt.Printf("Kit '%s' is not installed\n", kit)
		return nil
	}

	kitDir := state.KitDir(root, kit)
	if _, err := os.Stat(kitDir); err == nil {
		if err := os.RemoveAll(kitDir); err != nil {
			return failf(codeIO, "Failed to remove kit directory %s: %v", kitDir, err)
		}
	} else {
		fmt.Printf("Warning: kit directory %s missing; cleaning metadata only\n", kitDir)
	}

	if err := state.WriteInstalled(root, remaining); err != nil {
		return failf(codeIO, "Failed to update %s: %v", state.InstalledFileName, err)
	}

	bundles, loadWarning, err := assets.RemoveKitFromIndex(state.Dir(root), kit)
	if loadWarning != "" {
		warnf("%s", loadWarning)
	}
	if err != nil {
		warnf("failed to update %s: %v", assets.IndexFileName, err)
	}

	var removed []string
	for _, bundle := range bundles {
		dest := filepath.Join(state.Dir(root), filepath.FromSlash(bundle))
		if _, err := os.Lstat(dest); err != nil {
			continue
		}
		if err := os.Remove(dest); err != nil {
			warnf("failed to remove %s: %v", dest, err)
			continue
		}
		removed = append(removed, bundle)
	}
	if len(removed) > 0 {
		fmt.Printf("Removed customization assets: %s\n", strings.Join(removed, ", "))
	}

	fmt.Printf("Uninstalled %s\n", kit)
	return nil
}
