package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/config"
	"github.com/msr-creativetech/vibekit/internal/repo"
	"github.com/msr-creativetech/vibekit/internal/state"
)

var listInstalled bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available or installed kits",
	Long: `Lists the kits offered by the resolved repository source, or with
--installed the kits recorded in the project's innovation-kits.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(listInstalled)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "List kits recorded in the project state")
	rootCmd.AddCommand(listCmd)
}

func runList(installedMode bool) error {
	root, err := resolveProject()
	if err != nil {
		return err
	}

	if installedMode {
		return listInstalledKits(root)
	}

	configured := config.BasePath()
	if configured != "" && repo.IsRemoteURL(configured) {
		return listRemoteKits(configured)
	}

	roots := repo.ResolveRoots(root, localOptions())
	if roots.None() {
		if isJSONOutput() {
			fmt.Println("[]")
		} else {
			fmt.Println("No local innovation-kit-repository found")
		}
		return nil
	}
	if !isJSONOutput() {
		printRepoSource(roots)
	}
	printEntries(roots.Entries())
	return nil
}

func listInstalledKits(root string) error {
	records, warning := state.LoadInstalled(root)
	if warning != "" {
		warnf("%s", warning)
	}
	if isJSONOutput() {
		if records == nil {
			records = []state.KitRecord{}
		}
		printJSON(records)
		return nil
	}
	if len(records) == 0 {
		fmt.Println("No kits installed")
		return nil
	}
	sorted := append([]state.KitRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, rec := range sorted {
		fmt.Printf("%s %s\n", rec.ID, rec.Version)
	}
	return nil
}

// listRemoteKits lists the archive contents of a remote source. Fetch and
// parse problems are reported without failing the command so a broken
// remote never blocks the caller.
func listRemoteKits(configured string) error {
	remote, err := repo.ParseRemote(configured)
	if err != nil {
		reportListError(err)
		return nil
	}
	entries, err := newFetcher().ListKits(remote)
	if err != nil {
		reportListError(err)
		return nil
	}
	if !isJSONOutput() {
		printRemoteSource(configured)
	}
	printEntries(entries)
	return nil
}

func reportListError(err error) {
	if isJSONOutput() {
		fmt.Println("[]")
		return
	}
	fmt.Println(err)
}

func printEntries(entries []repo.Entry) {
	if isJSONOutput() {
		if entries == nil {
			entries = []repo.Entry{}
		}
		printJSON(entries)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No available kits found")
		return
	}
	for _, entry := range entries {
		fmt.Printf("%s %s\n", entry.ID, entry.Version)
	}
}
