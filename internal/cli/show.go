package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/assets"
	"github.com/msr-creativetech/vibekit/internal/markdown"
	"github.com/msr-creativetech/vibekit/internal/state"
	"github.com/msr-creativetech/vibekit/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <kit>",
	Short: "Show details for an installed kit",
	Long: `Prints the recorded metadata for an installed kit, the customization
files it contributed, and its README.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

type kitBundle struct {
	Bundle string `json:"bundle"`
	Title  string `json:"title,omitempty"`
}

type kitDetails struct {
	state.KitRecord
	Customizations []kitBundle `json:"customizations,omitempty"`
}

func runShow(kit string) error {
	root, err := resolveProject()
	if err != nil {
		return err
	}

	records, warning := state.LoadInstalled(root)
	if warning != "" {
		warnf("%s", warning)
	}
	rec, ok := state.Find(records, kit)
	if !ok {
		return failf(codeResolution, "Kit '%s' is not installed", kit)
	}

	details := kitDetails{KitRecord: rec, Customizations: collectBundles(root, kit)}
	if isJSONOutput() {
		printJSON(details)
		return nil
	}

	fmt.Printf("%s %s\n", ui.KitName(rec.ID), rec.Version)
	if rec.Description != "" {
		fmt.Println(rec.Description)
	}
	fmt.Println()

	tbl := ui.NewTable(2)
	tbl.AddRow("source:", rec.Source)
	tbl.AddRow("installed:", rec.InstalledAt)
	tbl.AddRow("path:", rec.Path)
	fmt.Print(tbl.String())

	if len(details.Customizations) > 0 {
		fmt.Println()
		fmt.Printf("%s %s\n", ui.Header("Customizations"), ui.Count(len(details.Customizations), "file", "files"))
		list := ui.NewList()
		for _, b := range details.Customizations {
			item := b.Bundle
			if b.Title != "" {
				item = fmt.Sprintf("%s %s", b.Bundle, ui.Hint("("+b.Title+")"))
			}
			list.Add(item)
		}
		fmt.Print(list.String())
	}

	printKitReadme(root, kit)
	return nil
}

// collectBundles lists the customization files the index attributes to kit,
// with a display title pulled from each document.
func collectBundles(root, kit string) []kitBundle {
	idx, warning := assets.LoadIndex(state.Dir(root))
	if warning != "" {
		warnf("%s", warning)
	}

	var bundles []kitBundle
	for _, files := range idx.Kits[kit] {
		for _, entry := range files {
			if entry.Bundle == "" {
				continue
			}
			b := kitBundle{Bundle: entry.Bundle}
			if data, err := os.ReadFile(filepath.Join(state.Dir(root), filepath.FromSlash(entry.Bundle))); err == nil {
				b.Title = markdown.Summary(data)
			}
			bundles = append(bundles, b)
		}
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Bundle < bundles[j].Bundle })
	return bundles
}

// printKitReadme renders the kit's README when it ships one, styled on a
// terminal and plain otherwise.
func printKitReadme(root, kit string) {
	data, err := os.ReadFile(filepath.Join(state.KitDir(root, kit), "README.md"))
	if err != nil {
		return
	}
	fmt.Println()

	disp := ui.NewDisplayContext()
	if disp.IsTTY {
		if rendered, err := ui.RenderMarkdown(string(data), disp.AvailableWidth(ui.MarkdownRenderMargin)); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	out := string(data)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Print(out)
}
