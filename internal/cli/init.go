package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msr-creativetech/vibekit/internal/config"
	"github.com/msr-creativetech/vibekit/internal/fsutil"
	"github.com/msr-creativetech/vibekit/internal/repo"
	"github.com/msr-creativetech/vibekit/internal/state"
	"github.com/msr-creativetech/vibekit/internal/ui"
)

var (
	initSkipTests bool
	initSource    string
)

var initCmd = &cobra.Command{
	Use:   "init [project_dir]",
	Short: "Initialize a project with vibekit state",
	Long: `Creates the .vibe-kit state directory and its README marker. With a
project_dir argument a new folder is created (it must be empty or
non-existent); without one the current directory is initialized in place.

When a template repository is configured (VIBEKIT_INIT_REPO_URL or the
init_template config key) its contents are layered over the project.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir := ""
		if len(args) > 0 {
			projectDir = args[0]
		}
		return runInit(projectDir, initSource, initSkipTests)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initSkipTests, "skip-tests", false, "Skip the template's top-level tests directory")
	initCmd.Flags().StringVar(&initSource, "source", "", "Baseline source label recorded in the state README")
	rootCmd.AddCommand(initCmd)
}

func runInit(projectDir, sourceOverride string, skipTests bool) error {
	cwd, err := workingDir()
	if err != nil {
		return err
	}

	inPlace := projectDir == ""
	target := cwd
	if inPlace {
		if empty, err := fsutil.IsEmptyDir(target); err == nil && !empty {
			fmt.Fprintln(os.Stderr, "[warning] Current directory is not empty; existing files may be overwritten.")
		}
		fmt.Println("Initializing project in current directory (no new folder created)...")
	} else {
		if filepath.IsAbs(projectDir) {
			target = filepath.Clean(projectDir)
		} else {
			target = filepath.Join(cwd, projectDir)
		}
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			if empty, err := fsutil.IsEmptyDir(target); err == nil && !empty {
				return failf(codeResolution, "Target directory '%s' already exists and is not empty.", target)
			}
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return failf(codeIO, "Failed to create project directory: %v", err)
		}
	}

	if info, err := os.Stat(state.Dir(target)); err == nil && info.IsDir() {
		fmt.Println("Baseline already present (.vibe-kit) - reusing existing state")
	}
	if err := state.EnsureLayout(target); err != nil {
		return failf(codeIO, "Failed to create state directory: %v", err)
	}
	if err := state.EnsureReadme(target, baselineSource(sourceOverride)); err != nil {
		return failf(codeIO, "Failed to write state README: %v", err)
	}

	templated := false
	if url := getConfig().ResolvedInitTemplate(); url != "" {
		if err := applyTemplate(url, target, skipTests); err != nil {
			return err
		}
		templated = true
	}

	if inPlace {
		if templated {
			fmt.Println("Template applied in current directory.")
		}
		return nil
	}
	fmt.Printf("Project created at %s\n", target)
	return nil
}

// baselineSource returns the label recorded in the state README.
// Priority: the --source flag, then VIBEKIT_BASELINE_SOURCE, then config.
func baselineSource(override string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return getConfig().ResolvedBaselineSource()
}

var credentialPattern = regexp.MustCompile(`:([^@/]+)@`)

// maskCredentials hides an embedded password or token in a repository URL
// before it is echoed.
func maskCredentials(url string) string {
	return credentialPattern.ReplaceAllString(url, ":****@")
}

// applyTemplate downloads the template repository archive and layers its
// contents over target, skipping VCS litter and, when requested, the
// template's top-level tests directory.
func applyTemplate(rawURL, target string, skipTests bool) error {
	sp := ui.NewSpinner(fmt.Sprintf("Cloning template from %s", maskCredentials(rawURL)))
	sp.Start()

	remote, err := repo.ParseRemote(rawURL)
	if err != nil {
		sp.Stop()
		return failf(codeResolution, "%v", err)
	}

	tmpDir, err := os.MkdirTemp("", "vibekit-init-")
	if err != nil {
		sp.Stop()
		return failf(codeIO, "Failed to stage template download: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := newFetcher().DownloadTree(remote, tmpDir); err != nil {
		sp.Stop()
		printCloneFailure(err)
		return &exitError{code: codeIO, err: err}
	}
	sp.Stop()

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return failf(codeIO, "Failed to read template contents: %v", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" {
			continue
		}
		if skipTests && entry.IsDir() && name == "tests" {
			continue
		}
		src := filepath.Join(tmpDir, name)
		dst := filepath.Join(target, name)
		if entry.IsDir() {
			if err := fsutil.MergeTree(src, dst); err != nil {
				return failf(codeIO, "Failed to apply template: %v", err)
			}
			continue
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return failf(codeIO, "Failed to apply template: %v", err)
		}
		mode := os.FileMode(0o644)
		if info, err := entry.Info(); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(dst, data, mode); err != nil {
			return failf(codeIO, "Failed to apply template: %v", err)
		}
	}
	return nil
}

// printCloneFailure explains a template fetch failure, pointing at the PAT
// variables when none was set.
func printCloneFailure(err error) {
	if tokenVar := config.AccessTokenVar(); tokenVar != "" {
		fmt.Fprintf(os.Stderr, "Failed to clone template repository using %s: %v\n", tokenVar, err)
		return
	}
	fmt.Fprintf(os.Stderr, "Failed to clone template repository. The repository may require authentication.\nSet one of the following environment variables and try again: %s.\n", strings.Join(config.TokenEnvNames(), ", "))
	fmt.Fprintf(os.Stderr, "Details: %v\n", err)
}
