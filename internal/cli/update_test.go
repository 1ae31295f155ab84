package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msr-creativetech/vibekit/internal/config"
	"github.com/msr-creativetech/vibekit/internal/state"
	"github.com/msr-creativetech/vibekit/internal/testutil"
)

func TestUpdateRefreshesKitAndCustomizations(t *testing.T) {
	clearSourceEnv(t)
	setTestConfig(t, &config.Config{})
	p := testutil.NewTestProject(t).
		WithFile(".env", "VIBEKIT_BASE_PATH=./innovation-kit-repository\n").
		WithFile("innovation-kit-repository/c-kit/kit.yaml", "id: c-kit\nname: c-kit\nversion: 1.0.0\n").
		WithFile("innovation-kit-repository/c-kit/customizations/alpha.chatmode.md", "# Alpha V1\n").
		Build()
	setWorkDir(t, p.Path)

	captureStdout(t, func() {
		if err := installCmd.RunE(installCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("install c-kit: %v", err)
		}
	})
	p.AssertFileContains(".vibe-kit/chatmodes/alpha.chatmode.md", "# Alpha V1")

	// Publish 1.1.0 in the repository.
	repoKit := filepath.Join(p.Path, "innovation-kit-repository", "c-kit")
	if err := os.WriteFile(filepath.Join(repoKit, "kit.yaml"), []byte("id: c-kit\nname: c-kit\nversion: 1.1.0\n"), 0o644); err != nil {
		t.Fatalf("write kit.yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoKit, "customizations", "alpha.chatmode.md"), []byte("# Alpha V2\n"), 0o644); err != nil {
		t.Fatalf("write alpha.chatmode.md: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoKit, "customizations", "beta.prompt.md"), []byte("# Beta\n"), 0o644); err != nil {
		t.Fatalf("write beta.prompt.md: %v", err)
	}

	out := captureStdout(t, func() {
		if err := updateCmd.RunE(updateCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("update c-kit: %v", err)
		}
	})

	if !strings.Contains(out, "Updated c-kit from 1.0.0 to 1.1.0") {
		t.Fatalf("expected update confirmation, got:\n%s", out)
	}
	if !strings.Contains(out, "Refreshed 2 customization file(s) for c-kit") {
		t.Fatalf("expected refresh summary, got:\n%s", out)
	}

	p.AssertFileContains(".vibe-kit/innovation-kits/c-kit/kit.yaml", "version: 1.1.0")
	p.AssertFileContains(".vibe-kit/chatmodes/alpha.chatmode.md", "# Alpha V2")
	p.AssertFileContains(".vibe-kit/prompts/beta.prompt.md", "# Beta")
	p.AssertDirNotExists(".vibe-kit/innovation-kits/c-kit/customizations")

	records := readInstalled(t, p)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Version != "1.1.0" {
		t.Fatalf("Version = %q, want 1.1.0", records[0].Version)
	}
	if records[0].Source != state.SourceEnvRepositoryUpdate {
		t.Fatalf("Source = %q, want %q", records[0].Source, state.SourceEnvRepositoryUpdate)
	}
}

func TestUpdateDryRunMakesNoChanges(t *testing.T) {
	clearSourceEnv(t)
	setTestConfig(t, &config.Config{})
	p := testutil.NewTestProject(t).
		WithFile(".env", "VIBEKIT_BASE_PATH=./innovation-kit-repository\n").
		WithFile("innovation-kit-repository/c-kit/kit.yaml", "id: c-kit\nname: c-kit\nversion: 1.0.0\n").
		Build()
	setWorkDir(t, p.Path)

	captureStdout(t, func() {
		if err := installCmd.RunE(installCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("install c-kit: %v", err)
		}
	})

	repoKit := filepath.Join(p.Path, "innovation-kit-repository", "c-kit")
	if err := os.WriteFile(filepath.Join(repoKit, "kit.yaml"), []byte("id: c-kit\nname: c-kit\nversion: 1.1.0\n"), 0o644); err != nil {
		t.Fatalf("write kit.yaml: %v", err)
	}

	prevDry := updateDryRun
	t.Cleanup(func() { updateDryRun = prevDry })
	updateDryRun = true

	out := captureStdout(t, func() {
		if err := updateCmd.RunE(updateCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("update --dry-run: %v", err)
		}
	})

	if !strings.Contains(out, "DRY-RUN: update available for c-kit (installed: 1.0.0, available: 1.1.0)") {
		t.Fatalf("expected dry-run report, got:\n%s", out)
	}
	p.AssertFileContains(".vibe-kit/innovation-kits/c-kit/kit.yaml", "version: 1.0.0")
	if records := readInstalled(t, p); records[0].Version != "1.0.0" {
		t.Fatalf("Version = %q, want 1.0.0 after dry run", records[0].Version)
	}
}

func TestUpdateNoNewerVersion(t *testing.T) {
	clearSourceEnv(t)
	setTestConfig(t, &config.Config{})
	p := testutil.NewTestProject(t).
		WithFile(".env", "VIBEKIT_BASE_PATH=./innovation-kit-repository\n").
		WithFile("innovation-kit-repository/c-kit/kit.yaml", "id: c-kit\nname: c-kit\nversion: 1.0.0\n").
		Build()
	setWorkDir(t, p.Path)

	captureStdout(t, func() {
		if err := installCmd.RunE(installCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("install c-kit: %v", err)
		}
	})

	out := captureStdout(t, func() {
		if err := updateCmd.RunE(updateCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("update c-kit: %v", err)
		}
	})

	if !strings.Contains(out, "No newer version for c-kit (installed: 1.0.0, available: 1.0.0)") {
		t.Fatalf("expected no-newer-version message, got:\n%s", out)
	}
}

func TestUpdateNotInstalled(t *testing.T) {
	clearSourceEnv(t)
	setTestConfig(t, &config.Config{})
	p := seedKitProject(t, "c-kit", "1.0.0")
	setWorkDir(t, p.Path)

	out := captureStdout(t, func() {
		if err := updateCmd.RunE(updateCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("update c-kit: %v", err)
		}
	})

	if !strings.Contains(out, "Package 'c-kit' is not installed. Run 'vibekit install c-kit' first") {
		t.Fatalf("expected not-installed message, got:\n%s", out)
	}
	p.AssertDirNotExists(".vibe-kit/innovation-kits/c-kit")
}

func TestUpdateMissingSourceFails(t *testing.T) {
	clearSourceEnv(t)
	setTestConfig(t, &config.Config{})
	p := seedKitProject(t, "c-kit", "1.0.0")
	setWorkDir(t, p.Path)

	captureStdout(t, func() {
		if err := installCmd.RunE(installCmd, []string{"c-kit"}); err != nil {
			t.Fatalf("install c-kit: %v", err)
		}
	})
	if err := os.RemoveAll(filepath.Join(p.Path, "innovation-kit-repository", "c-kit")); err != nil {
		t.Fatalf("remove repository kit: %v", err)
	}

	var err error
	out := captureStdout(t, func() {
		err = updateCmd.RunE(updateCmd, []string{"c-kit"})
	})

	if err == nil {
		t.Fatal("expected an error when the repository lacks the kit")
	}
	if got := ExitCode(err); got != 2 {
		t.Fatalf("ExitCode = %d, want 2", got)
	}
	if !strings.Contains(out, "Package 'c-kit' not found in local repository") {
		t.Fatalf("expected not-found message, got:\n%s", out)
	}
	// The installed copy is untouched.
	p.AssertFileExists(".vibe-kit/innovation-kits/c-kit/kit.yaml")
}
