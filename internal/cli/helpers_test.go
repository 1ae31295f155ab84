package cli

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/msr-creativetech/vibekit/internal/config"
	"github.com/msr-creativetech/vibekit/internal/repo"
	"github.com/msr-creativetech/vibekit/internal/testutil"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}

	os.Stdout = w

	outputCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		_, copyErr := io.Copy(&buf, r)
		_ = r.Close()
		if copyErr != nil {
			errCh <- copyErr
			return
		}
		outputCh <- buf.String()
	}()

	fn()

	os.Stdout = orig
	_ = w.Close()
	select {
	case err := <-errCh:
		t.Fatalf("io.Copy: %v", err)
		return ""
	case output := <-outputCh:
		return output
	}
}

// captureOutput captures stdout and stderr together for tests that assert
// on warning placement.
func captureOutput(t *testing.T, fn func()) (string, string) {
	t.Helper()

	origErr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stderr = w

	errCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		errCh <- buf.String()
	}()

	stdout := captureStdout(t, fn)

	os.Stderr = origErr
	_ = w.Close()
	return stdout, <-errCh
}

// setWorkDir points commands at dir through the --chdir flag variable so a
// test never changes the process working directory.
func setWorkDir(t *testing.T, dir string) {
	t.Helper()
	prev := chdirFlag
	t.Cleanup(func() { chdirFlag = prev })
	chdirFlag = dir
}

func setJSONOutput(t *testing.T, enabled bool) {
	t.Helper()
	prev := jsonOutput
	t.Cleanup(func() { jsonOutput = prev })
	jsonOutput = enabled
}

func setTestConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = c
}

func setConfigPath(t *testing.T, path string) {
	t.Helper()
	prev := configPath
	t.Cleanup(func() { configPath = prev })
	configPath = path
}

// clearSourceEnv unsets every variable the commands consult so the test's
// own .env file, or nothing at all, decides the configuration. t.Setenv
// registers the restore; the explicit unset afterwards matters because
// godotenv will not override a variable that is merely set to "".
func clearSourceEnv(t *testing.T) {
	t.Helper()
	keys := []string{config.EnvBasePath, config.EnvBaselineSource, config.EnvInitRepoURL}
	keys = append(keys, config.TokenEnvNames()...)
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// swapFetcher routes remote downloads through a canned transport with
// retries short enough for tests.
func swapFetcher(t *testing.T, transport *testutil.FakeTransport) {
	t.Helper()
	prev := newFetcher
	t.Cleanup(func() { newFetcher = prev })
	newFetcher = func() *repo.Fetcher {
		return repo.NewFetcher(
			repo.WithHTTPClient(&http.Client{Transport: transport}),
			repo.WithToken(config.AccessToken()),
			repo.WithRetryInterval(time.Millisecond),
		)
	}
}

// seedKitProject builds a project whose .env points at an in-tree local
// repository holding a single kit, the layout the documentation describes.
func seedKitProject(t *testing.T, kit, version string) *testutil.TestProject {
	t.Helper()
	manifest := "kit_info:\n  id: " + kit + "\n  name: " + kit + "\n  version: " + version + "\n"
	return testutil.NewTestProject(t).
		WithFile(".env", "VIBEKIT_BASE_PATH=./innovation-kit-repository\n").
		WithFile("innovation-kit-repository/"+kit+"/MANIFEST.yml", manifest).
		WithFile("innovation-kit-repository/"+kit+"/README.md", "# "+kit+"\n").
		Build()
}
