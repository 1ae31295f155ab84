package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consumed by vibekit.
const (
	// EnvBasePath points at the kit repository source, either a local
	// path or a remote repository URL.
	EnvBasePath = "VIBEKIT_BASE_PATH"
	// EnvBaselineSource labels the baseline recorded by init.
	EnvBaselineSource = "VIBEKIT_BASELINE_SOURCE"
	// EnvInitRepoURL names the template repository applied by init.
	EnvInitRepoURL = "VIBEKIT_INIT_REPO_URL"
)

// tokenEnvVars are checked in order for a personal access token used when
// downloading private repositories.
var tokenEnvVars = []string{"GIT_PAT", "GITHUB_PAT", "GITHUB_TOKEN", "GH_TOKEN"}

// BasePath returns the repository source override from the environment.
func BasePath() string {
	return strings.TrimSpace(os.Getenv(EnvBasePath))
}

func lookupAccessToken() (string, string) {
	for _, key := range tokenEnvVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return key, v
		}
	}
	return "", ""
}

// AccessToken returns the first personal access token set in the
// environment.
func AccessToken() string {
	_, token := lookupAccessToken()
	return token
}

// AccessTokenVar returns the name of the variable that provided the access
// token, or "" when none is set.
func AccessTokenVar() string {
	name, _ := lookupAccessToken()
	return name
}

// TokenEnvNames returns the token variable names in precedence order.
func TokenEnvNames() []string {
	names := make([]string, len(tokenEnvVars))
	copy(names, tokenEnvVars)
	return names
}

// LoadDotEnv loads dir/.env into the process environment when the file
// exists. Variables already set keep their values.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
