package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Config holds the credentials and endpoints for a run. It is read once at
// startup and handed to the components that need it.
type Config struct {
	// Username is the Jira Server login and the worklog author.
	Username string `json:"username"`
	// Password is the Jira Server password. Prompted for when empty.
	Password string `json:"password"`
	// BaseURL is the Jira Server root, without a trailing slash.
	BaseURL string `json:"base_url"`
	// APIToken switches to Tempo Cloud when set.
	APIToken string `json:"api_token"`
	// AccountID is the Atlassian account worklogs are recorded for on Tempo Cloud.
	AccountID string `json:"account_id"`
	// CloudURL is the Tempo Cloud API root.
	CloudURL string `json:"cloud_url"`
	// TimewBin is the timewarrior executable.
	TimewBin string `json:"timew_bin"`
	// TimeoutSeconds bounds each HTTP request. Zero means no limit.
	TimeoutSeconds int `json:"timeout_seconds"`
}

const (
	DefaultBaseURL  = "https://tasks.opencraft.com"
	DefaultCloudURL = "https://api.tempo.io"
	DefaultTimewBin = "timew"

	// PasswordEnv and APITokenEnv override the secrets stored in the file.
	PasswordEnv = "TEMPOIT_PASSWORD"
	APITokenEnv = "TEMPOIT_API_TOKEN"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

func defaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		CloudURL: DefaultCloudURL,
		TimewBin: DefaultTimewBin,
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `// tempoit configuration
//
// Worklogs go to a Jira Server with the Tempo plugin (username/password) or,
// when api_token is set, to Tempo Cloud.
{
  // Jira Server login. Leave the password empty to be asked for it on each
  // run, or set it through the TEMPOIT_PASSWORD environment variable.
  "username": "",
  "password": "",

  // Jira Server root URL, without a trailing slash.
  "base_url": "https://tasks.opencraft.com",

  // Tempo Cloud: a personal API token (or TEMPOIT_API_TOKEN) and the
  // Atlassian account id worklogs are recorded for.
  "api_token": "",
  "account_id": "",
  "cloud_url": "https://api.tempo.io",

  // timewarrior executable, looked up on PATH unless absolute.
  "timew_bin": "timew",

  // Per-request HTTP timeout in seconds; 0 disables it.
  "timeout_seconds": 0
}
`

// DefaultPath returns the path to $XDG_CONFIG_HOME/tempoit/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(dir, "tempoit", "config.json"), nil
}

// Load reads the config file at path, creating it with annotated defaults on
// first run. Comments are allowed. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if _, writeErr := WriteDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		} else {
			fmt.Fprintf(os.Stderr, "Created config file %s, fill in your credentials.\n", path)
		}
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Keep defaults for keys the user blanked out.
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CloudURL == "" {
		cfg.CloudURL = DefaultCloudURL
	}
	if cfg.TimewBin == "" {
		cfg.TimewBin = DefaultTimewBin
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.CloudURL = strings.TrimRight(cfg.CloudURL, "/")

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(PasswordEnv); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv(APITokenEnv); v != "" {
		cfg.APIToken = v
	}
}

// WriteDefault writes the annotated template to path unless a file already
// exists there. It reports whether a file was created.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(configTemplate), 0o600); err != nil {
		return false, fmt.Errorf("writing default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("saving default config: %w", err)
	}
	return true, nil
}

// UseCloud reports whether worklogs go to Tempo Cloud.
func (c Config) UseCloud() bool {
	return c.APIToken != ""
}

// Timeout returns the per-request HTTP timeout; zero means none.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks that the settings needed by the selected backend are
// present. The password is not checked since it can be prompted for.
func (c Config) Validate() error {
	if c.UseCloud() {
		if c.AccountID == "" {
			return fmt.Errorf("%w: account_id is required with api_token", ErrInvalid)
		}
		return checkURL("cloud_url", c.CloudURL)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is not set", ErrInvalid)
	}
	return checkURL("base_url", c.BaseURL)
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalid, key, raw)
	}
	return nil
}
