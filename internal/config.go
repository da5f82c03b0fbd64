package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultServer is where the backend listens in a local setup
	DefaultServer = "http://localhost:8080"
	// ServerEnvVar overrides the configured server
	ServerEnvVar = "SPEND_DASHBOARD_SERVER"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Config struct {
	// Server is the backend base URL, e.g. http://localhost:8080
	Server string `yaml:"server,omitempty"`

	// Currency is an ISO code; empty means detect from the system locale
	Currency string `yaml:"currency,omitempty"`

	// Locale controls sort order, e.g. "sv_SE". Empty means the system locale.
	Locale string `yaml:"locale,omitempty"`

	// ToastDuration is how long undo stays available, e.g. "4s"
	ToastDuration string `yaml:"toast_duration,omitempty"`

	// RowLimit caps the transaction table; 0 shows every row
	RowLimit int `yaml:"row_limit,omitempty"`

	// DefaultTab is the tab shown on start: dashboard or transactions
	DefaultTab string `yaml:"default_tab,omitempty"`

	// Colors overrides category colours by name
	Colors map[string]string `yaml:"colors,omitempty"`

	// LogFile receives the diagnostic log of the interactive mode
	LogFile string `yaml:"log_file,omitempty"`

	// compiled fields
	toastDuration time.Duration `yaml:"-"`
}

// DefaultConfigPath returns the default config file path (~/.spend-dashboard/config.yaml)
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".spend-dashboard", "config.yaml")
}

// DefaultLogPath returns where the interactive mode logs unless configured otherwise
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".spend-dashboard", "dashboard.log")
}

// NewDefaultConfig creates a config for when no config file exists
func NewDefaultConfig() *Config {
	return &Config{
		Server:        DefaultServer,
		ToastDuration: DefaultToastDuration.String(),
		DefaultTab:    string(TabTransactions),
		toastDuration: DefaultToastDuration,
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the file at path, falling back to defaults when it
// does not exist
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		return NewDefaultConfig(), nil
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	return cfg, err
}

// compile validates the loaded values and fills derived fields
func (c *Config) compile() error {
	if c.Server == "" {
		c.Server = DefaultServer
	}
	u, err := url.Parse(c.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server %q: expected an absolute URL", c.Server)
	}

	c.toastDuration = DefaultToastDuration
	if c.ToastDuration != "" {
		d, err := time.ParseDuration(c.ToastDuration)
		if err != nil {
			return fmt.Errorf("invalid toast_duration %q: %w", c.ToastDuration, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid toast_duration %q: must be positive", c.ToastDuration)
		}
		c.toastDuration = d
	}

	if c.RowLimit < 0 {
		return fmt.Errorf("invalid row_limit %d: must not be negative", c.RowLimit)
	}

	switch Tab(c.DefaultTab) {
	case "", TabDashboard, TabTransactions:
	default:
		return fmt.Errorf("invalid default_tab %q (available: dashboard, transactions)", c.DefaultTab)
	}

	for name, color := range c.Colors {
		if !hexColorPattern.MatchString(color) {
			return fmt.Errorf("invalid colour %q for category %q: expected #rrggbb", color, name)
		}
	}
	return nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// LoadEnv reads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing files
// are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ResolveServer picks the backend URL: flag, then environment, then config
func (c *Config) ResolveServer(flag string) string {
	if flag != "" {
		return strings.TrimRight(flag, "/")
	}
	if env := os.Getenv(ServerEnvVar); env != "" {
		return strings.TrimRight(env, "/")
	}
	if c == nil || c.Server == "" {
		return DefaultServer
	}
	return strings.TrimRight(c.Server, "/")
}

// GetToastDuration returns the compiled toast duration
func (c *Config) GetToastDuration() time.Duration {
	if c == nil || c.toastDuration <= 0 {
		return DefaultToastDuration
	}
	return c.toastDuration
}

// GetDefaultTab returns the starting tab, transactions unless configured
func (c *Config) GetDefaultTab() Tab {
	if c == nil || c.DefaultTab == "" {
		return TabTransactions
	}
	return Tab(c.DefaultTab)
}

// GetLogFile returns the diagnostic log destination
func (c *Config) GetLogFile() string {
	if c == nil || c.LogFile == "" {
		return DefaultLogPath()
	}
	return c.LogFile
}

// GetColors returns the colour overrides, or nil if none
func (c *Config) GetColors() map[string]string {
	if c == nil {
		return nil
	}
	return c.Colors
}
