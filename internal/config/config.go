package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/amankb/internal/corpus"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
)

// Project configuration file names, in lookup order.
var projectConfigFiles = []string{".amankb.yaml", ".amankb.yml", ".amankb.toml"}

// Config represents the knowledge base configuration.
type Config struct {
	Version int             `yaml:"version" toml:"version" json:"version"`
	Sources []corpus.Source `yaml:"sources,omitempty" toml:"sources,omitempty" json:"sources,omitempty"`
	Search  SearchConfig    `yaml:"search" toml:"search" json:"search"`
	Cache   CacheConfig     `yaml:"cache" toml:"cache" json:"cache"`
	Watch   WatchConfig     `yaml:"watch" toml:"watch" json:"watch"`
	Server  ServerConfig    `yaml:"server" toml:"server" json:"server"`
}

// SearchConfig configures ranking and result limits.
type SearchConfig struct {
	// MinScore drops results whose cosine similarity is below it.
	MinScore float64 `yaml:"min_score" toml:"min_score" json:"min_score"`
	// DefaultResults is used when a caller does not ask for a count.
	DefaultResults int `yaml:"default_results" toml:"default_results" json:"default_results"`
	// MaxResults caps any requested count.
	MaxResults int `yaml:"max_results" toml:"max_results" json:"max_results"`
	// StopWords selects the stop word list: "english" or "none".
	StopWords string `yaml:"stop_words" toml:"stop_words" json:"stop_words"`
}

// CacheConfig configures the query result cache.
type CacheConfig struct {
	Size int `yaml:"size" toml:"size" json:"size"`
}

// WatchConfig configures source file watching in serve mode.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" toml:"debounce" json:"debounce"`
}

// ServerConfig contains MCP server settings.
type ServerConfig struct {
	Transport string `yaml:"transport" toml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" toml:"log_level" json:"log_level"`
}

// DefaultSources returns the stock source layout: the ground truth table
// followed by the synthetic extension table.
func DefaultSources() []corpus.Source {
	return []corpus.Source{
		{Name: "ground_truth", Path: filepath.Join("data", "dataset.csv")},
		{Name: "synthetic", Path: filepath.Join("data", "synthetic_dataset.csv")},
	}
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Sources: DefaultSources(),
		Search: SearchConfig{
			MinScore:       0.05,
			DefaultResults: 3,
			MaxResults:     10,
			StopWords:      "english",
		},
		Cache: CacheConfig{
			Size: 256,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: "500ms",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/amankb/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/amankb/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "amankb", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "amankb", "config.yaml")
	}
	return filepath.Join(home, ".config", "amankb", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig returns nil config and nil error when no user config exists.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := decodeFile(configPath, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/amankb/config.yaml)
//  3. Project config (.amankb.yaml, .amankb.yml or .amankb.toml in dir)
//  4. Environment variables (AMANKB_*)
//
// Relative source paths are resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, amanerrors.ConfigError("failed to load user config", err).
			WithDetail("path", GetUserConfigPath())
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, amanerrors.ConfigError("invalid configuration", err)
	}

	cfg.resolveSources(dir)
	return cfg, nil
}

// ProjectConfigPath returns the first project config file present in dir,
// or an empty string.
func ProjectConfigPath(dir string) string {
	for _, name := range projectConfigFiles {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func (c *Config) loadFromFile(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}

	var parsed Config
	if err := decodeFile(path, &parsed); err != nil {
		return amanerrors.ConfigError("failed to load project config", err).WithDetail("path", path)
	}
	c.mergeWith(&parsed)
	return nil
}

// decodeFile parses a YAML or TOML file into out, chosen by extension.
func decodeFile(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Sources replace wholesale; their order decides ID offsets.
	if len(other.Sources) > 0 {
		c.Sources = append([]corpus.Source(nil), other.Sources...)
	}

	if other.Search.MinScore != 0 {
		c.Search.MinScore = other.Search.MinScore
	}
	if other.Search.DefaultResults != 0 {
		c.Search.DefaultResults = other.Search.DefaultResults
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.StopWords != "" {
		c.Search.StopWords = other.Search.StopWords
	}

	if other.Cache.Size != 0 {
		c.Cache.Size = other.Cache.Size
	}

	// Enabled is a bool; only trust it when the watch section was written.
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
		c.Watch.Enabled = other.Watch.Enabled
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies AMANKB_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AMANKB_MIN_SCORE"); v != "" {
		if s, err := parseFloat64(v); err == nil && s >= 0 && s <= 1 {
			c.Search.MinScore = s
		}
	}
	if v := os.Getenv("AMANKB_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Cache.Size = n
		}
	}
	if v := os.Getenv("AMANKB_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("AMANKB_SOURCES"); v != "" {
		if sources, err := ParseSources(v); err == nil && len(sources) > 0 {
			c.Sources = sources
		}
	}
	if v := os.Getenv("AMANKB_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Watch.Enabled = b
		}
	}
}

// ParseSources parses "name=path,name=path". An entry without a name gets
// its file name without extension.
func ParseSources(s string) ([]corpus.Source, error) {
	var sources []corpus.Source
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, path, ok := strings.Cut(part, "=")
		if !ok {
			path = name
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if name == "" || path == "" {
			return nil, fmt.Errorf("invalid source entry %q", part)
		}
		sources = append(sources, corpus.Source{Name: name, Path: path})
	}
	return sources, nil
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// resolveSources makes relative source paths absolute against dir.
func (c *Config) resolveSources(dir string) {
	for i, src := range c.Sources {
		if src.Path != "" && !filepath.IsAbs(src.Path) {
			c.Sources[i].Path = filepath.Join(dir, src.Path)
		}
	}
}

// FindProjectRoot walks up from startDir looking for a project config file
// or a .git directory. It returns the absolute startDir when neither exists.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if ProjectConfigPath(currentDir) != "" || dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// WatchDebounce returns the parsed debounce duration, falling back to 500ms.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name must not be empty", i)
		}
		if src.Path == "" {
			return fmt.Errorf("sources[%d].path must not be empty", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
	}

	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return fmt.Errorf("search.min_score must be between 0 and 1, got %f", c.Search.MinScore)
	}
	if c.Search.DefaultResults < 1 {
		return fmt.Errorf("search.default_results must be positive, got %d", c.Search.DefaultResults)
	}
	if c.Search.MaxResults < c.Search.DefaultResults {
		return fmt.Errorf("search.max_results (%d) must be >= default_results (%d)",
			c.Search.MaxResults, c.Search.DefaultResults)
	}
	validStopWords := map[string]bool{"english": true, "none": true}
	if !validStopWords[strings.ToLower(c.Search.StopWords)] {
		return fmt.Errorf("search.stop_words must be 'english' or 'none', got %s", c.Search.StopWords)
	}

	if c.Cache.Size < 1 {
		return fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size)
	}

	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce is not a duration: %w", err)
		}
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WriteTOML writes the configuration to a TOML file.
func (c *Config) WriteTOML(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
