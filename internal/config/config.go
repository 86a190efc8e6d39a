package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete code-search daemon configuration.
// It mirrors the recognised-options list from the core specification.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Paths   PathsConfig  `yaml:"paths" json:"paths"`
	Index   IndexConfig  `yaml:"index" json:"index"`
	Server  ServerConfig `yaml:"server" json:"server"`
}

// PathsConfig configures which paths the default file supplier walks.
// These only govern the reference cmd/codesearch directory walker; a
// caller that supplies its own documents via index_documents ignores them.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IndexConfig configures the index service and the per-workspace index
// contexts it manages.
type IndexConfig struct {
	// MaxConcurrentIndexes bounds how many workspaces may have an Open
	// IndexContext simultaneously before LRU eviction kicks in.
	MaxConcurrentIndexes int `yaml:"max_concurrent_indexes" json:"max_concurrent_indexes"`

	// InactivityThresholdMinutes is how long an IndexContext may sit idle
	// before the inactivity sweeper evicts it.
	InactivityThresholdMinutes int `yaml:"inactivity_threshold_minutes" json:"inactivity_threshold_minutes"`

	// WriterRAMBufferMB is the in-memory buffer size, in megabytes, the
	// writer accumulates before an implicit flush.
	WriterRAMBufferMB float64 `yaml:"writer_ram_buffer_mb" json:"writer_ram_buffer_mb"`

	// WriterMaxBufferedDocs caps the number of buffered documents between
	// flushes, independent of the RAM buffer limit.
	WriterMaxBufferedDocs int `yaml:"writer_max_buffered_docs" json:"writer_max_buffered_docs"`

	// UseInMemoryDirectory routes the index through an in-memory-only
	// backing store. Intended for tests; never persists across restarts.
	UseInMemoryDirectory bool `yaml:"use_in_memory_directory" json:"use_in_memory_directory"`

	// EagerReaderRefresh flushes the pending batch on every write instead
	// of waiting for an explicit commit, trading write throughput for
	// immediate read-after-write visibility.
	EagerReaderRefresh bool `yaml:"eager_reader_refresh" json:"eager_reader_refresh"`

	// MergePolicy tunes the background segment-merge behaviour exercised
	// by optimise().
	MergePolicy MergePolicyConfig `yaml:"merge_policy" json:"merge_policy"`

	// DetailCacheTTLSeconds is how long a detail-request token remains
	// redeemable before the response builder's detail cache evicts it.
	DetailCacheTTLSeconds int `yaml:"detail_cache_ttl_seconds" json:"detail_cache_ttl_seconds"`
}

// MergePolicyConfig tunes segment-merge eligibility, mirroring the tiered
// merge-policy knobs a Lucene-family search library typically exposes.
type MergePolicyConfig struct {
	MaxMergeAtOnce     int     `yaml:"max_merge_at_once" json:"max_merge_at_once"`
	SegmentsPerTier    float64 `yaml:"segments_per_tier" json:"segments_per_tier"`
	MaxMergedSegmentMB float64 `yaml:"max_merged_segment_mb" json:"max_merged_segment_mb"`
}

// ServerConfig configures the MCP transport and daemon logging.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// defaultExcludePatterns are always excluded by the reference file supplier.
var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
}

// NewConfig creates a new Config with sensible defaults, matching the
// recognised-options list's stated defaults exactly.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Index: IndexConfig{
			MaxConcurrentIndexes:       10,
			InactivityThresholdMinutes: 30,
			WriterRAMBufferMB:          256,
			WriterMaxBufferedDocs:      1000,
			UseInMemoryDirectory:       false,
			EagerReaderRefresh:         false,
			MergePolicy: MergePolicyConfig{
				MaxMergeAtOnce:     10,
				SegmentsPerTier:    10,
				MaxMergedSegmentMB: 5120,
			},
			DetailCacheTTLSeconds: 300,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "debug", // debug by default to aid troubleshooting
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/codesearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/codesearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codesearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "codesearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "codesearch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // No user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/codesearch/config.yaml)
//  3. Project config (.codesearch.yaml in the workspace root)
//  4. Environment variables (CODESEARCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .codesearch.yaml or .codesearch.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".codesearch.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".codesearch.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}

	if other.Index.MaxConcurrentIndexes != 0 {
		c.Index.MaxConcurrentIndexes = other.Index.MaxConcurrentIndexes
	}
	if other.Index.InactivityThresholdMinutes != 0 {
		c.Index.InactivityThresholdMinutes = other.Index.InactivityThresholdMinutes
	}
	if other.Index.WriterRAMBufferMB != 0 {
		c.Index.WriterRAMBufferMB = other.Index.WriterRAMBufferMB
	}
	if other.Index.WriterMaxBufferedDocs != 0 {
		c.Index.WriterMaxBufferedDocs = other.Index.WriterMaxBufferedDocs
	}
	if other.Index.UseInMemoryDirectory {
		c.Index.UseInMemoryDirectory = other.Index.UseInMemoryDirectory
	}
	if other.Index.EagerReaderRefresh {
		c.Index.EagerReaderRefresh = other.Index.EagerReaderRefresh
	}
	if other.Index.MergePolicy.MaxMergeAtOnce != 0 {
		c.Index.MergePolicy.MaxMergeAtOnce = other.Index.MergePolicy.MaxMergeAtOnce
	}
	if other.Index.MergePolicy.SegmentsPerTier != 0 {
		c.Index.MergePolicy.SegmentsPerTier = other.Index.MergePolicy.SegmentsPerTier
	}
	if other.Index.MergePolicy.MaxMergedSegmentMB != 0 {
		c.Index.MergePolicy.MaxMergedSegmentMB = other.Index.MergePolicy.MaxMergedSegmentMB
	}
	if other.Index.DetailCacheTTLSeconds != 0 {
		c.Index.DetailCacheTTLSeconds = other.Index.DetailCacheTTLSeconds
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies CODESEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODESEARCH_MAX_CONCURRENT_INDEXES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.MaxConcurrentIndexes = n
		}
	}
	if v := os.Getenv("CODESEARCH_INACTIVITY_THRESHOLD_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.InactivityThresholdMinutes = n
		}
	}
	if v := os.Getenv("CODESEARCH_WRITER_RAM_BUFFER_MB"); v != "" {
		if f, err := parseFloat64(v); err == nil && f > 0 {
			c.Index.WriterRAMBufferMB = f
		}
	}
	if v := os.Getenv("CODESEARCH_EAGER_READER_REFRESH"); v != "" {
		c.Index.EagerReaderRefresh = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("CODESEARCH_USE_IN_MEMORY_DIRECTORY"); v != "" {
		c.Index.UseInMemoryDirectory = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("CODESEARCH_DETAIL_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.DetailCacheTTLSeconds = n
		}
	}
	if v := os.Getenv("CODESEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("CODESEARCH_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// FindProjectRoot finds the workspace root directory by walking up from
// startDir looking for a .git directory or a .codesearch.yaml/.yml file.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".codesearch.yaml")) ||
			fileExists(filepath.Join(currentDir, ".codesearch.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Index.MaxConcurrentIndexes <= 0 {
		return fmt.Errorf("max_concurrent_indexes must be positive, got %d", c.Index.MaxConcurrentIndexes)
	}
	if c.Index.InactivityThresholdMinutes <= 0 {
		return fmt.Errorf("inactivity_threshold_minutes must be positive, got %d", c.Index.InactivityThresholdMinutes)
	}
	if c.Index.WriterRAMBufferMB <= 0 {
		return fmt.Errorf("writer_ram_buffer_mb must be positive, got %f", c.Index.WriterRAMBufferMB)
	}
	if c.Index.WriterMaxBufferedDocs <= 0 {
		return fmt.Errorf("writer_max_buffered_docs must be positive, got %d", c.Index.WriterMaxBufferedDocs)
	}
	if c.Index.DetailCacheTTLSeconds <= 0 {
		return fmt.Errorf("detail_cache_ttl_seconds must be positive, got %d", c.Index.DetailCacheTTLSeconds)
	}
	if c.Index.MergePolicy.MaxMergeAtOnce <= 0 {
		return fmt.Errorf("merge_policy.max_merge_at_once must be positive, got %d", c.Index.MergePolicy.MaxMergeAtOnce)
	}
	if c.Index.MergePolicy.SegmentsPerTier <= 0 {
		return fmt.Errorf("merge_policy.segments_per_tier must be positive, got %f", c.Index.MergePolicy.SegmentsPerTier)
	}
	if c.Index.MergePolicy.MaxMergedSegmentMB <= 0 {
		return fmt.Errorf("merge_policy.max_merged_segment_mb must be positive, got %f", c.Index.MergePolicy.MaxMergedSegmentMB)
	}

	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
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

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// MergeNewDefaults adds new default fields while preserving existing values.
// Returns a list of field names that were added with their default values.
// Used by the CLI's config-upgrade path when a user config predates a field.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Index.MaxConcurrentIndexes == 0 {
		c.Index.MaxConcurrentIndexes = defaults.Index.MaxConcurrentIndexes
		added = append(added, "index.max_concurrent_indexes")
	}
	if c.Index.InactivityThresholdMinutes == 0 {
		c.Index.InactivityThresholdMinutes = defaults.Index.InactivityThresholdMinutes
		added = append(added, "index.inactivity_threshold_minutes")
	}
	if c.Index.WriterRAMBufferMB == 0 {
		c.Index.WriterRAMBufferMB = defaults.Index.WriterRAMBufferMB
		added = append(added, "index.writer_ram_buffer_mb")
	}
	if c.Index.WriterMaxBufferedDocs == 0 {
		c.Index.WriterMaxBufferedDocs = defaults.Index.WriterMaxBufferedDocs
		added = append(added, "index.writer_max_buffered_docs")
	}
	if c.Index.MergePolicy.MaxMergeAtOnce == 0 {
		c.Index.MergePolicy.MaxMergeAtOnce = defaults.Index.MergePolicy.MaxMergeAtOnce
		added = append(added, "index.merge_policy.max_merge_at_once")
	}
	if c.Index.MergePolicy.SegmentsPerTier == 0 {
		c.Index.MergePolicy.SegmentsPerTier = defaults.Index.MergePolicy.SegmentsPerTier
		added = append(added, "index.merge_policy.segments_per_tier")
	}
	if c.Index.MergePolicy.MaxMergedSegmentMB == 0 {
		c.Index.MergePolicy.MaxMergedSegmentMB = defaults.Index.MergePolicy.MaxMergedSegmentMB
		added = append(added, "index.merge_policy.max_merged_segment_mb")
	}
	if c.Index.DetailCacheTTLSeconds == 0 {
		c.Index.DetailCacheTTLSeconds = defaults.Index.DetailCacheTTLSeconds
		added = append(added, "index.detail_cache_ttl_seconds")
	}

	return added
}
