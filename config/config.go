package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/fsapi/internal/util"
)

// Environment variables read by [OverrideFromEnv]
const (
	EnvBaseDir       = "FILESYSTEM_BASE_DIR"
	EnvAddr          = "FILESYSTEM_ADDR"
	EnvDebug         = "FILESYSTEM_DEBUG"
	EnvLogLevel      = "FILESYSTEM_LOG_LEVEL"
	EnvMaxUploadSize = "FILESYSTEM_MAX_UPLOAD_SIZE"
	EnvCORSOrigins   = "FILESYSTEM_CORS_ORIGINS"
)

// Log verbosity as passed on the CLI or in config files, 1 (error) to 5 (trace)
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultRootDir         = "/data"
	DefaultAddr            = ":8000"
	DefaultLogLvl          = util.InfoLevel
	DefaultLogFormat       = util.ConsoleFormat
	DefaultEncoding        = "utf-8"
	DefaultMaxUploadSize   = 0 // unlimited
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDebug           = false

	DefaultFsName   = "fsapi"
	DefaultName     = "fsapi"
	DefaultReadOnly = true
)

// Config contains runtime configuration values for the filesystem API server.
type Config struct {
	MountOptions

	RootDir         string         // Directory every request is confined to (Default /data)
	Addr            string         // HTTP listen address (Default :8000)
	LogLvl          util.LogLevel  // Internal log level (Default info)
	LogFormat       util.LogFormat // "console" or "json" (Default console)
	DefaultEncoding string         // Text encoding when a request names none (Default utf-8)
	MaxUploadSize   int64          // Upload body limit in bytes; 0 is unlimited (Default 0)
	ShutdownTimeout time.Duration  // Grace period for in-flight requests on shutdown (Default 10s)
	CORSOrigins     []string       // Allowed CORS origins (Default ["*"])
	Debug           bool           // Enables the /debug/path endpoint (Default false)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	RootDir            *string  `yaml:"root_dir,omitempty" json:"root_dir,omitempty"`
	Addr               *string  `yaml:"addr,omitempty" json:"addr,omitempty"`
	LogLvl             *int     `yaml:"log_level,omitempty" json:"log_level,omitempty"` // verbosity 1-5
	LogFormat          *string  `yaml:"log_format,omitempty" json:"log_format,omitempty"`
	DefaultEncoding    *string  `yaml:"default_encoding,omitempty" json:"default_encoding,omitempty"`
	MaxUploadSize      *int64   `yaml:"max_upload_size,omitempty" json:"max_upload_size,omitempty"`
	ShutdownTimeoutSec *int     `yaml:"shutdown_timeout_sec,omitempty" json:"shutdown_timeout_sec,omitempty"`
	CORSOrigins        []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`
	Debug              *bool    `yaml:"debug,omitempty" json:"debug,omitempty"`

	MountPoint *string `yaml:"mount_point,omitempty" json:"mount_point,omitempty"`
	FuseDebug  *bool   `yaml:"fuse_debug,omitempty" json:"fuse_debug,omitempty"`
	FsName     *string `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name       *string `yaml:"name,omitempty" json:"name,omitempty"`
	ReadOnly   *bool   `yaml:"read_only,omitempty" json:"read_only,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName:   DefaultFsName,
			Name:     DefaultName,
			ReadOnly: DefaultReadOnly,
		},
		RootDir:         DefaultRootDir,
		Addr:            DefaultAddr,
		LogLvl:          DefaultLogLvl,
		LogFormat:       DefaultLogFormat,
		DefaultEncoding: DefaultEncoding,
		MaxUploadSize:   DefaultMaxUploadSize,
		ShutdownTimeout: DefaultShutdownTimeout,
		CORSOrigins:     []string{"*"},
		Debug:           DefaultDebug,
	}
}

// NewConfig creates a Config from defaults with override applied.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// LogLevelFromVerbosity maps CLI verbosity (1 error .. 5 trace) to a
// [util.LogLevel], clamping out of range values.
func LogLevelFromVerbosity(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.RootDir != nil {
		c.RootDir = *override.RootDir
	}
	if override.Addr != nil {
		c.Addr = *override.Addr
	}
	if override.LogLvl != nil {
		c.LogLvl = LogLevelFromVerbosity(*override.LogLvl)
	}
	if override.LogFormat != nil {
		c.LogFormat = *override.LogFormat
	}
	if override.DefaultEncoding != nil {
		c.DefaultEncoding = *override.DefaultEncoding
	}
	if override.MaxUploadSize != nil {
		c.MaxUploadSize = *override.MaxUploadSize
	}
	if override.ShutdownTimeoutSec != nil {
		c.ShutdownTimeout = time.Duration(*override.ShutdownTimeoutSec) * time.Second
	}
	if override.CORSOrigins != nil {
		c.CORSOrigins = override.CORSOrigins
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.MountPoint != nil {
		c.MountPoint = *override.MountPoint
	}
	if override.FuseDebug != nil {
		c.FuseDebug = *override.FuseDebug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.ReadOnly != nil {
		c.ReadOnly = *override.ReadOnly
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}

// OverrideFromEnv builds a ConfigOverride from the FILESYSTEM_* variables
// found through lookup (normally os.LookupEnv). Unset variables stay nil.
func OverrideFromEnv(lookup func(string) (string, bool)) (*ConfigOverride, error) {
	var o ConfigOverride

	if v, ok := lookup(EnvBaseDir); ok && v != "" {
		o.RootDir = &v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		o.Addr = &v
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvDebug, err)
		}
		o.Debug = &b
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		o.LogLvl = &n
	}
	if v, ok := lookup(EnvMaxUploadSize); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvMaxUploadSize, err)
		}
		o.MaxUploadSize = &n
	}
	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				o.CORSOrigins = append(o.CORSOrigins, origin)
			}
		}
	}

	return &o, nil
}
