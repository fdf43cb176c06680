package updatemanager

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netbirdio/updater/client/internal/updatemanager/dialect"
	"github.com/netbirdio/updater/client/internal/updatemanager/downloader"
	"github.com/netbirdio/updater/util"
)

const (
	DefaultVersionPath  = "api/v1/version"
	DefaultCheckTimeout = 10 * time.Second
	DefaultChannel      = "stable"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Duration reads durations written as strings ("10s") from JSON and YAML
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		return d.parse(value)
	default:
		return errors.New("invalid duration")
	}
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config is the immutable configuration of a Manager
type Config struct {
	BaseURL     string       `json:"baseUrl" yaml:"baseUrl"`
	AppID       string       `json:"appId" yaml:"appId"`
	Channel     string       `json:"channel" yaml:"channel"`
	Dialect     dialect.Kind `json:"dialect" yaml:"dialect"`
	VersionPath string       `json:"versionPath" yaml:"versionPath"`

	// SendArch adds the architecture tag to check requests
	SendArch bool `json:"sendArch" yaml:"sendArch"`
	// Arch overrides the detected architecture tag
	Arch string `json:"arch,omitempty" yaml:"arch,omitempty"`

	CheckTimeout    Duration          `json:"checkTimeout" yaml:"checkTimeout"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	FileNamePattern string            `json:"fileNamePattern" yaml:"fileNamePattern"`
	// FieldMapping maps canonical field names to response fields of the generic dialect
	FieldMapping map[string]string `json:"fieldMapping,omitempty" yaml:"fieldMapping,omitempty"`

	Disabled    bool   `json:"disabled" yaml:"disabled"`
	DownloadDir string `json:"downloadDir,omitempty" yaml:"downloadDir,omitempty"`
}

// clone returns a copy that shares no maps with c
func (c Config) clone() Config {
	c.Headers = maps.Clone(c.Headers)
	c.FieldMapping = maps.Clone(c.FieldMapping)
	return c
}

// ApplyDefaults fills every unset optional field
func (c *Config) ApplyDefaults() {
	if c.Channel == "" {
		c.Channel = DefaultChannel
	}
	if c.Dialect == "" {
		c.Dialect = dialect.KindHub
	}
	if c.VersionPath == "" {
		c.VersionPath = DefaultVersionPath
	}
	if c.CheckTimeout.Duration <= 0 {
		c.CheckTimeout.Duration = DefaultCheckTimeout
	}
	if c.FileNamePattern == "" {
		c.FileNamePattern = downloader.DefaultFileNamePattern
	}
	if c.Dialect == dialect.KindGeneric && len(c.FieldMapping) == 0 {
		c.FieldMapping = dialect.DefaultFieldMapping()
	}
}

func (c *Config) Validate() error {
	if c.Disabled {
		return nil
	}

	if c.AppID == "" {
		return fmt.Errorf("%w: appId is required", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.AppID, `/\?#`) {
		return fmt.Errorf("%w: appId %q contains reserved characters", ErrInvalidConfig, c.AppID)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: baseUrl %q is not an absolute URL", ErrInvalidConfig, c.BaseURL)
	}

	switch c.Dialect {
	case dialect.KindHub, dialect.KindGeneric:
	default:
		return fmt.Errorf("%w: unknown dialect %q", ErrInvalidConfig, c.Dialect)
	}

	return nil
}

// LoadConfig reads a JSON or YAML file (by extension) with environment
// substitution, applies defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	if !util.FileExists(path) {
		return Config{}, fmt.Errorf("config file %s does not exist", path)
	}

	var cfg Config
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		_, err = util.ReadYamlWithEnvSub(path, &cfg)
	default:
		_, err = util.ReadJsonWithEnvSub(path, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
