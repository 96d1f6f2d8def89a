package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	sdkerrors "github.com/traceroot-ai/traceroot-sdk-go/internal/errors"
)

const (
	DefaultOTLPEndpoint      = "https://collector.traceroot.ai/v1/traces"
	DefaultLocalOTLPEndpoint = "http://localhost:4318/v1/traces"

	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"

	ProtocolHTTP = "http/protobuf"
	ProtocolGRPC = "grpc"

	tracesPath = "/v1/traces"
	logsPath   = "/v1/logs"
)

type Config struct {
	ServiceName string `json:"service_name" yaml:"service_name" toml:"service_name"`
	// development | staging | production
	Environment string `json:"environment" yaml:"environment" toml:"environment"`

	GithubOwner      string `json:"github_owner,omitempty" yaml:"github_owner,omitempty" toml:"github_owner,omitempty"`
	GithubRepoName   string `json:"github_repo_name,omitempty" yaml:"github_repo_name,omitempty" toml:"github_repo_name,omitempty"`
	GithubCommitHash string `json:"github_commit_hash,omitempty" yaml:"github_commit_hash,omitempty" toml:"github_commit_hash,omitempty"`

	Token string `json:"token" yaml:"token" toml:"token"`

	EnableSpanConsoleExport bool `json:"enable_span_console_export" yaml:"enable_span_console_export" toml:"enable_span_console_export"`
	EnableLogConsoleExport  bool `json:"enable_log_console_export" yaml:"enable_log_console_export" toml:"enable_log_console_export"`

	LocalMode bool `json:"local_mode" yaml:"local_mode" toml:"local_mode"`

	OTLPEndpoint    string `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty" toml:"otlp_endpoint,omitempty"`
	LogSinkEndpoint string `json:"log_sink_endpoint,omitempty" yaml:"log_sink_endpoint,omitempty" toml:"log_sink_endpoint,omitempty"`
	OTLPProtocol    string `json:"otlp_protocol,omitempty" yaml:"otlp_protocol,omitempty" toml:"otlp_protocol,omitempty"`

	// nil means sample everything
	SampleRate *float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty" toml:"sample_rate,omitempty"`
	LogLevel   string   `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level,omitempty"`
}

// Load reads path (if non-empty), applies TRACEROOT_* environment overrides,
// fills defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		cfg, err = FromFile(path)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is Load for program entry points; it panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// FromFile decodes a config file. The format is picked from the extension:
// .toml, .yaml/.yml, anything else is JSON.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdkerrors.NewConfigError("failed to read config file", "CONFIG_READ",
			"Check that the config file exists and is readable.", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, sdkerrors.NewConfigError("failed to parse config file", "CONFIG_PARSE",
			"Fix the syntax of "+filepath.Base(path)+".", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields with any TRACEROOT_* variables that are set.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"TRACEROOT_SERVICE_NAME":       &c.ServiceName,
		"TRACEROOT_ENVIRONMENT":        &c.Environment,
		"TRACEROOT_GITHUB_OWNER":       &c.GithubOwner,
		"TRACEROOT_GITHUB_REPO_NAME":   &c.GithubRepoName,
		"TRACEROOT_GITHUB_COMMIT_HASH": &c.GithubCommitHash,
		"TRACEROOT_TOKEN":              &c.Token,
		"TRACEROOT_OTLP_ENDPOINT":      &c.OTLPEndpoint,
		"TRACEROOT_LOG_SINK_ENDPOINT":  &c.LogSinkEndpoint,
		"TRACEROOT_OTLP_PROTOCOL":      &c.OTLPProtocol,
		"TRACEROOT_LOG_LEVEL":          &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"TRACEROOT_ENABLE_SPAN_CONSOLE_EXPORT": &c.EnableSpanConsoleExport,
		"TRACEROOT_ENABLE_LOG_CONSOLE_EXPORT":  &c.EnableLogConsoleExport,
		"TRACEROOT_LOCAL_MODE":                 &c.LocalMode,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return sdkerrors.NewConfigError(key+" must be a boolean", "CONFIG_ENV", "Use true or false.", err)
		}
		*dst = b
	}

	if v := os.Getenv("TRACEROOT_SAMPLE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return sdkerrors.NewConfigError("TRACEROOT_SAMPLE_RATE must be a number", "CONFIG_ENV",
				"Use a value between 0 and 1.", err)
		}
		c.SampleRate = &rate
	}

	return nil
}

func (c *Config) SetDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.OTLPProtocol == "" {
		c.OTLPProtocol = ProtocolHTTP
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return sdkerrors.NewConfigError("service_name is required", "CONFIG_INVALID",
			"Set service_name in the config file or TRACEROOT_SERVICE_NAME.", nil)
	}
	if c.Token == "" && !c.LocalMode {
		return sdkerrors.NewConfigError("token is required unless local_mode is enabled", "CONFIG_INVALID",
			"Generate a token on traceroot.ai or enable local_mode.", nil)
	}
	switch c.Environment {
	case "", EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return sdkerrors.NewConfigError(fmt.Sprintf("unsupported environment %q", c.Environment), "CONFIG_INVALID",
			"Use development, staging or production.", nil)
	}
	switch c.OTLPProtocol {
	case "", ProtocolHTTP, ProtocolGRPC:
	default:
		return sdkerrors.NewConfigError(fmt.Sprintf("unsupported otlp_protocol %q", c.OTLPProtocol), "CONFIG_INVALID",
			"Use http/protobuf or grpc.", nil)
	}
	if c.SampleRate != nil && (*c.SampleRate < 0 || *c.SampleRate > 1) {
		return sdkerrors.NewConfigError(fmt.Sprintf("sample_rate must be between 0 and 1, got %f", *c.SampleRate),
			"CONFIG_INVALID", "", nil)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return sdkerrors.NewConfigError(fmt.Sprintf("unsupported log_level %q", c.LogLevel), "CONFIG_INVALID",
			"Use debug, info, warn or error.", nil)
	}
	return nil
}

// TraceEndpoint returns the effective OTLP trace endpoint.
func (c *Config) TraceEndpoint() string {
	if c.OTLPEndpoint != "" {
		return c.OTLPEndpoint
	}
	if c.LocalMode {
		return DefaultLocalOTLPEndpoint
	}
	return DefaultOTLPEndpoint
}

// LogEndpoint returns the effective OTLP log endpoint, derived from the
// trace endpoint when no log sink is configured.
func (c *Config) LogEndpoint() string {
	if c.LogSinkEndpoint != "" {
		return c.LogSinkEndpoint
	}
	ep := strings.TrimSuffix(c.TraceEndpoint(), "/")
	if strings.HasSuffix(ep, tracesPath) {
		return strings.TrimSuffix(ep, tracesPath) + logsPath
	}
	return ep + logsPath
}

// AuthHeaders returns the exporter headers carrying the token.
func (c *Config) AuthHeaders() map[string]string {
	if c.Token == "" {
		return nil
	}
	return map[string]string{"authorization": "Bearer " + c.Token}
}

// Sampling returns the configured ratio, 1 when unset.
func (c *Config) Sampling() float64 {
	if c.SampleRate == nil {
		return 1
	}
	return *c.SampleRate
}
