package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	sdkerrors "github.com/traceroot-ai/traceroot-sdk-go/internal/errors"
)

func fullConfig() *Config {
	rate := 0.25
	return &Config{
		ServiceName:             "greeter",
		Environment:             "staging",
		GithubOwner:             "traceroot-ai",
		GithubRepoName:          "traceroot-sdk-go",
		GithubCommitHash:        "abc123",
		Token:                   "secret",
		EnableSpanConsoleExport: true,
		EnableLogConsoleExport:  true,
		LocalMode:               false,
		OTLPEndpoint:            "https://collector.example.com/v1/traces",
		LogSinkEndpoint:         "https://logs.example.com/v1/logs",
		OTLPProtocol:            ProtocolHTTP,
		SampleRate:              &rate,
		LogLevel:                "debug",
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestFromFileRoundTrip(t *testing.T) {
	want := fullConfig()

	jsonData, err := json.Marshal(want)
	require.NoError(t, err)

	yamlData, err := yaml.Marshal(want)
	require.NoError(t, err)

	var tomlBuf bytes.Buffer
	require.NoError(t, toml.NewEncoder(&tomlBuf).Encode(want))

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"json", "traceroot.config.json", jsonData},
		{"yaml", "traceroot.config.yaml", yamlData},
		{"yml", "traceroot.config.yml", yamlData},
		{"toml", "traceroot.config.toml", tomlBuf.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromFile(writeFile(t, tt.file, tt.data))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFromFileTOMLOptionalFields(t *testing.T) {
	content := `service_name = "greeter"
environment = "development"
token = "t"
enable_span_console_export = false
enable_log_console_export = true
local_mode = false
`
	cfg, err := FromFile(writeFile(t, "traceroot.config.toml", []byte(content)))
	require.NoError(t, err)

	assert.Equal(t, "greeter", cfg.ServiceName)
	assert.True(t, cfg.EnableLogConsoleExport)
	assert.Empty(t, cfg.GithubOwner)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Nil(t, cfg.SampleRate)
}

func TestFromFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := FromFile(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)

		var appErr *sdkerrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "CONFIG_READ", appErr.Code())
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := FromFile(writeFile(t, "traceroot.config.json", []byte(`{"service_name": `)))
		require.Error(t, err)

		var appErr *sdkerrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "CONFIG_PARSE", appErr.Code())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := FromFile(writeFile(t, "c.yaml", []byte("service_name: [unclosed")))
		assert.Error(t, err)
	})
}

func TestLoadAppliesEnvAndDefaults(t *testing.T) {
	path := writeFile(t, "traceroot.config.json", []byte(`{"service_name":"from-file","token":"file-token"}`))

	t.Setenv("TRACEROOT_TOKEN", "env-token")
	t.Setenv("TRACEROOT_ENABLE_SPAN_CONSOLE_EXPORT", "true")
	t.Setenv("TRACEROOT_SAMPLE_RATE", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.ServiceName)
	assert.Equal(t, "env-token", cfg.Token)
	assert.True(t, cfg.EnableSpanConsoleExport)
	assert.Equal(t, 0.5, cfg.Sampling())
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ProtocolHTTP, cfg.OTLPProtocol)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("TRACEROOT_SERVICE_NAME", "env-only")
	t.Setenv("TRACEROOT_LOCAL_MODE", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.ServiceName)
	assert.True(t, cfg.LocalMode)
}

func TestMustLoad(t *testing.T) {
	t.Setenv("TRACEROOT_SERVICE_NAME", "env-only")
	t.Setenv("TRACEROOT_LOCAL_MODE", "true")

	cfg := MustLoad("")
	assert.Equal(t, "env-only", cfg.ServiceName)

	t.Setenv("TRACEROOT_ENVIRONMENT", "qa")
	assert.Panics(t, func() { MustLoad("") })
}

func TestApplyEnvInvalidBool(t *testing.T) {
	t.Setenv("TRACEROOT_LOCAL_MODE", "maybe")

	cfg := &Config{}
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRACEROOT_LOCAL_MODE")
}

func TestValidate(t *testing.T) {
	bad := 1.5

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{ServiceName: "s", Token: "t"}, ""},
		{"local mode needs no token", Config{ServiceName: "s", LocalMode: true}, ""},
		{"missing service name", Config{Token: "t"}, "service_name"},
		{"missing token", Config{ServiceName: "s"}, "token"},
		{"bad protocol", Config{ServiceName: "s", Token: "t", OTLPProtocol: "thrift"}, "otlp_protocol"},
		{"bad sample rate", Config{ServiceName: "s", Token: "t", SampleRate: &bad}, "sample_rate"},
		{"bad log level", Config{ServiceName: "s", Token: "t", LogLevel: "loud"}, "log_level"},
		{"production environment", Config{ServiceName: "s", Token: "t", Environment: EnvProduction}, ""},
		{"unknown environment", Config{ServiceName: "s", Token: "t", Environment: "qa"}, "environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEndpoints(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		cfg := &Config{}
		assert.Equal(t, DefaultOTLPEndpoint, cfg.TraceEndpoint())
		assert.Equal(t, "https://collector.traceroot.ai/v1/logs", cfg.LogEndpoint())
	})

	t.Run("local mode", func(t *testing.T) {
		cfg := &Config{LocalMode: true}
		assert.Equal(t, DefaultLocalOTLPEndpoint, cfg.TraceEndpoint())
		assert.Equal(t, "http://localhost:4318/v1/logs", cfg.LogEndpoint())
	})

	t.Run("override without traces suffix", func(t *testing.T) {
		cfg := &Config{OTLPEndpoint: "https://otel.example.com/otlp/"}
		assert.Equal(t, "https://otel.example.com/otlp/v1/logs", cfg.LogEndpoint())
	})

	t.Run("explicit log sink", func(t *testing.T) {
		cfg := &Config{LogSinkEndpoint: "https://logs.example.com/ingest"}
		assert.Equal(t, "https://logs.example.com/ingest", cfg.LogEndpoint())
	})
}

func TestAuthHeaders(t *testing.T) {
	assert.Nil(t, (&Config{}).AuthHeaders())
	assert.Equal(t, map[string]string{"authorization": "Bearer abc"}, (&Config{Token: "abc"}).AuthHeaders())
}
