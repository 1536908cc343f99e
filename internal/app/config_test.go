package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		in      Config
		want    *Config
		wantErr string
	}{
		{
			name: "defaults",
			in:   Config{SpacePath: "space.hcl"},
			want: &Config{SpacePath: "space.hcl", Optimizer: "local", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "normalizes case",
			in:   Config{SpacePath: "s", Optimizer: "REST", APIURL: "http://x", LogFormat: "JSON", LogLevel: "Debug"},
			want: &Config{SpacePath: "s", Optimizer: "rest", APIURL: "http://x", LogFormat: "json", LogLevel: "debug"},
		},
		{name: "missing space", in: Config{}, wantErr: "SpacePath is a required"},
		{name: "unknown optimizer", in: Config{SpacePath: "s", Optimizer: "grid"}, wantErr: `invalid optimizer "grid"`},
		{name: "rest without url", in: Config{SpacePath: "s", Optimizer: "rest"}, wantErr: "needs an API URL"},
		{name: "bad log format", in: Config{SpacePath: "s", LogFormat: "xml"}, wantErr: "invalid log-format"},
		{name: "bad log level", in: Config{SpacePath: "s", LogLevel: "trace"}, wantErr: "invalid log-level"},
		{name: "negative budget", in: Config{SpacePath: "s", Budget: -1}, wantErr: "budget cannot be negative"},
		{name: "bad port", in: Config{SpacePath: "s", HealthcheckPort: 70000}, wantErr: "invalid healthcheck port"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewConfig(tc.in)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	t.Run("all keys", func(t *testing.T) {
		path := write("full.yaml", `
space: ./spaces
experiment: mlp
budget: 30
optimizer: rest
api_url: https://optimizer.example.com
api_token: secret
seed: 7
log_format: json
log_level: debug
healthcheck_port: 9090
`)
		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, Config{
			SpacePath:       "./spaces",
			ExperimentName:  "mlp",
			Budget:          30,
			Optimizer:       "rest",
			APIURL:          "https://optimizer.example.com",
			APIToken:        "secret",
			Seed:            7,
			LogFormat:       "json",
			LogLevel:        "debug",
			HealthcheckPort: 9090,
		}, cfg)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := LoadConfigFile(write("empty.yaml", ""))
		require.NoError(t, err)
		assert.Equal(t, Config{}, cfg)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadConfigFile(write("bad.yaml", "workers: 3\n"))
		require.ErrorContains(t, err, "field workers not found")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(dir, "nope.yaml"))
		require.ErrorContains(t, err, "failed to read config file")
	})
}
