package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Spec:            "spec.yaml",
		Out:             "client.go",
		Client:          ClientConfig{Name: "Client", Package: "client"},
		IgnoreRefPrefix: "#/components/schemas/",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid config",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name:        "missing spec",
			modify:      func(c *Config) { c.Spec = "" },
			wantErr:     true,
			errContains: "spec file is required",
		},
		{
			name:        "missing output",
			modify:      func(c *Config) { c.Out = "" },
			wantErr:     true,
			errContains: "output file is required",
		},
		{
			name:        "package is a keyword",
			modify:      func(c *Config) { c.Client.Package = "func" },
			wantErr:     true,
			errContains: "invalid package name",
		},
		{
			name:        "package with dash",
			modify:      func(c *Config) { c.Client.Package = "my-client" },
			wantErr:     true,
			errContains: "invalid package name",
		},
		{
			name:        "client name with space",
			modify:      func(c *Config) { c.Client.Name = "Pet Client" },
			wantErr:     true,
			errContains: "invalid client name",
		},
		{
			name:        "prefix not a pointer",
			modify:      func(c *Config) { c.IgnoreRefPrefix = "components/schemas/" },
			wantErr:     true,
			errContains: "invalid ignore-ref-prefix",
		},
		{
			name:    "empty prefix expands everything",
			modify:  func(c *Config) { c.IgnoreRefPrefix = "" },
			wantErr: false,
		},
		{
			name:    "definitions prefix",
			modify:  func(c *Config) { c.IgnoreRefPrefix = "#/definitions/" },
			wantErr: false,
		},
		{
			name:        "negative retries",
			modify:      func(c *Config) { c.Fetch.Retries = -1 },
			wantErr:     true,
			errContains: "invalid fetch retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					require.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{}
	BindCommonFlags(cmd)
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("spec", "api.yaml"))
	require.NoError(t, cmd.PersistentFlags().Set("out", "client.go"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "#/components/schemas/", cfg.IgnoreRefPrefix)
	require.Equal(t, "Client", cfg.Client.Name)
	require.Equal(t, "client", cfg.Client.Package)
	require.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, 3, cfg.Fetch.Retries)
	require.False(t, cfg.AllSchemas)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec: api.yaml
out: ./gen/client.go
client:
  name: PetStore
  package: petstore
  base-url: https://petstore.example.com/v1
ignore-ref-prefix: "#/definitions/"
all-schemas: true
include-tags: [pets]
fetch:
  timeout: 30s
  retries: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte(configContent), 0o644))

	// Change to temp dir so clientgen.yaml is found
	t.Chdir(tmpDir)

	cfg, err := Load(newCommand())
	require.NoError(t, err)

	require.Equal(t, "api.yaml", cfg.Spec)
	require.Equal(t, "./gen/client.go", cfg.Out)
	require.Equal(t, "PetStore", cfg.Client.Name)
	require.Equal(t, "petstore", cfg.Client.Package)
	require.Equal(t, "https://petstore.example.com/v1", cfg.Client.BaseURL)
	require.Equal(t, "#/definitions/", cfg.IgnoreRefPrefix)
	require.True(t, cfg.AllSchemas)
	require.Equal(t, []string{"pets"}, cfg.IncludeTags)
	require.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, 5, cfg.Fetch.Retries)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec: api.yaml
out: client.go
client:
  package: fromfile
all-schemas: true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, DefaultFile), []byte(configContent), 0o644))
	t.Chdir(tmpDir)

	cmd := newCommand()
	flags := cmd.PersistentFlags()
	require.NoError(t, flags.Set("package", "fromflag"))
	require.NoError(t, flags.Set("all-schemas", "false"))
	require.NoError(t, flags.Set("ignore-ref-prefix", ""))
	require.NoError(t, flags.Set("retries", "1"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "fromflag", cfg.Client.Package)
	require.False(t, cfg.AllSchemas)
	require.Empty(t, cfg.IgnoreRefPrefix)
	require.Equal(t, 1, cfg.Fetch.Retries)
	require.Equal(t, "api.yaml", cfg.Spec)
}

func TestLoadWithExplicitConfigPath(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `{"spec": "custom.yaml", "out": "custom.go", "client": {"package": "custom"}}`
	configPath := filepath.Join(tmpDir, "custom-config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", configPath))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "custom.yaml", cfg.Spec)
	require.Equal(t, "custom.go", cfg.Out)
	require.Equal(t, "custom", cfg.Client.Package)
}

func TestLoadMissingConfigFile(t *testing.T) {
	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := Load(cmd)
	require.ErrorContains(t, err, "reading config file")
}

func TestLoadValidates(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newCommand()
	require.NoError(t, cmd.PersistentFlags().Set("spec", "api.yaml"))

	_, err := Load(cmd)
	require.ErrorContains(t, err, "output file is required")
}

func TestBuildFlagsMap(t *testing.T) {
	cmd := newCommand()
	flags := cmd.PersistentFlags()

	require.NoError(t, flags.Set("spec", "test.yaml"))
	require.NoError(t, flags.Set("out", "out.go"))
	require.NoError(t, flags.Set("package", "testpkg"))
	require.NoError(t, flags.Set("client-name", "API"))
	require.NoError(t, flags.Set("base-url", "http://localhost"))
	require.NoError(t, flags.Set("templates", "./tmpl"))
	require.NoError(t, flags.Set("exclude-tags", "admin,internal"))
	require.NoError(t, flags.Set("timeout", "5s"))

	m := buildFlagsMap(cmd)

	require.Equal(t, "test.yaml", m["spec"])
	require.Equal(t, "out.go", m["out"])
	require.Equal(t, "testpkg", m["client.package"])
	require.Equal(t, "API", m["client.name"])
	require.Equal(t, "http://localhost", m["client.base-url"])
	require.Equal(t, "./tmpl", m["templates.dir"])
	require.Equal(t, []string{"admin", "internal"}, m["exclude-tags"])
	require.Equal(t, 5*time.Second, m["fetch.timeout"])
	require.NotContains(t, m, "all-schemas")
	require.NotContains(t, m, "ignore-ref-prefix")
	require.NotContains(t, m, "fetch.retries")
}
