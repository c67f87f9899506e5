package config

import (
	"fmt"
	"go/token"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

// DefaultFile is read when no --config flag is given and the file exists.
const DefaultFile = "clientgen.yaml"

type Config struct {
	Spec      string         `koanf:"spec"`
	Out       string         `koanf:"out"`
	Templates TemplateConfig `koanf:"templates"`
	Client    ClientConfig   `koanf:"client"`
	// IgnoreRefPrefix keeps matching $refs as named types instead of
	// inlining them. Empty expands every reference.
	IgnoreRefPrefix       string      `koanf:"ignore-ref-prefix"`
	AllSchemas            bool        `koanf:"all-schemas"`
	IncludeTags           []string    `koanf:"include-tags"`
	ExcludeTags           []string    `koanf:"exclude-tags"`
	Fetch                 FetchConfig `koanf:"fetch"`
	AdditionalInitialisms []string    `koanf:"additional-initialisms"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

type ClientConfig struct {
	Name    string `koanf:"name"`
	BaseURL string `koanf:"base-url"`
	Package string `koanf:"package"`
}

type FetchConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Retries int           `koanf:"retries"`
}

func defaults() map[string]any {
	return map[string]any{
		"ignore-ref-prefix": "#/components/schemas/",
		"client.name":       "Client",
		"client.package":    "client",
		"fetch.timeout":     "10s",
		"fetch.retries":     3,
	}
}

// BindCommonFlags binds the generation flags to cmd.
func BindCommonFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: "+DefaultFile+")")
	flags.StringP("spec", "s", "", "OpenAPI or Swagger document: file path or http(s) URL")
	flags.StringP("out", "o", "", "Output file for the generated client")
	flags.String("templates", "", "Custom templates directory")
	flags.StringP("package", "p", "", "Go package name of the generated file (default: client)")
	flags.String("client-name", "", "Name of the generated client type (default: Client)")
	flags.String("base-url", "", "Default base URL compiled into the client")
	flags.String("ignore-ref-prefix", "", "Keep $refs with this prefix as named types (default: #/components/schemas/)")
	flags.Bool("all-schemas", false, "Generate every component schema, not only the referenced ones")
	flags.StringSlice("include-tags", nil, "Tags to include (exclusive)")
	flags.StringSlice("exclude-tags", nil, "Tags to exclude")
	flags.Duration("timeout", 0, "HTTP timeout when fetching a remote spec (default: 10s)")
	flags.Int("retries", 0, "Attempts when fetching a remote spec (default: 3)")
	flags.StringSlice("additional-initialisms", nil, "Additional initialisms for Go names")
	flags.Bool("dry-run", false, "Print output without writing files")
	flags.BoolP("verbose", "v", false, "Log debug diagnostics")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	getStringSlice := func(name string) []string {
		if v, err := cmd.Flags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		if v, err := cmd.PersistentFlags().GetStringSlice(name); err == nil && len(v) > 0 {
			return v
		}
		return nil
	}

	flagChanged := func(name string) bool {
		return cmd.Flags().Changed(name) || cmd.PersistentFlags().Changed(name)
	}

	getBool := func(name string) bool {
		if v, err := cmd.Flags().GetBool(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetBool(name); err == nil {
			return v
		}
		return false
	}

	getInt := func(name string) int {
		if v, err := cmd.Flags().GetInt(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetInt(name); err == nil {
			return v
		}
		return 0
	}

	getDuration := func(name string) time.Duration {
		if v, err := cmd.Flags().GetDuration(name); err == nil {
			return v
		}
		if v, err := cmd.PersistentFlags().GetDuration(name); err == nil {
			return v
		}
		return 0
	}

	if v := getString("spec"); v != "" {
		m["spec"] = v
	}
	if v := getString("out"); v != "" {
		m["out"] = v
	}
	if v := getString("templates"); v != "" {
		m["templates.dir"] = v
	}
	if v := getString("package"); v != "" {
		m["client.package"] = v
	}
	if v := getString("client-name"); v != "" {
		m["client.name"] = v
	}
	if v := getString("base-url"); v != "" {
		m["client.base-url"] = v
	}
	// An explicitly empty prefix disables named types.
	if flagChanged("ignore-ref-prefix") {
		m["ignore-ref-prefix"] = getString("ignore-ref-prefix")
	}
	if flagChanged("all-schemas") {
		m["all-schemas"] = getBool("all-schemas")
	}
	if v := getStringSlice("include-tags"); len(v) > 0 {
		m["include-tags"] = v
	}
	if v := getStringSlice("exclude-tags"); len(v) > 0 {
		m["exclude-tags"] = v
	}
	if flagChanged("timeout") {
		m["fetch.timeout"] = getDuration("timeout")
	}
	if flagChanged("retries") {
		m["fetch.retries"] = getInt("retries")
	}
	if v := getStringSlice("additional-initialisms"); len(v) > 0 {
		m["additional-initialisms"] = v
	}

	return m
}

func (c *Config) Validate() error {
	if c.Spec == "" {
		return fmt.Errorf("spec file is required (--spec or 'spec' in the config file)")
	}
	if c.Out == "" {
		return fmt.Errorf("output file is required (--out or 'out' in the config file)")
	}
	if !token.IsIdentifier(c.Client.Package) {
		return fmt.Errorf("invalid package name: %q", c.Client.Package)
	}
	if !token.IsIdentifier(c.Client.Name) {
		return fmt.Errorf("invalid client name: %q", c.Client.Name)
	}
	if c.IgnoreRefPrefix != "" && !strings.HasPrefix(c.IgnoreRefPrefix, "#/") {
		return fmt.Errorf("invalid ignore-ref-prefix: %q (must start with #/)", c.IgnoreRefPrefix)
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("invalid fetch retries: %d", c.Fetch.Retries)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("invalid fetch timeout: %s", c.Fetch.Timeout)
	}
	return nil
}
