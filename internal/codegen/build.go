package codegen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kolah/clientgen/internal/collect"
	"github.com/kolah/clientgen/internal/config"
	"github.com/kolah/clientgen/internal/extract"
	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/resolver"
	"github.com/kolah/clientgen/internal/spec"
)

type BuildOption func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
}

func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Build resolves doc and lowers it to the client model. Warnings are
// non-fatal diagnostics; an error means nothing should be generated.
func Build(doc *spec.Node, cfg *config.Config, opts ...BuildOption) (*model.Client, []error, error) {
	o := buildOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	resolved, err := resolver.Resolve(doc,
		resolver.WithIgnorePrefix(cfg.IgnoreRefPrefix),
		resolver.WithLogger(o.logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving references: %w", err)
	}

	ops, err := extract.Operations(resolved,
		extract.WithIncludeTags(cfg.IncludeTags...),
		extract.WithExcludeTags(cfg.ExcludeTags...),
		extract.WithLogger(o.logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting operations: %w", err)
	}

	collectOpts := []collect.Option{
		collect.WithPrefix(cfg.IgnoreRefPrefix),
		collect.WithLogger(o.logger),
	}
	if cfg.AllSchemas {
		collectOpts = append(collectOpts, collect.WithAllSchemas())
	}
	types := collect.Types(resolved, ops, collectOpts...)

	client := &model.Client{
		Name:       cfg.Client.Name,
		Package:    cfg.Client.Package,
		BaseURL:    cfg.Client.BaseURL,
		Title:      resolved.Lookup("info", "title").Str(),
		Version:    resolved.Lookup("info", "version").Str(),
		Operations: ops,
		Types:      types.Types,
	}
	if client.BaseURL == "" {
		client.BaseURL = serverURL(resolved)
	}

	return client, types.Warnings, nil
}

// serverURL returns the first absolute server URL of the document, with
// server variables replaced by their defaults.
func serverURL(doc *spec.Node) string {
	server := doc.Get("servers").Item(0)
	u := server.Get("url").Str()
	if u == "" {
		return ""
	}
	for name, v := range server.Get("variables").Pairs() {
		u = strings.ReplaceAll(u, "{"+name+"}", v.Get("default").Str())
	}
	if !strings.Contains(u, "://") {
		return ""
	}
	return strings.TrimSuffix(u, "/")
}
