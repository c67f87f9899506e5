package codegen

import (
	"fmt"
	"path/filepath"

	"github.com/kolah/clientgen/internal/config"
	"github.com/kolah/clientgen/internal/golang"
	"github.com/kolah/clientgen/internal/model"
	"github.com/kolah/clientgen/internal/templates"
	embeddedtmpl "github.com/kolah/clientgen/templates"
)

const clientTemplate = "go/client.tmpl"

type Generator struct {
	config *config.Config
	engine templates.Engine
}

type Output struct {
	Filename string
	Content  string
}

func New(cfg *config.Config) (*Generator, error) {
	if len(cfg.AdditionalInitialisms) > 0 {
		golang.SetAdditionalInitialisms(cfg.AdditionalInitialisms)
	}

	engine, err := templates.NewEngine(embeddedtmpl.FS, cfg.Templates.Dir, golang.TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}

	return &Generator{
		config: cfg,
		engine: engine,
	}, nil
}

// Generate renders the client source for client. The result is gofmt'ed
// with unused imports removed.
func (g *Generator) Generate(client *model.Client) (Output, error) {
	data, err := newTemplateData(client)
	if err != nil {
		return Output{}, err
	}

	content, err := g.engine.Execute(clientTemplate, data)
	if err != nil {
		return Output{}, fmt.Errorf("generating client: %w", err)
	}
	formatted, err := golang.Format([]byte(content))
	if err != nil {
		return Output{}, fmt.Errorf("formatting client: %w", err)
	}

	return Output{
		Filename: filepath.Base(g.config.Out),
		Content:  string(formatted),
	}, nil
}
