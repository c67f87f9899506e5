package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
)

type Engine interface {
	Execute(name string, data any) (string, error)
}

// TextTemplateEngine executes text/template files named by their slash
// separated path, e.g. "go/client.tmpl". Files in the custom directory replace
// built-in ones of the same name, including {{define}} blocks they declare.
type TextTemplateEngine struct {
	templates *template.Template
	funcs     template.FuncMap
	builtin   fs.FS
	customDir string
}

func NewEngine(builtin fs.FS, customDir string, funcs template.FuncMap) (*TextTemplateEngine, error) {
	e := &TextTemplateEngine{
		builtin:   builtin,
		customDir: customDir,
		funcs:     funcs,
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *TextTemplateEngine) load() error {
	e.templates = template.New("").Funcs(e.funcs)

	if err := e.parseFS(e.builtin, "embedded"); err != nil {
		return fmt.Errorf("loading embedded templates: %w", err)
	}

	if e.customDir != "" {
		info, err := os.Stat(e.customDir)
		if err != nil {
			return fmt.Errorf("loading custom templates: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("loading custom templates: %s is not a directory", e.customDir)
		}
		if err := e.parseFS(os.DirFS(e.customDir), "custom"); err != nil {
			return fmt.Errorf("loading custom templates: %w", err)
		}
	}

	return nil
}

func (e *TextTemplateEngine) parseFS(fsys fs.FS, kind string) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s template %s: %w", kind, path, err)
		}
		if _, err := e.templates.New(path).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s template %s: %w", kind, path, err)
		}
		return nil
	})
}

func (e *TextTemplateEngine) Execute(name string, data any) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}
