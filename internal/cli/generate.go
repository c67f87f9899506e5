package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kolah/clientgen/internal/codegen"
	"github.com/kolah/clientgen/internal/config"
	"github.com/kolah/clientgen/internal/loader"
	"github.com/spf13/cobra"
)

func GenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Go HTTP client from an OpenAPI or Swagger document",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}

	config.BindCommonFlags(cmd)

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	result, err := loader.Load(cmd.Context(), cfg.Spec,
		loader.WithHTTPTimeout(cfg.Fetch.Timeout),
		loader.WithMaxRetries(cfg.Fetch.Retries),
		loader.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("loading spec: %w", err)
	}

	for _, w := range result.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	client, warnings, err := codegen.Build(result.Document, cfg, codegen.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, w := range warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	cmd.PrintErrf("Loaded OpenAPI %s: %s v%s\n", result.Version, client.Title, client.Version)
	cmd.PrintErrf("  Operations: %d\n", len(client.Operations))
	cmd.PrintErrf("  Types: %d\n", client.Types.Len())

	gen, err := codegen.New(cfg)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	out, err := gen.Generate(client)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		cmd.Printf("// %s\n%s\n", out.Filename, out.Content)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Out), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(cfg.Out, []byte(out.Content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Out, err)
	}
	cmd.PrintErrf("Written: %s\n", cfg.Out)

	return nil
}
