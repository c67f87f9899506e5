package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/kolah/clientgen/internal/spec"
	"github.com/kolah/clientgen/internal/specerr"
	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
)

type Result struct {
	// Document is the parsed tree, converted to OpenAPI 3 when the input
	// was Swagger 2.
	Document *spec.Node
	// Version is the version declared by the input document.
	Version   string
	Converted bool
	Warnings  []string
	RawData   []byte
}

// Settings controls how remote documents are fetched.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		Logger:      slog.New(slog.DiscardHandler),
	}
}

type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithHTTPClient(c *http.Client) Option   { return func(s *Settings) { s.HTTPClient = c } }

func WithLogger(l *slog.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.Logger = l
		}
	}
}

// Load reads a document from a local path or an http(s) URL.
func Load(ctx context.Context, location string, opts ...Option) (*Result, error) {
	if strings.TrimSpace(location) == "" {
		return nil, &specerr.LoadError{Location: location, Cause: fmt.Errorf("no spec location given")}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, err := url.Parse(location)
	if err == nil && u.Scheme != "" && u.Host != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
		default:
			return nil, &specerr.LoadError{
				Location: location,
				Cause:    fmt.Errorf("unsupported URL scheme %q (only http/https allowed)", u.Scheme),
			}
		}
		settings.Logger.Debug("fetching spec", "url", location)
		data, err := fetchWithRetry(ctx, location, settings)
		if err != nil {
			return nil, &specerr.LoadError{Location: location, Cause: err}
		}
		return LoadBytes(data, location, opts...)
	}

	return LoadFile(location, opts...)
}

func LoadFile(path string, opts ...Option) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &specerr.LoadError{Location: path, Cause: fmt.Errorf("reading spec file: %w", err)}
	}
	return LoadBytes(data, path, opts...)
}

// LoadBytes parses data, checks that it is a Swagger 2 or OpenAPI 3 document
// and converts Swagger 2 to OpenAPI 3. location only labels errors.
func LoadBytes(data []byte, location string, opts ...Option) (*Result, error) {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	version, err := detectVersion(data, location)
	if err != nil {
		return nil, err
	}

	tree, err := spec.Decode(data)
	if err != nil {
		return nil, &specerr.LoadError{Location: location, Cause: fmt.Errorf("parsing document: %w", err)}
	}
	if err := checkShape(tree, location); err != nil {
		return nil, err
	}

	result := &Result{
		Document: tree,
		Version:  version,
		RawData:  data,
	}

	switch {
	case strings.HasPrefix(version, "2."):
		settings.Logger.Debug("converting Swagger 2 document", "location", location)
		converted, err := convertV2ToV3(tree)
		if err != nil {
			return nil, &specerr.LoadError{Location: location, Cause: fmt.Errorf("converting Swagger 2 to OpenAPI 3: %w", err)}
		}
		result.Document = converted
		result.Converted = true
		result.Warnings = append(result.Warnings, "Swagger 2.0 document converted to OpenAPI 3.0; path order follows the converter")
	case strings.HasPrefix(version, "3.0"):
		result.Warnings = append(result.Warnings, "OpenAPI 3.0.x detected; some 3.1/3.2 features unavailable")
	}

	return result, nil
}

// detectVersion lets libopenapi classify the document. Anything but Swagger
// 2.x or OpenAPI 3.x is rejected.
func detectVersion(data []byte, location string) (string, error) {
	config := &datamodel.DocumentConfiguration{
		AllowFileReferences:   false,
		AllowRemoteReferences: false,
	}
	doc, err := libopenapi.NewDocumentWithConfiguration(data, config)
	if err != nil {
		return "", &specerr.ShapeError{Location: location, Message: err.Error()}
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "2.") && !strings.HasPrefix(version, "3.") {
		return "", &specerr.ShapeError{
			Location: location,
			Message:  fmt.Sprintf("unsupported version %q (expected 'swagger: 2.0' or 'openapi: 3.x')", version),
		}
	}
	return version, nil
}

func checkShape(tree *spec.Node, location string) error {
	if !tree.IsObject() {
		return &specerr.ShapeError{Location: location, Message: "document root is not an object"}
	}
	for _, key := range []string{"paths", "components", "definitions", "webhooks"} {
		if tree.Has(key) {
			return nil
		}
	}
	return &specerr.ShapeError{Location: location, Message: "document has neither paths nor components"}
}

// convertV2ToV3 round-trips the tree through the kin-openapi models. The
// converter re-sorts map keys, so declaration order is lost for converted
// documents.
func convertV2ToV3(tree *spec.Node) (*spec.Node, error) {
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(raw, &v2); err != nil {
		return nil, err
	}
	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(v3)
	if err != nil {
		return nil, err
	}
	return spec.Decode(out)
}
