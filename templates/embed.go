// Package templates holds the built-in client templates.
package templates

import "embed"

//go:embed go/*.tmpl
var FS embed.FS
