package model

// Client is everything the emitter needs to render one client file.
type Client struct {
	Name       string
	Package    string
	BaseURL    string
	Title      string
	Version    string
	Operations []Operation
	Types      *TypeDefinitions
}
