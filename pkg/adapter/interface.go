// Package adapter defines the contract between the MQC host and its adapters.
//
// Two adapter kinds exist:
//   - Connector: pulls records from a remote API on behalf of a configured data source
//   - FileReader: turns a single file into records
//
// Adapters can be linked into the host directly or run as separate executables
// using HashiCorp go-plugin, see ServeConnector and ServeFileReader.
//
// Creating a Connector plugin:
//
//	package main
//
//	import "mqc.szuro.net/pkg/adapter"
//
//	type MyConnector struct {
//	    adapter.Base
//	}
//
//	func (c *MyConnector) Read(ctx context.Context, cc adapter.ConnectorContext) (*mqc.ReadResult, error) {
//	    // Fetch and convert records
//	}
//
//	func main() {
//	    adapter.ServeConnector(&MyConnector{Base: adapter.NewBase("my-connector")})
//	}
package adapter

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"mqc.szuro.net/pkg/mqc"
)

// Info contains metadata about an adapter.
type Info struct {
	// Name is the human-readable name of the adapter.
	Name string

	// Description provides a brief description of what the adapter does.
	Description string

	// Version is the version of the adapter (e.g., "8.3.0").
	Version string
}

// ConnectorContext is handed to every Connector call that works on a data source.
type ConnectorContext struct {
	// Configuration is the JSON encoded adapter configuration of the data source.
	Configuration []byte

	// ImportFindings tells the connector whether findings should be produced.
	ImportFindings bool
}

// Connector is implemented by API connectors.
//
// Read signals an unavailable source by returning a nil result and an error.
// A non-nil, empty result means the source had nothing to report.
// Errors of a plugin reach the host as *RemoteError, which matches the
// sentinels passed to RegisterErrors.
type Connector interface {
	Info() Info

	// CheckAvailable reports whether the remote source can be reached with the configuration.
	CheckAvailable(ctx context.Context, cc ConnectorContext) bool

	// CheckModified reports whether the source changed since the last read.
	CheckModified(ctx context.Context, cc ConnectorContext) bool

	Read(ctx context.Context, cc ConnectorContext) (*mqc.ReadResult, error)

	// ConfigureForm validates the values of a configuration.
	// modifiedFields lists the changed fields as field, field.field or field.index.field.
	ConfigureForm(ctx context.Context, configuration []byte, modifiedFields []string) []mqc.FormError

	// GetPreview returns preview rows for the named preview and the total number
	// of rows available, or 0 when the total is unknown.
	GetPreview(ctx context.Context, cc ConnectorContext, preview string) ([]mqc.FormPreview, int, error)
}

// FileReader is implemented by file readers.
type FileReader interface {
	Info() Info

	// Priority orders readers that accept the same file. Higher wins.
	Priority() int

	// FileExtensions lists the extensions the reader is interested in.
	FileExtensions() []string

	// DataSource is the data source name the records are attributed to.
	DataSource() string

	IsValid(fc FileContext) bool

	Read(ctx context.Context, fc FileContext) (*mqc.ReadResult, error)
}

// MatchesExtension reports whether path has one of the extensions of the reader.
// Extensions are compared case-insensitively, with or without the leading dot.
func MatchesExtension(r FileReader, path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	for _, e := range r.FileExtensions() {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// Base provides the functionality shared by adapter implementations.
// Adapters should embed it.
type Base struct {
	// PluginName is the adapter type identifier
	PluginName string

	// Logger provides structured logging
	Logger *slog.Logger
}

// NewBase creates a Base logging through the default slog logger.
func NewBase(pluginName string) Base {
	return Base{
		PluginName: pluginName,
		Logger:     slog.Default().With(slog.String("adapter", pluginName)),
	}
}

// Log returns the adapter logger, falling back to the default one.
func (b Base) Log() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
