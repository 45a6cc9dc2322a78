// Package xmlreader implements the Example file reader. It accepts
// Report.Example.xml files and reports nothing from them.
package xmlreader

import (
	"context"
	"log/slog"

	"mqc.szuro.net/pkg/adapter"
	"mqc.szuro.net/pkg/mqc"
)

const (
	PLUGIN_NAME = "xmlreader"

	// ReportFileName is the only file name the reader accepts.
	ReportFileName = "Report.Example.xml"
)

var _ adapter.FileReader = (*Reader)(nil)

type Reader struct {
	adapter.Base
}

func New() *Reader {
	return &Reader{Base: adapter.NewBase(PLUGIN_NAME)}
}

func (r *Reader) Info() adapter.Info {
	return adapter.Info{
		Name:        "Example",
		Description: "This is an example adapter",
		Version:     "8.3.0",
	}
}

func (r *Reader) Priority() int {
	return 200
}

func (r *Reader) FileExtensions() []string {
	return []string{".xml"}
}

func (r *Reader) DataSource() string {
	return "Example"
}

func (r *Reader) IsValid(fc adapter.FileContext) bool {
	return fc.FileName == ReportFileName
}

// Read parses the report. The report carries no records.
func (r *Reader) Read(ctx context.Context, fc adapter.FileContext) (*mqc.ReadResult, error) {
	doc, err := fc.Document()
	if err != nil {
		return nil, err
	}
	r.Log().Debug("Parsed report", slog.String("file", fc.Path), slog.String("root", doc.XMLName.Local))
	return mqc.NewReadResult(), nil
}
