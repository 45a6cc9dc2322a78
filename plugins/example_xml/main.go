package main

import (
	"log/slog"
	"os"

	"mqc.szuro.net/adapters/xmlreader"
	"mqc.szuro.net/pkg/adapter"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	adapter.ServeFileReader(xmlreader.New())
}
