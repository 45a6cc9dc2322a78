package main

import (
	"log/slog"
	"os"

	"mqc.szuro.net/adapters/exampleapi"
	"mqc.szuro.net/pkg/adapter"
)

func main() {
	// the host parses JSON lines from plugin stderr
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	adapter.ServeConnector(exampleapi.New())
}
