package input

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/adapter"
	"mqc.szuro.net/pkg/mqc"
)

// ConnectorInput runs a connector against one configured data source.
type ConnectorInput struct {
	baseInput
	source    config.DataSource
	connector adapter.Connector
	cc        adapter.ConnectorContext
	timeout   time.Duration
}

// NewConnectorInput binds connector to source. Records are published to
// subjects, which may be nil for inputs that never publish.
func NewConnectorInput(source config.DataSource, connector adapter.Connector, subjects *Subjects, timeout time.Duration) (*ConnectorInput, error) {
	raw, err := source.ConfigurationJSON()
	if err != nil {
		return nil, err
	}
	return &ConnectorInput{
		baseInput: baseInput{
			name:     source.Name,
			kind:     KIND_CONNECTOR,
			subjects: subjects,
		},
		source:    source,
		connector: connector,
		cc: adapter.ConnectorContext{
			Configuration:  raw,
			ImportFindings: source.ImportFindings,
		},
		timeout: timeout,
	}, nil
}

func (ci *ConnectorInput) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ci.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, ci.timeout)
}

// IsReady reports whether the data source can be reached.
func (ci *ConnectorInput) IsReady(ctx context.Context) bool {
	ctx, cancel := ci.withTimeout(ctx)
	defer cancel()
	return ci.connector.CheckAvailable(ctx, ci.cc)
}

// Modified reports whether the data source changed since the last read.
func (ci *ConnectorInput) Modified(ctx context.Context) bool {
	ctx, cancel := ci.withTimeout(ctx)
	defer cancel()
	return ci.connector.CheckModified(ctx, ci.cc)
}

// Validate checks the whole configuration of the data source.
func (ci *ConnectorInput) Validate(ctx context.Context) []mqc.FormError {
	ctx, cancel := ci.withTimeout(ctx)
	defer cancel()
	return ci.connector.ConfigureForm(ctx, ci.cc.Configuration, configurationFields(ci.cc.Configuration))
}

// configurationFields returns the sorted top level keys of a JSON object.
func configurationFields(raw []byte) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return []string{}
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preview returns the named preview of the data source and its total.
func (ci *ConnectorInput) Preview(ctx context.Context, name string) ([]mqc.FormPreview, int, error) {
	ctx, cancel := ci.withTimeout(ctx)
	defer cancel()
	return ci.connector.GetPreview(ctx, ci.cc, name)
}

// Read runs a single read. A nil result means the data source was unavailable;
// the cause is logged.
func (ci *ConnectorInput) Read(ctx context.Context) *mqc.ReadResult {
	return ci.read(ctx, ci.cycleLogger())
}

func (ci *ConnectorInput) read(ctx context.Context, log *logger.MQCLogger) *mqc.ReadResult {
	ctx, cancel := ci.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := ci.connector.Read(ctx, ci.cc)
	if err != nil {
		log.Error("Failed to read data source", slog.String("adapter", ci.source.Adapter), slog.Any("error", err))
		result = nil
	}
	ci.countRead(result)
	if result != nil {
		log.Info("Read data source",
			slog.Int("data", len(result.Data)),
			slog.Int("findings", len(result.Findings)),
			slog.Duration("took", time.Since(start)))
	}
	return result
}

// Start reads the data source once and publishes the result.
func (ci *ConnectorInput) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := ci.cycleLogger()
	result := ci.read(ctx, log)
	if result == nil {
		return ErrUnavailable
	}
	return ci.publish(ctx, log, result)
}
