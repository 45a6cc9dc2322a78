package observer

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/filter"
)

const (
	PRINT                   = "print"
	PSQL_TARGET             = "psql"
	AZURE_TABLE             = "azure_table"
	PROMETHEUS_PUSHGATEWAY  = "prometheus_pushgateway"
	PROMETHEUS_REMOTE_WRITE = "prometheus_remote_write"
	GCP_CLOUD_MONITOR       = "gcp_cloud_monitor"
)

// NewObserver creates the observer described by target. The offline buffer
// of the observer is kept in workingDir under the target name.
func NewObserver(target config.Target, workingDir string) (obs Observer, err error) {
	switch target.Type {
	case PRINT:
		obs = NewPrint(target.Name, target.Connection)
	case PSQL_TARGET:
		obs, err = NewPSQL(target.Name, target.Connection, target.Options)
	case AZURE_TABLE:
		obs, err = NewAzureTable(target.Name, target.Connection, target.Options)
	case PROMETHEUS_PUSHGATEWAY:
		obs, err = NewPushGateway(target.Name, target.Connection, target.Options)
	case PROMETHEUS_REMOTE_WRITE:
		obs, err = NewPrometheusRemoteWrite(target.Name, target.Connection, target.Options)
	case GCP_CLOUD_MONITOR:
		obs, err = NewCloudMonitor(target.Name, target.Options)
	default:
		return nil, fmt.Errorf("target %s: unknown type %q", target.Name, target.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", target.Name, err)
	}

	localFilter, err := filter.NewFilter(target.Filter)
	if err != nil {
		obs.Cleanup()
		return nil, fmt.Errorf("target %s: %w", target.Name, err)
	}
	obs.SetFilter(localFilter)
	obs.PrepareMetrics(target.Source)
	obs.InitBuffer(filepath.Join(workingDir, target.Name), target.OfflineBufferTime)

	logger.Debug("Created target",
		slog.String("name", target.Name),
		slog.String("type", target.Type),
		slog.Any("source", target.Source))
	return obs, nil
}
