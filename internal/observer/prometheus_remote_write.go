package observer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/m3db/prometheus_remote_client_golang/promremote"
	"github.com/prometheus/prometheus/prompb"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/mqc"
)

const REMOTE_WRITE_METRIC = "mqc_data_value"

type PrometheusRemoteWrite struct {
	baseObserver
	client promremote.Client
}

// NewPrometheusRemoteWrite creates a target writing data values to a
// Prometheus remote write endpoint.
//
// Options: timeout (duration, default 30s).
func NewPrometheusRemoteWrite(name, writeURL string, opts config.Options) (prw *PrometheusRemoteWrite, err error) {
	timeout := 30 * time.Second
	if v := opts["timeout"]; v != "" {
		if timeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
	}

	cfg := promremote.NewConfig(
		promremote.WriteURLOption(writeURL),
		promremote.HTTPClientTimeoutOption(timeout),
		promremote.UserAgent(fmt.Sprintf("mqcd/%s", config.Version)),
	)
	client, err := promremote.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to construct client: %w", err)
	}

	prw = &PrometheusRemoteWrite{
		baseObserver: baseObserver{
			name:         name,
			observerType: "prometheus_remote_write",
		},
		client: client,
	}
	return
}

func (prw *PrometheusRemoteWrite) SaveData(d []mqc.Data) bool {
	return genericSave[mqc.Data](
		d,
		prw.localFilter,
		prw.dataFunction,
		prw.buffer,
	)
}

func (prw *PrometheusRemoteWrite) dataFunction(d []mqc.Data) (failed []mqc.Data, err error) {
	prw.sent(mqc.DATA).Add(float64(len(d)))
	if _, werr := prw.client.WriteProto(context.TODO(), dataToWriteRequest(d), promremote.WriteOptions{}); werr != nil {
		prw.failed(mqc.DATA).Add(float64(len(d)))
		return d, werr
	}
	return nil, nil
}

// SaveFindings is a no-op, findings have no numeric value.
func (prw *PrometheusRemoteWrite) SaveFindings(f []mqc.Finding) bool {
	if len(f) > 0 {
		logger.Debug("Findings are not shipped by remote write targets", slog.String("name", prw.name), slog.Int("count", len(f)))
	}
	return true
}

// dataToWriteRequest builds one series per data key. Series are ordered by
// key and samples by timestamp.
func dataToWriteRequest(d []mqc.Data) *prompb.WriteRequest {
	series := make(map[string]*prompb.TimeSeries, len(d))
	keys := make([]string, 0, len(d))
	for _, D := range d {
		sample := prompb.Sample{
			Value:     D.Value,
			Timestamp: D.DateTime.UnixMilli(),
		}
		key := D.Key()
		if ts, ok := series[key]; ok {
			ts.Samples = append(ts.Samples, sample)
			continue
		}
		series[key] = &prompb.TimeSeries{
			Labels:  dataToLabels(D),
			Samples: []prompb.Sample{sample},
		}
		keys = append(keys, key)
	}

	slices.Sort(keys)
	wr := &prompb.WriteRequest{Timeseries: make([]prompb.TimeSeries, 0, len(keys))}
	for _, key := range keys {
		ts := series[key]
		slices.SortStableFunc(ts.Samples, timestampSort)
		wr.Timeseries = append(wr.Timeseries, *ts)
	}
	return wr
}

// dataToLabels returns the labels of a value sorted by name.
func dataToLabels(D mqc.Data) []prompb.Label {
	return []prompb.Label{
		{Name: "__name__", Value: REMOTE_WRITE_METRIC},
		{Name: "artifact", Value: D.ArtifactPath},
		{Name: "data_source", Value: D.DataSourceName},
		{Name: "measure", Value: D.MeasureName},
		{Name: "measurement", Value: D.MeasurementName},
		{Name: "variable", Value: D.VariableName},
	}
}

func timestampSort(i, j prompb.Sample) int {
	switch {
	case i.Timestamp < j.Timestamp:
		return -1
	case i.Timestamp > j.Timestamp:
		return 1
	}
	return 0
}
