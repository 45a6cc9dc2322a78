package observer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/googleapis/gax-go/v2/apierror"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/api/label"
	metricpb "google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"

	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/mqc"
)

const (
	GCP_DATA_TYPE = "custom.googleapis.com/mqc/data"
	// maximum number of series in a single CreateTimeSeries request
	GCP_MAX_SERIES = 200
)

type CloudMonitor struct {
	baseObserver
	client    *monitoring.MetricClient
	resource  *monitoredres.MonitoredResource
	projectID string
}

// NewCloudMonitor creates a target writing data values to Google Cloud Monitoring.
//
// Options: credentials_file, project_id (default from credentials),
// create_descriptor (bool).
func NewCloudMonitor(name string, opts config.Options) (cm *CloudMonitor, err error) {
	ctx := context.Background()

	var creds *google.Credentials
	if credFile := opts["credentials_file"]; credFile != "" {
		raw, err := os.ReadFile(credFile)
		if err != nil {
			return nil, err
		}
		creds, err = google.CredentialsFromJSON(ctx, raw, monitoring.DefaultAuthScopes()...)
		if err != nil {
			return nil, err
		}
	} else {
		creds, err = google.FindDefaultCredentials(ctx, monitoring.DefaultAuthScopes()...)
		if err != nil {
			return nil, err
		}
	}

	projectID := opts.Get("project_id", creds.ProjectID)
	if projectID == "" {
		return nil, errors.New("missing GCP project id")
	}

	client, err := monitoring.NewMetricClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	cm = &CloudMonitor{
		baseObserver: baseObserver{
			name:         name,
			observerType: "gcp_cloud_monitor",
		},
		client:    client,
		resource:  newResource(),
		projectID: "projects/" + projectID,
	}

	if create, _ := strconv.ParseBool(opts["create_descriptor"]); create {
		if _, err := cm.createDataDescriptor(ctx); err != nil {
			client.Close()
			return nil, err
		}
	}
	return cm, nil
}

func (cm *CloudMonitor) Cleanup() {
	cm.baseObserver.Cleanup()
	if cm.client != nil {
		cm.client.Close()
	}
}

func (cm *CloudMonitor) SaveData(d []mqc.Data) bool {
	return genericSave[mqc.Data](
		d,
		cm.localFilter,
		cm.dataFunction,
		cm.buffer,
	)
}

// SaveFindings is a no-op, findings have no numeric value.
func (cm *CloudMonitor) SaveFindings(f []mqc.Finding) bool {
	if len(f) > 0 {
		logger.Debug("Findings are not shipped by cloud monitoring targets", slog.String("name", cm.name), slog.Int("count", len(f)))
	}
	return true
}

func (cm *CloudMonitor) dataFunction(d []mqc.Data) (failed []mqc.Data, err error) {
	for _, batch := range seriesBatches(d) {
		series := make([]*monitoringpb.TimeSeries, 0, len(batch))
		for _, D := range batch {
			series = append(series, newTimeSeries(cm.resource, D))
		}
		if serr := cm.sendSeries(series); serr != nil {
			failed = append(failed, batch...)
			err = serr
		}
	}
	return failed, err
}

// sendSeries ships one request. A partially accepted request is not an error,
// the rejected points are only counted.
func (cm *CloudMonitor) sendSeries(ts []*monitoringpb.TimeSeries) error {
	l := float64(len(ts))
	cm.sent(mqc.DATA).Add(l)

	err := cm.client.CreateTimeSeries(context.TODO(), &monitoringpb.CreateTimeSeriesRequest{
		Name:       cm.projectID,
		TimeSeries: ts,
	})
	if err == nil {
		return nil
	}

	if aErr, ok := apierror.FromError(err); ok {
		for _, detail := range aErr.Details().Unknown {
			if summary, ok := detail.(*monitoringpb.CreateTimeSeriesSummary); ok {
				fails := summary.TotalPointCount - summary.SuccessPointCount
				cm.failed(mqc.DATA).Add(float64(fails))
				if summary.SuccessPointCount > 0 {
					logger.Warn("Cloud monitoring rejected some points",
						slog.String("name", cm.name), slog.Int("rejected", int(fails)), slog.Any("error", err))
					return nil
				}
				return err
			}
		}
	}
	cm.failed(mqc.DATA).Add(l)
	return err
}

// seriesBatches splits values into requests holding at most GCP_MAX_SERIES
// values and at most one point per series. Values keep their time order.
func seriesBatches(d []mqc.Data) [][]mqc.Data {
	sorted := slices.Clone(d)
	slices.SortStableFunc(sorted, func(a, b mqc.Data) int { return a.DateTime.Compare(b.DateTime) })

	var batches [][]mqc.Data
	var current []mqc.Data
	seen := make(map[string]struct{})
	for _, D := range sorted {
		_, dup := seen[D.Key()]
		if dup || len(current) == GCP_MAX_SERIES {
			batches = append(batches, current)
			current = nil
			seen = make(map[string]struct{})
		}
		current = append(current, D)
		seen[D.Key()] = struct{}{}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func newResource() *monitoredres.MonitoredResource {
	host, _ := os.Hostname()
	return &monitoredres.MonitoredResource{
		Type: "generic_task",
		Labels: map[string]string{
			"location":  "global",
			"namespace": "default",
			"job":       "MQC Export",
			"task_id":   host,
		},
	}
}

func dataToMetric(D mqc.Data) *metricpb.Metric {
	return &metricpb.Metric{
		Type: GCP_DATA_TYPE,
		Labels: map[string]string{
			"data_source": D.DataSourceName,
			"measurement": D.MeasurementName,
			"measure":     D.MeasureName,
			"variable":    D.VariableName,
			"artifact":    D.ArtifactPath,
		},
	}
}

func dataToPoint(D mqc.Data) *monitoringpb.Point {
	stamp := &timestamp.Timestamp{
		Seconds: D.DateTime.Unix(),
		Nanos:   int32(D.DateTime.Nanosecond()),
	}
	return &monitoringpb.Point{
		Interval: &monitoringpb.TimeInterval{
			StartTime: stamp,
			EndTime:   stamp,
		},
		Value: &monitoringpb.TypedValue{
			Value: &monitoringpb.TypedValue_DoubleValue{
				DoubleValue: D.Value,
			},
		},
	}
}

func newTimeSeries(resource *monitoredres.MonitoredResource, D mqc.Data) *monitoringpb.TimeSeries {
	return &monitoringpb.TimeSeries{
		Metric:   dataToMetric(D),
		Points:   []*monitoringpb.Point{dataToPoint(D)},
		Resource: resource,
	}
}

func dataLabelDescriptors() []*label.LabelDescriptor {
	descriptors := make([]*label.LabelDescriptor, 0, len(dataLabels))
	for _, l := range dataLabels {
		descriptors = append(descriptors, &label.LabelDescriptor{
			Key:       l,
			ValueType: label.LabelDescriptor_STRING,
		})
	}
	return descriptors
}

func (cm *CloudMonitor) createDataDescriptor(ctx context.Context) (*metricpb.MetricDescriptor, error) {
	md := &metricpb.MetricDescriptor{
		Name:        "MQC data",
		Type:        GCP_DATA_TYPE,
		Labels:      dataLabelDescriptors(),
		MetricKind:  metricpb.MetricDescriptor_GAUGE,
		ValueType:   metricpb.MetricDescriptor_DOUBLE,
		Description: "Values read by MQC data sources",
		DisplayName: "MQC data",
	}
	m, err := cm.client.CreateMetricDescriptor(ctx, &monitoringpb.CreateMetricDescriptorRequest{
		Name:             cm.projectID,
		MetricDescriptor: md,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create custom metric: %w", err)
	}
	return m, nil
}
