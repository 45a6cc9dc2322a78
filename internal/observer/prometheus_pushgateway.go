package observer

import (
	"fmt"
	"net/url"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/pkg/mqc"
)

const DEFAULT_JOB_NAME = "mqc_export"

var dataLabels = []string{"data_source", "measurement", "measure", "variable", "artifact"}

type PushGateway struct {
	baseObserver
	url      string
	job      string
	instance string
}

// NewPushGateway creates a target that adds data values to the Pushgateway
// at gatewayURL, grouped by job and instance.
//
// Options: job_name (default mqc_export), instance (default hostname).
func NewPushGateway(name, gatewayURL string, opts config.Options) (pg *PushGateway, err error) {
	if _, err = url.ParseRequestURI(gatewayURL); err != nil {
		return nil, fmt.Errorf("invalid pushgateway url: %w", err)
	}

	host, _ := os.Hostname()
	pg = &PushGateway{
		baseObserver: baseObserver{
			name:         name,
			observerType: "prometheus_pushgateway",
		},
		url:      gatewayURL,
		job:      opts.Get("job_name", DEFAULT_JOB_NAME),
		instance: opts.Get("instance", host),
	}
	return
}

func (pg *PushGateway) pusher(g prometheus.Gatherer) *push.Pusher {
	return push.New(pg.url, pg.job).
		Gatherer(g).
		Grouping("instance", pg.instance)
}

func (pg *PushGateway) SaveData(d []mqc.Data) bool {
	return genericSave[mqc.Data](
		d,
		pg.localFilter,
		pg.dataFunction,
		pg.buffer,
	)
}

// dataFunction pushes the batch as one request. The latest value of every
// series wins.
func (pg *PushGateway) dataFunction(d []mqc.Data) (failed []mqc.Data, err error) {
	registry := prometheus.NewRegistry()
	values := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mqc_data_value",
		Help: "Latest value read from a data source",
	}, dataLabels)
	stamps := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mqc_data_timestamp_seconds",
		Help: "Time the latest value refers to",
	}, dataLabels)
	registry.MustRegister(values, stamps)

	for _, D := range d {
		labels := []string{D.DataSourceName, D.MeasurementName, D.MeasureName, D.VariableName, D.ArtifactPath}
		values.WithLabelValues(labels...).Set(D.Value)
		stamps.WithLabelValues(labels...).Set(float64(D.DateTime.Unix()))
	}

	pg.sent(mqc.DATA).Add(float64(len(d)))
	if err := pg.pusher(registry).Add(); err != nil {
		pg.failed(mqc.DATA).Add(float64(len(d)))
		return d, err
	}
	return nil, nil
}

func (pg *PushGateway) SaveFindings(f []mqc.Finding) bool {
	return genericSave[mqc.Finding](
		f,
		pg.localFilter,
		pg.findingFunction,
		pg.buffer,
	)
}

// findingFunction pushes the number of findings per data source, subject type and state.
func (pg *PushGateway) findingFunction(f []mqc.Finding) (failed []mqc.Finding, err error) {
	registry := prometheus.NewRegistry()
	findings := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mqc_findings",
		Help: "Number of findings in the latest read of a data source",
	}, []string{"data_source", "subject_type", "state"})
	registry.MustRegister(findings)

	for _, F := range f {
		findings.WithLabelValues(F.DataSourceName, F.SubjectType, F.State).Inc()
	}

	pg.sent(mqc.FINDING).Add(float64(len(f)))
	if err := pg.pusher(registry).Add(); err != nil {
		pg.failed(mqc.FINDING).Add(float64(len(f)))
		return f, err
	}
	return nil, nil
}
