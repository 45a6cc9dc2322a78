// Package observer implements the output targets adapter records are shipped to.
package observer

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
)

var (
	shippingOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqc_shipping_operations_total",
		Help: "Total number of shipping operations",
	}, []string{"target_name", "target_type", "export_type"})

	shippingErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqc_shipping_errors_total",
		Help: "Total number of shipping errors",
	}, []string{"target_name", "target_type", "export_type"})
)

type Observer interface {
	Cleanup()
	GetName() string
	SetName(name string)
	InitBuffer(path string, ttl int64)
	SaveData(d []mqc.Data) bool
	SaveFindings(f []mqc.Finding) bool
	SetFilter(filter filter.Filter)
	PrepareMetrics(exports []string)
}

type baseObserver struct {
	name           string
	observerType   string
	localFilter    filter.Filter
	buffer         *MQCBuffer
	enabledExports []string
}

// GetName returns the name of the observer.
func (bo *baseObserver) GetName() string {
	return bo.name
}

// SetName sets the name of the baseObserver to the provided string.
func (bo *baseObserver) SetName(name string) {
	bo.name = name
}

// PrepareMetrics initializes the shipping counters of the enabled exports.
func (bo *baseObserver) PrepareMetrics(exports []string) {
	bo.enabledExports = exports
	for _, export := range exports {
		shippingOperations.WithLabelValues(bo.name, bo.observerType, export)
		shippingErrors.WithLabelValues(bo.name, bo.observerType, export)
	}
}

// InitBuffer opens the offline buffer. A ttl of zero disables buffering.
func (bo *baseObserver) InitBuffer(bufferPath string, ttl int64) {
	buffer, err := NewMQCBuffer(bufferPath, ttl)
	if err != nil {
		logger.Error("Failed to open BadgerDB for offline buffering",
			slog.String("name", bo.name), slog.String("path", bufferPath), slog.Any("error", err))
		return
	}
	bo.buffer = buffer
}

// SetFilter sets the local filter for the observer.
func (bo *baseObserver) SetFilter(filter filter.Filter) {
	bo.localFilter = filter
}

// Cleanup closes the offline buffer.
func (bo *baseObserver) Cleanup() {
	bo.buffer.Close()
}

func (bo *baseObserver) sent(export string) prometheus.Counter {
	return shippingOperations.WithLabelValues(bo.name, bo.observerType, export)
}

func (bo *baseObserver) failed(export string) prometheus.Counter {
	return shippingErrors.WithLabelValues(bo.name, bo.observerType, export)
}

// genericSave filters values, ships them with saveFunc and manages the offline
// buffer. saveFunc returns the values it failed to ship.
//
// When saveFunc fails the failed values are buffered. When it succeeds, up to
// len(values) buffered records are re-sent and removed from the buffer unless
// they failed again.
func genericSave[T mqc.Export](
	values []T,
	localFilter filter.Filter,
	saveFunc func([]T) ([]T, error),
	buffer *MQCBuffer,
) bool {
	toSave := filter.FilterExports(localFilter, values)
	if len(toSave) == 0 {
		return true
	}

	toBuffer, err := saveFunc(toSave)
	if err != nil {
		logger.Error("Failed to save values", slog.String("export", exportName[T]()), slog.Any("error", err))
		if buffer.Enabled() && len(toBuffer) > 0 {
			if err := saveToBuffer(buffer, toBuffer); err != nil {
				logger.Error("Failed to save values to offline buffer", slog.Any("error", err))
			}
		}
		return false
	}

	if !buffer.Enabled() {
		return true
	}

	buffered, err := fetchFromBuffer[T](buffer, len(toSave))
	if err != nil || len(buffered) == 0 {
		return true
	}

	failedAgain, err := saveFunc(buffered)
	if err != nil {
		logger.Error("Failed to re-send buffered values", slog.Any("error", err))
	}
	if err := deleteFromBuffer(buffer, shipped(buffered, failedAgain)); err != nil {
		logger.Error("Failed to delete re-sent values from buffer", slog.Any("error", err))
	}
	return true
}

// shipped returns the values of all that are not in failed.
func shipped[T mqc.Export](all, failed []T) []T {
	if len(failed) == 0 {
		return all
	}
	keep := make(map[string]struct{}, len(failed))
	for _, f := range failed {
		keep[string(f.Hash())] = struct{}{}
	}
	done := make([]T, 0, len(all))
	for _, v := range all {
		if _, ok := keep[string(v.Hash())]; !ok {
			done = append(done, v)
		}
	}
	return done
}
