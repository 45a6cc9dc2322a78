// Package input runs adapter reads and publishes their records to the
// configured targets.
package input

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/internal/observer"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
)

const (
	KIND_CONNECTOR   = "connector"
	KIND_FILE_READER = "file_reader"
)

var (
	// ErrUnavailable is returned when a read produced no result.
	ErrUnavailable = errors.New("source unavailable")
	// ErrNotAccepted is returned when a file reader does not accept a file.
	ErrNotAccepted = errors.New("file not accepted by reader")
)

var (
	readsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqc_reads_total",
		Help: "Total number of adapter reads",
	}, []string{"source", "kind"})

	readFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mqc_read_failures_total",
		Help: "Total number of adapter reads that returned no result",
	}, []string{"source", "kind"})
)

type Inputer interface {
	Name() string
	IsReady(ctx context.Context) bool
	Start(ctx context.Context) error
}

// Subjects holds one subject per record kind and the observers registered
// with them. A single observer instance serves both subjects.
type Subjects struct {
	Data      *Subject[mqc.Data]
	Findings  *Subject[mqc.Finding]
	observers []observer.Observer
}

// NewSubjects builds the subjects with the global filter of conf and
// registers every configured target. Targets that cannot be created are
// logged and skipped.
func NewSubjects(conf config.MQCConf) (*Subjects, error) {
	globalFilter, err := filter.NewFilter(conf.Filter)
	if err != nil {
		return nil, err
	}

	s := &Subjects{
		Data:     NewSubject[mqc.Data](),
		Findings: NewSubject[mqc.Finding](),
	}
	s.Data.SetFilter(globalFilter)
	s.Findings.SetFilter(globalFilter)

	for _, target := range conf.Targets {
		obs, err := observer.NewObserver(target, conf.WorkingDir)
		if err != nil {
			logger.Warn("Failed to register target", slog.String("name", target.Name), slog.Any("error", err))
			continue
		}
		exports := make([]string, 0, 2)
		for _, export := range []string{mqc.DATA, mqc.FINDING} {
			if target.Ships(export) {
				exports = append(exports, export)
			}
		}
		s.Register(obs, exports)
	}
	return s, nil
}

// Register adds obs to the subjects of the given export kinds.
func (s *Subjects) Register(obs observer.Observer, exports []string) {
	for _, export := range exports {
		switch export {
		case mqc.DATA:
			s.Data.Register(obs)
		case mqc.FINDING:
			s.Findings.Register(obs)
		}
	}
	s.observers = append(s.observers, obs)
}

// Publish ships the data and then the findings of result.
func (s *Subjects) Publish(ctx context.Context, source string, result *mqc.ReadResult) error {
	if result == nil {
		return nil
	}
	return errors.Join(
		s.Data.Publish(ctx, source, result.Data),
		s.Findings.Publish(ctx, source, result.Findings),
	)
}

// Cleanup releases every registered observer.
func (s *Subjects) Cleanup() {
	for _, obs := range s.observers {
		obs.Cleanup()
	}
	s.observers = nil
}

type baseInput struct {
	name     string
	kind     string
	subjects *Subjects
}

func (bi *baseInput) Name() string {
	return bi.name
}

// cycleLogger returns a logger tagging records with a new cycle id.
func (bi *baseInput) cycleLogger() *logger.MQCLogger {
	return logger.Default().With(
		slog.String("cycle_id", uuid.NewString()),
		slog.String("source", bi.name),
		slog.String("kind", bi.kind),
	)
}

func (bi *baseInput) countRead(result *mqc.ReadResult) {
	readsTotal.WithLabelValues(bi.name, bi.kind).Inc()
	if result == nil {
		readFailures.WithLabelValues(bi.name, bi.kind).Inc()
	}
}

func (bi *baseInput) publish(ctx context.Context, log *logger.MQCLogger, result *mqc.ReadResult) error {
	if bi.subjects == nil {
		return nil
	}
	err := bi.subjects.Publish(ctx, bi.name, result)
	if err != nil {
		log.Warn("Failed to publish values", slog.Any("error", err))
	}
	return err
}
