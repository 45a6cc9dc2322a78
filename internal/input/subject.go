package input

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/internal/observer"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
)

var valuesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mqc_values_published_total",
	Help: "Values passed to targets after the global filter",
}, []string{"source", "export_type"})

type Subjecter interface {
	Register(observer observer.Observer)
	Deregister(observer observer.Observer)
	SetFilter(filter filter.Filter)
	Observers() []string
}

type ObserverRegistry map[string]observer.Observer

// Subject fans records of one kind out to the registered observers.
type Subject[T mqc.Export] struct {
	mu           sync.RWMutex
	observers    ObserverRegistry
	globalFilter filter.Filter
}

func NewSubject[T mqc.Export]() *Subject[T] {
	return &Subject[T]{
		observers: make(ObserverRegistry),
	}
}

func (bs *Subject[T]) Register(observer observer.Observer) {
	//nil observer check
	if observer == nil {
		return
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.observers[observer.GetName()] = observer
}

func (bs *Subject[T]) Deregister(observer observer.Observer) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	delete(bs.observers, observer.GetName())
}

func (bs *Subject[T]) SetFilter(filter filter.Filter) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.globalFilter = filter
}

// Observers returns the names of the registered observers.
func (bs *Subject[T]) Observers() []string {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	names := make([]string, 0, len(bs.observers))
	for name := range bs.observers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Publish filters values with the global filter and hands the accepted ones
// to every observer concurrently. It returns once all observers are done.
func (bs *Subject[T]) Publish(ctx context.Context, source string, values []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bs.mu.RLock()
	accepted := filter.FilterExports(bs.globalFilter, values)
	observers := make([]observer.Observer, 0, len(bs.observers))
	for _, o := range bs.observers {
		observers = append(observers, o)
	}
	bs.mu.RUnlock()

	if len(accepted) == 0 {
		return nil
	}
	export := exportName[T]()
	valuesPublished.WithLabelValues(source, export).Add(float64(len(accepted)))

	var g errgroup.Group
	for _, o := range observers {
		g.Go(func() error {
			if !notify(o, accepted) {
				logger.Warn("Target failed to save values",
					slog.String("target", o.GetName()),
					slog.String("source", source),
					slog.String("export", export))
				return fmt.Errorf("target %s failed to save %s", o.GetName(), export)
			}
			return nil
		})
	}
	return g.Wait()
}

func notify[T mqc.Export](o observer.Observer, values []T) bool {
	switch v := any(values).(type) {
	case []mqc.Data:
		return o.SaveData(v)
	case []mqc.Finding:
		return o.SaveFindings(v)
	}
	return false
}

func exportName[T mqc.Export]() string {
	var zero T
	return zero.GetExportName()
}
