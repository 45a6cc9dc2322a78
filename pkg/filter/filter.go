// Package filter implements the include/exclude rule chain applied to adapter
// records and the filters attached to output targets.
package filter

import (
	"fmt"

	"mqc.szuro.net/pkg/mqc"
)

const (
	ARTIFACT_FILTER = "artifact"
	SOURCE_FILTER   = "source"
)

// Filter decides which records reach a target.
type Filter interface {
	AcceptData(d mqc.Data) bool
	AcceptFinding(f mqc.Finding) bool
	FilterData(d []mqc.Data) []mqc.Data
	FilterFindings(f []mqc.Finding) []mqc.Finding
}

// FilterConfig is the raw filter definition of a target.
//
// An artifact filter uses Rules, a source filter uses Accepted/Rejected.
// An empty Type selects the artifact filter if Rules are set and no filter otherwise.
type FilterConfig struct {
	Type     string   `yaml:"type"`
	Rules    []Rule   `yaml:"rules"`
	Accepted []string `yaml:"accepted"`
	Rejected []string `yaml:"rejected"`
}

// NewFilter builds the filter described by cfg.
func NewFilter(cfg FilterConfig) (Filter, error) {
	switch cfg.Type {
	case ARTIFACT_FILTER:
		return newArtifactFilter(cfg)
	case SOURCE_FILTER:
		return NewSourceFilter(cfg), nil
	case "":
		if len(cfg.Rules) > 0 {
			return newArtifactFilter(cfg)
		}
		return NewEmptyFilter(), nil
	default:
		return nil, fmt.Errorf("unknown filter type %q", cfg.Type)
	}
}

func newArtifactFilter(cfg FilterConfig) (Filter, error) {
	f, err := NewArtifactFilter(cfg)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Accept evaluates f against any record kind.
func Accept[T mqc.Export](f Filter, v T) bool {
	switch v := any(v).(type) {
	case mqc.Data:
		return f.AcceptData(v)
	case mqc.Finding:
		return f.AcceptFinding(v)
	}
	return false
}

// FilterExports filters a slice of any record kind.
func FilterExports[T mqc.Export](f Filter, values []T) []T {
	if f == nil {
		return values
	}
	accepted := make([]T, 0, len(values))
	for _, v := range values {
		if Accept(f, v) {
			accepted = append(accepted, v)
		}
	}
	return accepted
}
