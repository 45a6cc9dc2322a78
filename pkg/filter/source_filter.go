package filter

import (
	"slices"

	"mqc.szuro.net/pkg/mqc"
)

// SourceFilter accepts or rejects records by data source name.
type SourceFilter struct {
	AcceptedSources []string `yaml:"accepted"`
	RejectedSources []string `yaml:"rejected"`
	active          bool
}

func NewSourceFilter(rawFilter FilterConfig) *SourceFilter {
	var f SourceFilter

	f.AcceptedSources = rawFilter.Accepted
	f.RejectedSources = rawFilter.Rejected

	if len(f.AcceptedSources) != 0 || len(f.RejectedSources) != 0 {
		f.active = true
	}
	return &f
}

func (f *SourceFilter) AcceptData(d mqc.Data) bool {
	return f.sourceFilter(d.DataSourceName)
}
func (f *SourceFilter) AcceptFinding(fi mqc.Finding) bool {
	return f.sourceFilter(fi.DataSourceName)
}

func (f *SourceFilter) FilterData(d []mqc.Data) []mqc.Data {
	accepted := make([]mqc.Data, 0, len(d))
	for _, D := range d {
		if f.sourceFilter(D.DataSourceName) {
			accepted = append(accepted, D)
		}
	}
	return accepted
}
func (f *SourceFilter) FilterFindings(fi []mqc.Finding) []mqc.Finding {
	accepted := make([]mqc.Finding, 0, len(fi))
	for _, F := range fi {
		if f.sourceFilter(F.DataSourceName) {
			accepted = append(accepted, F)
		}
	}
	return accepted
}

func (f *SourceFilter) sourceFilter(source string) (accepted bool) {
	if !f.active {
		return true
	}

	// whitelist mode if anything is accepted explicitly
	accepted = len(f.AcceptedSources) == 0 || slices.Contains(f.AcceptedSources, source)

	if slices.Contains(f.RejectedSources, source) {
		accepted = false
	}

	return
}
