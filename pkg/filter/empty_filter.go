package filter

import "mqc.szuro.net/pkg/mqc"

type EmptyFilter struct{}

func NewEmptyFilter() *EmptyFilter {
	var f EmptyFilter
	return &f
}

func (f *EmptyFilter) AcceptData(d mqc.Data) bool {
	return true
}
func (f *EmptyFilter) AcceptFinding(fi mqc.Finding) bool {
	return true
}

func (f *EmptyFilter) FilterData(d []mqc.Data) []mqc.Data {
	return d
}

func (f *EmptyFilter) FilterFindings(fi []mqc.Finding) []mqc.Finding {
	return fi
}
