package filter

import (
	"mqc.szuro.net/pkg/mqc"
)

// ArtifactFilter runs a rule chain against the artifact path of each record.
type ArtifactFilter struct {
	Rules []Rule `yaml:"rules"`
	chain *Chain
}

func NewArtifactFilter(rawFilter FilterConfig) (*ArtifactFilter, error) {
	chain, err := NewChain(rawFilter.Rules)
	if err != nil {
		return nil, err
	}
	return &ArtifactFilter{Rules: rawFilter.Rules, chain: chain}, nil
}

func (f *ArtifactFilter) AcceptData(d mqc.Data) bool {
	return f.chain.Accept(d.ArtifactPath)
}
func (f *ArtifactFilter) AcceptFinding(fi mqc.Finding) bool {
	return f.chain.Accept(fi.ArtifactPath)
}

func (f *ArtifactFilter) FilterData(d []mqc.Data) []mqc.Data {
	return Apply(f.chain, d, mqc.Data.Artifact)
}

func (f *ArtifactFilter) FilterFindings(fi []mqc.Finding) []mqc.Finding {
	return Apply(f.chain, fi, mqc.Finding.Artifact)
}
