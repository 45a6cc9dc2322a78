package quotes

import (
	"time"

	"mqc.szuro.net/pkg/mqc"
)

const (
	DataSourceFisenko  = "Fisenko"
	MeasurementEnglish = "English"
	MeasureQuotes      = "Quotes"
	VariableCount      = "Count"
	SubjectTypeQuote   = "Quote"
)

// Aggregator turns retained quotes into one Data record per author and,
// optionally, one Finding per quote.
type Aggregator struct {
	DataSource  string
	Measurement string
	Findings    bool
}

// NewAggregator returns an aggregator labelled for the english Fisenko quotes.
func NewAggregator(findings bool) Aggregator {
	return Aggregator{
		DataSource:  DataSourceFisenko,
		Measurement: MeasurementEnglish,
		Findings:    findings,
	}
}

// Aggregate groups retained by author name. Records are stamped with at.
// Data is returned in first-seen order of the authors.
func (a Aggregator) Aggregate(retained []Quote, at time.Time) ([]mqc.Data, []mqc.Finding) {
	counts := make(map[string]int, len(retained))
	order := make([]string, 0, len(retained))
	for _, q := range retained {
		name := q.AuthorName()
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	data := make([]mqc.Data, 0, len(order))
	byAuthor := make(map[string]mqc.Data, len(order))
	for _, name := range order {
		d := mqc.Data{
			DateTime:        at,
			ArtifactPath:    name,
			Value:           float64(counts[name]),
			DataSourceName:  a.DataSource,
			MeasurementName: a.Measurement,
			MeasureName:     MeasureQuotes,
			VariableName:    VariableCount,
		}
		data = append(data, d)
		byAuthor[name] = d
	}

	if !a.Findings {
		return data, nil
	}

	findings := make([]mqc.Finding, 0, len(retained))
	for _, q := range retained {
		f := mqc.Finding{
			DateTime:        at,
			ArtifactPath:    q.AuthorName(),
			DataSourceName:  a.DataSource,
			MeasurementName: a.Measurement,
			Description:     q.Text,
			State:           mqc.STATE_AVAILABLE,
			SubjectType:     SubjectTypeQuote,
			SubjectPath:     []string{a.DataSource, a.Measurement},
		}
		f.AddData(byAuthor[q.AuthorName()])
		findings = append(findings, f)
	}
	return data, findings
}
