// Package mqc provides the types exchanged between MQC adapters and the host.
//
// An adapter produces an AdapterReadResult-like ReadResult made of two kinds of
// records:
//   - Data: a single measured value addressed by data source, measurement,
//     measure, variable and artifact path
//   - Finding: an observation about a single subject that references the Data
//     records it relates to
//
// Both record kinds implement the Export interface, which allows the host to
// filter, buffer and ship them generically.
//
// Example usage:
//
//	import "mqc.szuro.net/pkg/mqc"
//
//	func ship[T mqc.Export](exports []T) {
//	    for _, export := range exports {
//	        key := export.Hash()
//	        name := export.GetExportName()
//	        // Ship the export...
//	    }
//	}
package mqc

import (
	"fmt"
	"strings"
	"time"
)

// Export type constants that identify the different kinds of records.
// They double as the names used in target "source" lists.
const (
	// DATA identifies measured values.
	DATA = "data"

	// FINDING identifies findings.
	FINDING = "findings"
)

// Finding states known to the host.
const (
	STATE_AVAILABLE = "Available"
)

// Export is a generic interface implemented by all record kinds returned
// from an adapter read.
type Export interface {
	// Type constraint limiting implementations to supported record kinds.
	Data | Finding

	// GetExportName returns the string identifier for this record kind.
	// Returns one of: "data" or "findings".
	GetExportName() string

	// Artifact returns the artifact path the record is attached to.
	// Target filters evaluate this value.
	Artifact() string

	// Source returns the data source name of the record.
	Source() string

	// Hash generates a unique byte slice identifier for this record.
	// Used for offline buffering.
	Hash() []byte
}

// Data is a single value produced by an adapter.
type Data struct {
	// DateTime is the moment the value refers to.
	DateTime time.Time `json:"dateTime"`

	// ArtifactPath identifies the measured artifact (e.g. an author name).
	ArtifactPath string `json:"artifactPath"`

	// Value is the measured value.
	Value float64 `json:"value"`

	// DataSourceName is the name of the data source that produced the value.
	DataSourceName string `json:"dataSourceName"`

	// MeasurementName groups values of a single read of the data source.
	MeasurementName string `json:"measurementName"`

	// MeasureName is the name of the measure (e.g. "Quotes").
	MeasureName string `json:"measureName"`

	// VariableName is the name of the variable (e.g. "Count").
	VariableName string `json:"variableName"`
}

// GetExportName returns "data".
// Implements the Export interface.
func (d Data) GetExportName() string {
	return DATA
}

// Artifact returns the artifact path of the value.
func (d Data) Artifact() string {
	return d.ArtifactPath
}

// Source returns the data source name of the value.
func (d Data) Source() string {
	return d.DataSourceName
}

// Hash generates a unique identifier for this value.
// The hash is based on the full address of the value and its timestamp.
func (d Data) Hash() []byte {
	return []byte("data_" + d.Key() + ":" + fmt.Sprint(d.DateTime.UnixNano()))
}

// Key returns the address of the value without the timestamp.
// Values sharing a key belong to the same series.
func (d Data) Key() string {
	return strings.Join([]string{d.DataSourceName, d.MeasurementName, d.MeasureName, d.VariableName, d.ArtifactPath}, "/")
}

// Finding is an observation about a single subject.
type Finding struct {
	// DateTime is the moment the finding refers to.
	DateTime time.Time `json:"dateTime"`

	// ArtifactPath identifies the artifact the finding is attached to.
	ArtifactPath string `json:"artifactPath"`

	// DataSourceName is the name of the data source that produced the finding.
	DataSourceName string `json:"dataSourceName"`

	// MeasurementName groups findings of a single read of the data source.
	MeasurementName string `json:"measurementName"`

	// Description is the human readable text of the finding.
	Description string `json:"description"`

	// State is the state of the finding, see STATE_* constants.
	State string `json:"state"`

	// SubjectType names the kind of the subject (e.g. "Quote").
	SubjectType string `json:"subjectType"`

	// SubjectPath locates the subject within the data source.
	SubjectPath []string `json:"subjectPath"`

	// Data contains the values this finding refers to.
	Data []Data `json:"data,omitempty"`
}

// AddData attaches values to the finding.
func (f *Finding) AddData(d ...Data) {
	f.Data = append(f.Data, d...)
}

// GetExportName returns "findings".
// Implements the Export interface.
func (f Finding) GetExportName() string {
	return FINDING
}

// Artifact returns the artifact path of the finding.
func (f Finding) Artifact() string {
	return f.ArtifactPath
}

// Source returns the data source name of the finding.
func (f Finding) Source() string {
	return f.DataSourceName
}

// Hash generates a unique identifier for this finding.
// Findings have no natural id, so the description is part of the key.
func (f Finding) Hash() []byte {
	return []byte("finding_" + f.DataSourceName + ":" + f.ArtifactPath + ":" + fmt.Sprint(f.DateTime.UnixNano()) + ":" + f.Description)
}

// ReadResult is the outcome of a single adapter read.
// A nil *ReadResult signals that the source was unavailable.
type ReadResult struct {
	Data     []Data    `json:"data"`
	Findings []Finding `json:"findings"`
}

// NewReadResult returns an empty, non-nil result.
func NewReadResult() *ReadResult {
	return &ReadResult{
		Data:     []Data{},
		Findings: []Finding{},
	}
}

// Empty reports whether the result carries no records.
func (r *ReadResult) Empty() bool {
	return r == nil || (len(r.Data) == 0 && len(r.Findings) == 0)
}

// FormError describes a configuration value that cannot be used.
type FormError struct {
	// Field is the path of the offending field (field, field.field or field.index.field).
	// Empty when the error applies to the whole form.
	Field string `json:"field,omitempty"`

	// Message is the short error text.
	Message string `json:"message"`

	// Description explains the error.
	Description string `json:"description,omitempty"`
}

func (fe FormError) Error() string {
	if fe.Field != "" {
		return fe.Field + ": " + fe.Message
	}
	return fe.Message
}

// FormPreview is a single row of a preview shown while configuring a data source.
type FormPreview struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DateTime    *time.Time `json:"dateTime,omitempty"`
}
