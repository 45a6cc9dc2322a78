package mqc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDataHash(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := Data{DateTime: now, ArtifactPath: "A", DataSourceName: "Fisenko", MeasurementName: "English", MeasureName: "Quotes", VariableName: "Count"}
	b := a
	b.ArtifactPath = "B"
	c := a
	c.DateTime = now.Add(time.Second)

	require.Equal(t, a.Hash(), a.Hash())
	require.NotEqual(t, a.Hash(), b.Hash())
	require.NotEqual(t, a.Hash(), c.Hash())
	require.Equal(t, "Fisenko/English/Quotes/Count/A", a.Key())
}

func TestFindingHash(t *testing.T) {
	now := time.Now()
	a := Finding{DateTime: now, ArtifactPath: "A", DataSourceName: "Fisenko", Description: "x"}
	b := a
	b.Description = "y"

	require.NotEqual(t, a.Hash(), b.Hash())
	require.Equal(t, FINDING, a.GetExportName())
	require.Equal(t, "A", a.Artifact())
	require.Equal(t, "Fisenko", a.Source())
}

func TestFindingAddData(t *testing.T) {
	f := Finding{}
	f.AddData(Data{ArtifactPath: "A"}, Data{ArtifactPath: "A"})
	require.Len(t, f.Data, 2)
}

func TestReadResultEmpty(t *testing.T) {
	var nilResult *ReadResult
	require.True(t, nilResult.Empty())
	require.True(t, NewReadResult().Empty())
	require.False(t, (&ReadResult{Data: []Data{{}}}).Empty())
}

func TestFormErrorError(t *testing.T) {
	require.Equal(t, "url: bad", FormError{Field: "url", Message: "bad"}.Error())
	require.Equal(t, "bad", FormError{Message: "bad"}.Error())
}
