package observer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"mqc.szuro.net/pkg/mqc"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testData(artifacts ...string) []mqc.Data {
	d := make([]mqc.Data, 0, len(artifacts))
	for i, a := range artifacts {
		d = append(d, mqc.Data{
			DateTime:        testTime.Add(time.Duration(i) * time.Second),
			ArtifactPath:    a,
			Value:           float64(i + 1),
			DataSourceName:  "Fisenko",
			MeasurementName: "English",
			MeasureName:     "Quotes",
			VariableName:    "Count",
		})
	}
	return d
}

func testFindings(artifacts ...string) []mqc.Finding {
	f := make([]mqc.Finding, 0, len(artifacts))
	for i, a := range artifacts {
		f = append(f, mqc.Finding{
			DateTime:        testTime,
			ArtifactPath:    a,
			DataSourceName:  "Fisenko",
			MeasurementName: "English",
			Description:     "quote " + a,
			State:           mqc.STATE_AVAILABLE,
			SubjectType:     "Quote",
			SubjectPath:     []string{"Quote", string(rune('0' + i))},
			Data:            testData(a),
		})
	}
	return f
}

func newTestBuffer(t *testing.T) *MQCBuffer {
	b, err := NewMQCBuffer(filepath.Join(t.TempDir(), "buffer"), 1)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestBufferRoundTrip(t *testing.T) {
	b := newTestBuffer(t)
	require.True(t, b.Enabled())

	data := testData("A", "B", "C")
	findings := testFindings("A", "B")
	require.NoError(t, saveToBuffer(b, data))
	require.NoError(t, saveToBuffer(b, findings))

	fetched, err := fetchFromBuffer[mqc.Data](b, 10)
	require.NoError(t, err)
	require.ElementsMatch(t, data, fetched)

	fetchedFindings, err := fetchFromBuffer[mqc.Finding](b, 10)
	require.NoError(t, err)
	require.ElementsMatch(t, findings, fetchedFindings)

	limited, err := fetchFromBuffer[mqc.Data](b, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	require.NoError(t, deleteFromBuffer(b, data[:2]))
	rest, err := fetchFromBuffer[mqc.Data](b, 10)
	require.NoError(t, err)
	require.Equal(t, data[2:], rest)
}

func TestDisabledBuffer(t *testing.T) {
	b, err := NewMQCBuffer(filepath.Join(t.TempDir(), "buffer"), 0)
	require.NoError(t, err)
	require.False(t, b.Enabled())

	require.ErrorIs(t, saveToBuffer(b, testData("A")), errNoBuffer)
	_, err = fetchFromBuffer[mqc.Data](b, 1)
	require.ErrorIs(t, err, errNoBuffer)
	require.ErrorIs(t, deleteFromBuffer(b, testData("A")), errNoBuffer)

	var nilBuffer *MQCBuffer
	require.False(t, nilBuffer.Enabled())
	nilBuffer.Close()
}
