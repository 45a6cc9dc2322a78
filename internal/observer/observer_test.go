package observer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
)

// recorder is a saveFunc that fails while down is set.
type recorder struct {
	down  bool
	saved []mqc.Data
	calls int
}

func (r *recorder) save(d []mqc.Data) ([]mqc.Data, error) {
	r.calls++
	if r.down {
		return d, errors.New("target down")
	}
	r.saved = append(r.saved, d...)
	return nil, nil
}

func TestGenericSaveBuffersAndResends(t *testing.T) {
	b := newTestBuffer(t)
	r := &recorder{down: true}

	require.False(t, genericSave(testData("A", "B"), nil, r.save, b))
	buffered, err := fetchFromBuffer[mqc.Data](b, 10)
	require.NoError(t, err)
	require.Len(t, buffered, 2)

	r.down = false
	require.True(t, genericSave(testData("C", "D"), nil, r.save, b))
	require.Equal(t, 3, r.calls)
	require.Len(t, r.saved, 4)

	buffered, err = fetchFromBuffer[mqc.Data](b, 10)
	require.NoError(t, err)
	require.Empty(t, buffered)
}

func TestGenericSaveKeepsFailedResends(t *testing.T) {
	b := newTestBuffer(t)
	old := testData("A", "B")
	require.NoError(t, saveToBuffer(b, old))

	calls := 0
	save := func(d []mqc.Data) ([]mqc.Data, error) {
		calls++
		if calls == 1 {
			return nil, nil
		}
		// re-send of the buffered values fails for B only
		var failed []mqc.Data
		for _, D := range d {
			if D.ArtifactPath == "B" {
				failed = append(failed, D)
			}
		}
		return failed, errors.New("partial failure")
	}

	require.True(t, genericSave(testData("X", "Y"), nil, save, b))
	buffered, err := fetchFromBuffer[mqc.Data](b, 10)
	require.NoError(t, err)
	require.Len(t, buffered, 1)
	require.Equal(t, "B", buffered[0].ArtifactPath)
}

func TestGenericSaveFilter(t *testing.T) {
	r := &recorder{}
	f, err := filter.NewFilter(filter.FilterConfig{Type: filter.ARTIFACT_FILTER, Rules: []filter.Rule{{Apply: true, Regex: "^a$"}}})
	require.NoError(t, err)

	require.True(t, genericSave(testData("A", "B", "a"), f, r.save, nil))
	require.Len(t, r.saved, 2)

	r = &recorder{}
	require.True(t, genericSave(testData("B"), f, r.save, nil))
	require.Zero(t, r.calls)
}

func TestShipped(t *testing.T) {
	all := testData("A", "B", "C")
	require.Equal(t, all, shipped(all, nil))
	require.Equal(t, []mqc.Data{all[0], all[2]}, shipped(all, all[1:2]))
	require.Empty(t, shipped(all, all))
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	p := NewPrint("print_test", STDOUT)
	p.out = &out
	p.SetFilter(filter.NewEmptyFilter())
	p.PrepareMetrics([]string{mqc.DATA, mqc.FINDING})

	require.True(t, p.SaveData(testData("A", "B")))
	require.True(t, p.SaveFindings(testFindings("A")))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Source: Fisenko; Measurement: English; Measure: Quotes.Count; Artifact: A; Time: 2024-05-01T12:00:00Z; Value: 1", lines[0])
	require.Contains(t, lines[2], "Subject: Quote Quote/0")
	require.Contains(t, lines[2], "State: Available")
	require.Contains(t, lines[2], "Description: quote A")

	require.Equal(t, float64(2), testutil.ToFloat64(shippingOperations.WithLabelValues("print_test", "print", mqc.DATA)))
	require.Equal(t, float64(0), testutil.ToFloat64(shippingErrors.WithLabelValues("print_test", "print", mqc.DATA)))
}

func TestPrintFailure(t *testing.T) {
	p := NewPrint("print_failure_test", STDERR)
	p.out = errWriter{}
	p.InitBuffer(t.TempDir(), 1)
	t.Cleanup(p.Cleanup)

	require.False(t, p.SaveData(testData("A")))
	require.Equal(t, float64(1), testutil.ToFloat64(shippingErrors.WithLabelValues("print_failure_test", "print", mqc.DATA)))

	buffered, err := fetchFromBuffer[mqc.Data](p.buffer, 10)
	require.NoError(t, err)
	require.Equal(t, testData("A"), buffered)
}
