package observer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
)

type capturedRequest struct {
	method string
	path   string
	body   string
}

// capture starts a server answering with status and recording every request.
func capture(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	var mu sync.Mutex
	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{r.Method, r.URL.Path, string(body)})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func TestPushGateway(t *testing.T) {
	srv, requests := capture(t, http.StatusOK)

	pg, err := NewPushGateway("pg_test", srv.URL, map[string]string{"instance": "test"})
	require.NoError(t, err)
	require.Equal(t, DEFAULT_JOB_NAME, pg.job)

	require.True(t, pg.SaveData(testData("A", "B")))
	require.True(t, pg.SaveFindings(testFindings("A", "B")))

	got := requests()
	require.Len(t, got, 2)
	require.Equal(t, http.MethodPost, got[0].method)
	require.Equal(t, "/metrics/job/mqc_export/instance/test", got[0].path)
	require.Contains(t, got[0].body, "mqc_data_value")
	require.Contains(t, got[1].body, "mqc_findings")
}

func TestPushGatewayFailure(t *testing.T) {
	srv, _ := capture(t, http.StatusInternalServerError)

	pg, err := NewPushGateway("pg_failure_test", srv.URL, nil)
	require.NoError(t, err)
	require.False(t, pg.SaveData(testData("A")))

	_, err = NewPushGateway("pg_invalid", "not a url", nil)
	require.Error(t, err)
}

func TestRemoteWrite(t *testing.T) {
	srv, requests := capture(t, http.StatusNoContent)

	prw, err := NewPrometheusRemoteWrite("prw_test", srv.URL+"/api/v1/write", map[string]string{"timeout": "5s"})
	require.NoError(t, err)
	require.True(t, prw.SaveData(testData("A")))
	require.True(t, prw.SaveFindings(testFindings("A")))

	got := requests()
	require.Len(t, got, 1)
	require.Equal(t, http.MethodPost, got[0].method)
	require.Equal(t, "/api/v1/write", got[0].path)

	failing, _ := capture(t, http.StatusServiceUnavailable)
	prw, err = NewPrometheusRemoteWrite("prw_failure_test", failing.URL, nil)
	require.NoError(t, err)
	require.False(t, prw.SaveData(testData("A")))

	_, err = NewPrometheusRemoteWrite("prw_invalid", srv.URL, map[string]string{"timeout": "soon"})
	require.Error(t, err)
}

func TestDataToWriteRequest(t *testing.T) {
	d := testData("B", "A")
	later := d[1]
	later.DateTime = testTime.Add(-time.Minute)
	later.Value = 7
	d = append(d, later)

	wr := dataToWriteRequest(d)
	require.Len(t, wr.Timeseries, 2)

	a := wr.Timeseries[0]
	require.Equal(t, "artifact", a.Labels[1].Name)
	require.Equal(t, "A", a.Labels[1].Value)
	require.Len(t, a.Samples, 2)
	require.Equal(t, float64(7), a.Samples[0].Value)
	require.Less(t, a.Samples[0].Timestamp, a.Samples[1].Timestamp)

	for i := 1; i < len(a.Labels); i++ {
		require.Less(t, a.Labels[i-1].Name, a.Labels[i].Name)
	}
}

func TestSeriesBatches(t *testing.T) {
	d := testData("A", "B")
	again := d[0]
	again.DateTime = testTime.Add(time.Hour)
	d = append(d, again)

	batches := seriesBatches(d)
	require.Len(t, batches, 2)
	require.Len(t, batches[0], 2)
	require.Equal(t, again, batches[1][0])

	many := make([]mqc.Data, 0, GCP_MAX_SERIES+1)
	for i := 0; i <= GCP_MAX_SERIES; i++ {
		many = append(many, mqc.Data{ArtifactPath: strings.Repeat("x", i+1), DateTime: testTime})
	}
	batches = seriesBatches(many)
	require.Len(t, batches, 2)
	require.Len(t, batches[0], GCP_MAX_SERIES)

	require.Empty(t, seriesBatches(nil))
}

func TestTimeSeries(t *testing.T) {
	D := testData("A")[0]
	ts := newTimeSeries(newResource(), D)
	require.Equal(t, GCP_DATA_TYPE, ts.Metric.Type)
	require.Equal(t, "A", ts.Metric.Labels["artifact"])
	require.Equal(t, D.DateTime.Unix(), ts.Points[0].Interval.EndTime.Seconds)
	require.Equal(t, float64(1), ts.Points[0].Value.GetDoubleValue())
	require.Len(t, dataLabelDescriptors(), len(dataLabels))
}

func TestAzureEntities(t *testing.T) {
	D := testData("a/b#c")[0]
	e := newDataEntity(D)
	require.Equal(t, "Fisenko_English_Quotes_Count_a_b_c", e.PartitionKey)
	require.Equal(t, "2024-05-01T12:00:00.000Z", e.DateTime)

	F := testFindings("A")[0]
	fe, err := newFindingEntity(F)
	require.NoError(t, err)
	require.Equal(t, "Fisenko.A", fe.PartitionKey)
	require.Equal(t, "Quote/0", fe.SubjectPath)
	require.Contains(t, fe.Data, `"artifactPath":"A"`)

	F.Data = nil
	fe, err = newFindingEntity(F)
	require.NoError(t, err)
	require.Empty(t, fe.Data)

	az, err := NewAzureTable("az_test", "https://account.table.core.windows.net/?sv=2019", map[string]string{"data_table": "quotes"})
	require.NoError(t, err)
	require.NotNil(t, az.d)
}

func TestNewObserver(t *testing.T) {
	obs, err := NewObserver(config.Target{
		Name:              "stdout",
		Type:              PRINT,
		Source:            []string{mqc.DATA},
		OfflineBufferTime: 1,
		Filter:            filter.FilterConfig{Type: filter.SOURCE_FILTER, Accepted: []string{"Fisenko"}},
	}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(obs.Cleanup)

	p, ok := obs.(*Print)
	require.True(t, ok)
	require.Equal(t, "stdout", p.GetName())
	require.True(t, p.buffer.Enabled())
	require.NotNil(t, p.localFilter)

	tests := []struct {
		name   string
		target config.Target
	}{
		{"Unknown type", config.Target{Name: "t", Type: "FNORD"}},
		{"Invalid filter", config.Target{Name: "t", Type: PRINT, Filter: filter.FilterConfig{Type: "FNORD"}}},
		{"Invalid pushgateway url", config.Target{Name: "t", Type: PROMETHEUS_PUSHGATEWAY, Connection: "::"}},
		{"Unreachable database", config.Target{Name: "t", Type: PSQL_TARGET, Connection: "postgres://mqc@127.0.0.1:1/mqc?sslmode=disable&connect_timeout=1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewObserver(tt.target, t.TempDir())
			require.Error(t, err)
		})
	}
}
