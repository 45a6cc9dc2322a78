package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
)

const sampleConfig = `
log_level: debug
plugins_dir: /usr/lib/mqcd/plugins
data_sources:
  - name: quotes
    adapter: exampleapi
    import_findings: true
    configuration:
      url: https://api.fisenko.net
      authorFilters:
        - regex: twain
        - apply: false
          regex: "^mark"
files:
  - name: report
    reader: xmlreader
    path: /data/Report.Example.xml
targets:
  - name: stdout
    type: print
  - name: db
    type: psql
    connection: postgres://mqc@localhost/mqc
    source: [data]
    offline_buffer_time: -3
    filter:
      type: artifact
      rules:
        - regex: "^a"
`

func TestParseMQCConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqcd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	conf, err := ParseMQCConfig(path)
	require.NoError(t, err)

	require.Equal(t, slog.LevelDebug, conf.GetLogLevel())
	require.Equal(t, DEFAULT_WORKING_DIR, conf.WorkingDir)
	require.Equal(t, DEFAULT_TIMEOUT*time.Second, conf.GetTimeout())
	require.Len(t, conf.DataSources, 1)
	require.Len(t, conf.Targets, 2)

	ds, ok := conf.DataSource("quotes")
	require.True(t, ok)
	require.True(t, ds.ImportFindings)

	raw, err := ds.ConfigurationJSON()
	require.NoError(t, err)

	var decoded struct {
		URL           string        `json:"url"`
		AuthorFilters []filter.Rule `json:"authorFilters"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "https://api.fisenko.net", decoded.URL)
	require.Equal(t, []filter.Rule{{Apply: true, Regex: "twain"}, {Apply: false, Regex: "^mark"}}, decoded.AuthorFilters)

	f, ok := conf.File("report")
	require.True(t, ok)
	require.Equal(t, "xmlreader", f.Reader)

	_, ok = conf.File("missing")
	require.False(t, ok)

	require.Equal(t, []string{mqc.DATA, mqc.FINDING}, conf.Targets[0].Source)
	require.True(t, conf.Targets[1].Ships(mqc.DATA))
	require.False(t, conf.Targets[1].Ships(mqc.FINDING))
	require.Equal(t, int64(0), conf.Targets[1].OfflineBufferTime)
	require.Equal(t, []filter.Rule{{Apply: true, Regex: "^a"}}, conf.Targets[1].Filter.Rules)
}

func TestParseMQCConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"Not yaml", "targets: [\n"},
		{"Unknown log level", "log_level: FNORD"},
		{"Data source without adapter", "data_sources:\n  - name: q\n"},
		{"Duplicate data source", "data_sources:\n  - {name: q, adapter: a}\n  - {name: q, adapter: a}\n"},
		{"File without path", "files:\n  - {name: r, reader: xmlreader}\n"},
		{"Target without type", "targets:\n  - name: t\n"},
		{"Unknown target source", "targets:\n  - {name: t, type: print, source: [trends]}\n"},
		{"Invalid target filter", "targets:\n  - name: t\n    type: print\n    filter: {type: artifact, rules: [{regex: '('}]}\n"},
		{"Unknown global filter", "filter: {type: FNORD}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMQCConfigBytes([]byte(tt.config))
			require.Error(t, err)
		})
	}

	_, err := ParseMQCConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSetTimeout(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"Zero", 0, DEFAULT_TIMEOUT},
		{"Negative", -5, DEFAULT_TIMEOUT},
		{"Non-Zero", 1337, 1337},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := MQCConf{Timeout: tt.input}
			config.setTimeout()
			require.Equal(t, tt.expected, config.Timeout)
		})
	}
}

func TestSetWorkingDir(t *testing.T) {
	config := MQCConf{}
	config.setWorkingDir()
	require.Equal(t, DEFAULT_WORKING_DIR, config.WorkingDir)

	config = MQCConf{WorkingDir: "/tmp/mqc"}
	config.setWorkingDir()
	require.Equal(t, "/tmp/mqc", config.WorkingDir)
}

func TestMQCConf_setOfflineBuffers(t *testing.T) {
	tests := []struct {
		name     string
		targets  []Target
		expected []int64
	}{
		{
			name:     "All positive values",
			targets:  []Target{{OfflineBufferTime: 10}, {OfflineBufferTime: 5}},
			expected: []int64{10, 5},
		},
		{
			name:     "All negative values",
			targets:  []Target{{OfflineBufferTime: -1}, {OfflineBufferTime: -100}},
			expected: []int64{0, 0},
		},
		{
			name:     "Mixed values",
			targets:  []Target{{OfflineBufferTime: -5}, {OfflineBufferTime: 0}, {OfflineBufferTime: 7}},
			expected: []int64{0, 0, 7},
		},
		{
			name:     "Empty targets",
			targets:  []Target{},
			expected: []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &MQCConf{
				Targets: tt.targets,
			}
			conf.setOfflineBuffers()
			for i, target := range conf.Targets {
				require.Equal(t, tt.expected[i], target.OfflineBufferTime)
			}
		})
	}
}

func TestOptionsGet(t *testing.T) {
	opts := Options{"job": "mqc", "empty": ""}
	require.Equal(t, "mqc", opts.Get("job", "default"))
	require.Equal(t, "default", opts.Get("empty", "default"))
	require.Equal(t, "default", opts.Get("missing", "default"))

	var none Options
	require.Equal(t, "default", none.Get("job", "default"))
}

func TestConfigurationJSONEmpty(t *testing.T) {
	raw, err := DataSource{Name: "q"}.ConfigurationJSON()
	require.NoError(t, err)
	require.JSONEq(t, "{}", string(raw))
}
