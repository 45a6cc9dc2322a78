package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/filter"
)

const (
	DEFAULT_CONFIG      = "/etc/mqcd.yaml"
	DEFAULT_WORKING_DIR = "/var/lib/mqcd"
	DEFAULT_TIMEOUT     = 60
)

type MQCConf struct {
	LogLevel    string              `yaml:"log_level"`
	LogFormat   string              `yaml:"log_format"`
	PluginsDir  string              `yaml:"plugins_dir"`
	WorkingDir  string              `yaml:"working_dir"`
	Timeout     int                 `yaml:"timeout"` // seconds a single cycle may take
	Filter      filter.FilterConfig `yaml:"filter"`
	DataSources []DataSource        `yaml:"data_sources"`
	Files       []File              `yaml:"files"`
	Targets     []Target            `yaml:"targets"`
	slogLevel   slog.Level
}

// DataSource binds a connector to its configuration.
type DataSource struct {
	Name           string         `yaml:"name"`
	Adapter        string         `yaml:"adapter"`
	ImportFindings bool           `yaml:"import_findings"`
	Configuration  map[string]any `yaml:"configuration"`
}

// ConfigurationJSON returns the adapter configuration in the form connectors expect.
func (ds DataSource) ConfigurationJSON() ([]byte, error) {
	if ds.Configuration == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(ds.Configuration)
	if err != nil {
		return nil, fmt.Errorf("data source %s: cannot encode configuration: %w", ds.Name, err)
	}
	return raw, nil
}

// File binds a file reader to a report file.
type File struct {
	Name   string `yaml:"name"`
	Reader string `yaml:"reader"`
	Path   string `yaml:"path"`
}

func ParseMQCConfig(path string) (conf MQCConf, err error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("cannot read MQC config file: %w", err)
	}
	return ParseMQCConfigBytes(file)
}

func ParseMQCConfigBytes(raw []byte) (conf MQCConf, err error) {
	conf = MQCConf{}
	if err = yaml.Unmarshal(raw, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse MQC config: %w", err)
	}

	if err = conf.setLogLevel(); err != nil {
		return conf, err
	}
	conf.setWorkingDir()
	conf.setTimeout()
	conf.setOfflineBuffers()
	conf.setSources()

	return conf, conf.validate()
}

func (mc *MQCConf) setLogLevel() (err error) {
	mc.slogLevel, err = logger.ParseLevel(mc.LogLevel)
	return
}

func (mc *MQCConf) GetLogLevel() slog.Level {
	return mc.slogLevel
}

func (mc *MQCConf) setWorkingDir() {
	if mc.WorkingDir == "" {
		mc.WorkingDir = DEFAULT_WORKING_DIR
	}
}

func (mc *MQCConf) setTimeout() {
	if mc.Timeout <= 0 {
		mc.Timeout = DEFAULT_TIMEOUT
	}
}

func (mc *MQCConf) GetTimeout() time.Duration {
	return time.Duration(mc.Timeout) * time.Second
}

func (mc *MQCConf) setOfflineBuffers() {
	for i := range mc.Targets {
		if mc.Targets[i].OfflineBufferTime < 0 {
			mc.Targets[i].OfflineBufferTime = 0
		}
	}
}

func (mc *MQCConf) setSources() {
	for i := range mc.Targets {
		mc.Targets[i].setSource()
	}
}

func (mc *MQCConf) validate() error {
	var errs []error

	sources := make(map[string]bool)
	for i, ds := range mc.DataSources {
		switch {
		case ds.Name == "":
			errs = append(errs, fmt.Errorf("data_sources[%d]: missing name", i))
		case sources[ds.Name]:
			errs = append(errs, fmt.Errorf("data_sources[%d]: duplicate name %q", i, ds.Name))
		}
		if ds.Adapter == "" {
			errs = append(errs, fmt.Errorf("data_sources[%d]: missing adapter", i))
		}
		sources[ds.Name] = true
	}

	files := make(map[string]bool)
	for i, f := range mc.Files {
		switch {
		case f.Name == "":
			errs = append(errs, fmt.Errorf("files[%d]: missing name", i))
		case files[f.Name]:
			errs = append(errs, fmt.Errorf("files[%d]: duplicate name %q", i, f.Name))
		}
		if f.Reader == "" || f.Path == "" {
			errs = append(errs, fmt.Errorf("files[%d]: reader and path are required", i))
		}
		files[f.Name] = true
	}

	targets := make(map[string]bool)
	for i, t := range mc.Targets {
		if err := t.validate(); err != nil {
			errs = append(errs, fmt.Errorf("targets[%d]: %w", i, err))
		}
		if targets[t.Name] {
			errs = append(errs, fmt.Errorf("targets[%d]: duplicate name %q", i, t.Name))
		}
		targets[t.Name] = true
	}

	if _, err := filter.NewFilter(mc.Filter); err != nil {
		errs = append(errs, fmt.Errorf("filter: %w", err))
	}

	return errors.Join(errs...)
}

// DataSource returns the data source with the given name.
func (mc *MQCConf) DataSource(name string) (DataSource, bool) {
	for _, ds := range mc.DataSources {
		if ds.Name == name {
			return ds, true
		}
	}
	return DataSource{}, false
}

// File returns the file with the given name.
func (mc *MQCConf) File(name string) (File, bool) {
	for _, f := range mc.Files {
		if f.Name == name {
			return f, true
		}
	}
	return File{}, false
}
