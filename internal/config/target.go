package config

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
)

type Target struct {
	Name              string              `yaml:"name"`
	Type              string              `yaml:"type"`
	Connection        string              `yaml:"connection"`
	OfflineBufferTime int64               `yaml:"offline_buffer_time"` // Time in hours to keep offline buffer
	Filter            filter.FilterConfig `yaml:"filter"`
	Source            []string            `yaml:"source"`
	Options           Options             `yaml:"options"`
}

// setSource ships every record kind when none is configured.
func (t *Target) setSource() {
	if len(t.Source) == 0 {
		t.Source = []string{mqc.DATA, mqc.FINDING}
	}
}

// Ships reports whether records of the given export kind go to the target.
func (t *Target) Ships(export string) bool {
	return slices.Contains(t.Source, export)
}

func (t *Target) validate() error {
	if t.Name == "" {
		return errors.New("missing name")
	}
	if t.Type == "" {
		return fmt.Errorf("target %s: missing type", t.Name)
	}
	for _, s := range t.Source {
		if s != mqc.DATA && s != mqc.FINDING {
			return fmt.Errorf("target %s: unknown source %q", t.Name, s)
		}
	}
	if _, err := filter.NewFilter(t.Filter); err != nil {
		return fmt.Errorf("target %s: %w", t.Name, err)
	}
	return nil
}

// Options holds the target specific settings.
type Options map[string]string

// Get returns the named option or def when it is not set.
func (o Options) Get(name, def string) string {
	if v := o[name]; v != "" {
		return v
	}
	return def
}
