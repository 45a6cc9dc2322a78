package exampleapi

import (
	"encoding/json"
	"fmt"

	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/quotes"
)

// AllowedURL is the only API root the connector accepts.
const AllowedURL = "https://api.fisenko.net"

// Configuration is the adapter configuration of a data source.
type Configuration struct {
	URL           string        `json:"url"`
	AuthorFilters []filter.Rule `json:"authorFilters"`
}

// ParseConfiguration decodes the JSON configuration of a data source.
// Missing author filters default to a single include-all rule.
func ParseConfiguration(raw []byte) (Configuration, error) {
	var conf Configuration
	if len(raw) == 0 {
		return conf, fmt.Errorf("%w: empty configuration", quotes.ErrConfig)
	}
	if err := json.Unmarshal(raw, &conf); err != nil {
		return conf, fmt.Errorf("%w: %v", quotes.ErrConfig, err)
	}
	if len(conf.AuthorFilters) == 0 {
		conf.AuthorFilters = filter.DefaultRules()
	}
	return conf, nil
}

// Chain compiles the author filters.
func (c Configuration) Chain() (*filter.Chain, error) {
	chain, err := filter.NewChain(c.AuthorFilters)
	if err != nil {
		return nil, fmt.Errorf("%w: author filters: %v", quotes.ErrConfig, err)
	}
	return chain, nil
}
