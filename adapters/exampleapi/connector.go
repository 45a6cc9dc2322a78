// Package exampleapi implements the Example API connector. It counts the
// english quotes of the Fisenko quotes API per author.
package exampleapi

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"mqc.szuro.net/pkg/adapter"
	"mqc.szuro.net/pkg/filter"
	"mqc.szuro.net/pkg/mqc"
	"mqc.szuro.net/pkg/quotes"
)

const (
	PLUGIN_NAME = "exampleapi"

	PREVIEW_QUOTES  = "Quotes"
	PREVIEW_AUTHORS = "Authors"

	// previewLimit bounds the number of quotes fetched for a preview.
	previewLimit = 100
)

var _ adapter.Connector = (*Connector)(nil)

func init() {
	adapter.RegisterErrors(quotes.ErrConfig, quotes.ErrNetwork, quotes.ErrDecode)
}

type Connector struct {
	adapter.Base

	// Now stamps the records of a read.
	Now func() time.Time

	// ClientOptions are passed to every quotes client.
	ClientOptions []quotes.Option
}

func New() *Connector {
	return &Connector{
		Base: adapter.NewBase(PLUGIN_NAME),
		Now:  time.Now,
	}
}

func (c *Connector) Info() adapter.Info {
	return adapter.Info{
		Name:        "Example API",
		Description: "This is an example API adapter",
		Version:     "8.3.0",
	}
}

func (c *Connector) client(conf Configuration) (*quotes.Client, error) {
	return quotes.NewClient(conf.URL, c.ClientOptions...)
}

// CheckAvailable requests a single quote.
func (c *Connector) CheckAvailable(ctx context.Context, cc adapter.ConnectorContext) bool {
	conf, err := ParseConfiguration(cc.Configuration)
	if err != nil {
		return false
	}
	client, err := c.client(conf)
	if err != nil {
		return false
	}
	if _, err := client.Quotes(ctx, 1); err != nil {
		c.Log().Debug("Source unavailable", slog.String("url", conf.URL), slog.Any("error", err))
		return false
	}
	return true
}

// CheckModified always returns false, the quotes never change.
func (c *Connector) CheckModified(ctx context.Context, cc adapter.ConnectorContext) bool {
	return false
}

// Read fetches all quotes, drops the ones rejected by the author filters and
// counts the remaining ones per author.
func (c *Connector) Read(ctx context.Context, cc adapter.ConnectorContext) (*mqc.ReadResult, error) {
	conf, err := ParseConfiguration(cc.Configuration)
	if err != nil {
		return nil, err
	}
	chain, err := conf.Chain()
	if err != nil {
		return nil, err
	}
	client, err := c.client(conf)
	if err != nil {
		return nil, err
	}

	fetched, err := client.Quotes(ctx, 0)
	if err != nil {
		c.Log().Error("Failed to fetch quotes", slog.String("url", conf.URL), slog.Any("error", err))
		return nil, err
	}

	retained := filter.Apply(chain, fetched, quotes.Quote.AuthorName)
	data, findings := quotes.NewAggregator(cc.ImportFindings).Aggregate(retained, c.now())

	result := mqc.NewReadResult()
	result.Data = append(result.Data, data...)
	result.Findings = append(result.Findings, findings...)

	c.Log().Debug("Read quotes",
		slog.Int("fetched", len(fetched)),
		slog.Int("retained", len(retained)),
		slog.Int("authors", len(data)))
	return result, nil
}

func (c *Connector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// ConfigureForm validates a configuration. The form itself is never modified.
func (c *Connector) ConfigureForm(ctx context.Context, configuration []byte, modifiedFields []string) []mqc.FormError {
	conf, err := ParseConfiguration(configuration)
	if err != nil {
		return []mqc.FormError{{
			Message:     "Invalid configuration",
			Description: err.Error(),
		}}
	}

	formErrors := []mqc.FormError{}
	if conf.URL != AllowedURL {
		formErrors = append(formErrors, mqc.FormError{
			Field:       "url",
			Message:     "Url has to be " + AllowedURL,
			Description: "Only the Fisenko Quotes API is supported",
		})
	}
	for i, rule := range conf.AuthorFilters {
		if _, err := rule.Compile(); err != nil {
			formErrors = append(formErrors, mqc.FormError{
				Field:       fmt.Sprintf("authorFilters.%d.regex", i),
				Message:     "Invalid regular expression",
				Description: err.Error(),
			})
		}
	}
	return formErrors
}

// GetPreview loads up to 100 quotes for the Quotes or Authors preview.
// The total is 0 when the limit was hit, as the real number is unknown.
func (c *Connector) GetPreview(ctx context.Context, cc adapter.ConnectorContext, preview string) ([]mqc.FormPreview, int, error) {
	if preview != PREVIEW_QUOTES && preview != PREVIEW_AUTHORS {
		return []mqc.FormPreview{}, 0, nil
	}

	conf, err := ParseConfiguration(cc.Configuration)
	if err != nil {
		return nil, 0, err
	}
	chain, err := conf.Chain()
	if err != nil {
		return nil, 0, err
	}
	client, err := c.client(conf)
	if err != nil {
		return nil, 0, err
	}

	fetched, err := client.Quotes(ctx, previewLimit)
	if err != nil {
		return nil, 0, err
	}

	switch preview {
	case PREVIEW_QUOTES:
		previews, total := quotesPreview(chain, fetched)
		return previews, total, nil
	default:
		previews, total := authorsPreview(chain, fetched)
		return previews, total, nil
	}
}

func cappedTotal(n int) int {
	if n == previewLimit {
		return 0
	}
	return n
}

func quotesPreview(chain *filter.Chain, fetched []quotes.Quote) ([]mqc.FormPreview, int) {
	retained := filter.Apply(chain, fetched, quotes.Quote.AuthorName)
	previews := make([]mqc.FormPreview, 0, len(retained))
	for _, q := range retained {
		previews = append(previews, mqc.FormPreview{
			Title:       q.AuthorName(),
			Description: q.Text,
		})
	}
	return previews, cappedTotal(len(fetched))
}

func authorsPreview(chain *filter.Chain, fetched []quotes.Quote) ([]mqc.FormPreview, int) {
	seen := make(map[string]struct{}, len(fetched))
	authors := make([]string, 0, len(fetched))
	for _, q := range fetched {
		if _, ok := seen[q.AuthorName()]; ok {
			continue
		}
		seen[q.AuthorName()] = struct{}{}
		authors = append(authors, q.AuthorName())
	}
	total := cappedTotal(len(authors))

	retained := filter.Apply(chain, authors, func(s string) string { return s })
	slices.Sort(retained)

	previews := make([]mqc.FormPreview, 0, len(retained))
	for _, a := range retained {
		previews = append(previews, mqc.FormPreview{Title: a})
	}
	return previews, total
}
