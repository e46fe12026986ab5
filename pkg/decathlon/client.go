package decathlon

import (
	"context"
	"fmt"
	"net/url"
	"pesterer/pkg/logger"
	"pesterer/pkg/models"
	"time"

	"github.com/gocolly/colly/v2"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client fetches availability over plain HTTP with a colly collector.
type Client struct {
	Collector *colly.Collector
	Endpoint  string
	Now       func() time.Time
}

type Options struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
}

func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	return &Client{
		Collector: c,
		Endpoint:  opts.Endpoint,
		Now:       time.Now,
	}
}

// Fetch asks the endpoint for product at store and normalizes the answer.
func (cl *Client) Fetch(ctx context.Context, product models.Product, store models.Store) (models.Reading, error) {
	target, err := BuildURL(cl.Endpoint, store.FullID, product.ID, cl.Now())
	if err != nil {
		return models.Reading{}, err
	}
	if u, err := url.Parse(target); err == nil {
		logger.Dedup("fetching availability from %s", u.Host)
	}

	// callbacks are per collector, so every request gets its own clone
	c := cl.Collector.Clone()
	c.Context = ctx

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(target); err != nil {
		return models.Reading{}, fmt.Errorf("GET %s: %w", target, err)
	}
	if body == nil {
		return models.Reading{}, fmt.Errorf("GET %s: empty response", target)
	}

	return Decode(body, product.ID, store)
}
