package esgf

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coecms/clef/internal/transport"
	"github.com/coecms/clef/pkg/constants"
	"github.com/coecms/clef/pkg/logging"
)

// Searcher runs catalog searches.
type Searcher interface {
	Search(ctx context.Context, q Query) (*Response, error)
	BrowseURL(q Query) string
}

// Client queries a single ESGF index node. It does not retry or fall
// back to other nodes; a failed request surfaces as an error.
type Client struct {
	http   *transport.Client
	node   string
	logger *zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithNode sets the index node base URL.
func WithNode(node string) ClientOption {
	return func(c *Client) {
		if node != "" {
			c.node = strings.TrimRight(node, "/")
		}
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t *transport.Client) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.http = t
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http = transport.New(transport.WithTimeout(d))
	}
}

// WithLogger sets the client logger.
func WithLogger(l *zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a search client for the default NCI node.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:   transport.New(),
		node:   constants.DefaultNode,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Node returns the index node base URL.
func (c *Client) Node() string {
	return c.node
}

// Search sends q to the node and decodes the response.
func (c *Client) Search(ctx context.Context, q Query) (*Response, error) {
	endpoint := c.node + constants.SearchPath + "?" + q.Params().Encode()
	start := time.Now()

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var out Response
	if err := transport.DecodeResponse(resp, c.node, &out); err != nil {
		return nil, err
	}

	logging.Ctx(ctx, c.logger).Debug().
		Str("type", string(q.Type)).
		Int("found", out.Found()).
		Int("rows", out.Rows()).
		Dur("elapsed", time.Since(start)).
		Msg("catalog search")
	return &out, nil
}

// BrowseURL returns the user-facing search link for q on this node.
func (c *Client) BrowseURL(q Query) string {
	return q.BrowseURL(c.node)
}
