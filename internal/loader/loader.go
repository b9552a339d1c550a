package loader

import (
	"context"
	"errors"
	"fmt"
	stdimage "image"
	"net/http"
	"net/url"

	"github.com/dmorgan81/imageloader/internal/endpoint"
	"github.com/dmorgan81/imageloader/internal/image"
	"github.com/dmorgan81/imageloader/internal/log"
	"github.com/dmorgan81/imageloader/internal/transport"
)

var ErrClientNotConfigured = errors.New("client not configured")

// state is either ready or unconfigured for the lifetime of a Loader.
type state interface {
	client() (transport.Client, error)
}

type ready struct{ c transport.Client }

func (s ready) client() (transport.Client, error) { return s.c, nil }

type unconfigured struct{ err error }

func (s unconfigured) client() (transport.Client, error) { return nil, s.err }

type Option func(*options)

type options struct {
	httpClient *http.Client
	decoder    image.Decoder
	transport  func(*url.URL) transport.Client
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func WithDecoder(d image.Decoder) Option {
	return func(o *options) { o.decoder = d }
}

// WithTransport replaces the HTTP transport built for the parsed base URL.
func WithTransport(f func(*url.URL) transport.Client) Option {
	return func(o *options) { o.transport = f }
}

// Loader generates an image for a prompt through a single endpoint. It holds
// no per-call state and is safe for concurrent use.
type Loader struct {
	endpoint endpoint.Endpoint
	decoder  image.Decoder
	state    state
}

func New(ep endpoint.Endpoint, opts ...Option) *Loader {
	o := options{decoder: image.StdDecoder{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = func(base *url.URL) transport.Client {
			return transport.New(base, o.httpClient)
		}
	}

	l := &Loader{endpoint: ep, decoder: o.decoder}
	base, err := parseBaseURL(ep.URL())
	if err != nil {
		l.state = unconfigured{fmt.Errorf("%w: %w", ErrClientNotConfigured, err)}
		return l
	}
	l.state = ready{o.transport(base)}
	return l
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

// Configured reports whether the base URL parsed at construction.
func (l *Loader) Configured() bool {
	_, err := l.state.client()
	return err == nil
}

// Load requests one image for prompt and decodes it. Transport errors are
// returned unchanged.
func (l *Loader) Load(ctx context.Context, prompt string, size image.Size) (stdimage.Image, error) {
	body := image.NewRequest(prompt, size)
	headers := map[string]string{"Authorization": "Bearer " + l.endpoint.APIKey()}

	client, err := l.state.client()
	if err != nil {
		return nil, err
	}

	log.FromContextOrDiscard(ctx).WithGroup("loader").
		Info("loading image", "path", l.endpoint.Path(), "size", size)

	var resp image.Response
	if err := client.Post(ctx, l.endpoint.Path(), body, headers, &resp); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return image.Decode(resp, l.decoder)
}
