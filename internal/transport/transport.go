package transport

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/dmorgan81/imageloader/internal/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/samber/lo"
)

// Client posts a JSON body and decodes the JSON reply into out.
type Client interface {
	Post(ctx context.Context, path string, body any, headers map[string]string, out any) error
}

// OpenAIClient sends requests through the openai-go client. Status errors
// surface as *openai.Error. A query string in path is kept.
type OpenAIClient struct {
	client openai.Client
}

func New(base *url.URL, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithBaseURL(base.String()),
		option.WithMaxRetries(0),
		option.WithMiddleware(logRequests),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)
	// Execute appends per-call options to Options; without spare capacity
	// concurrent calls never share a backing array.
	client.Options = slices.Clip(client.Options)
	return &OpenAIClient{client: client}
}

func (c *OpenAIClient) Post(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	opts := lo.MapToSlice(headers, func(k, v string) option.RequestOption {
		return option.WithHeader(k, v)
	})
	return c.client.Post(ctx, path, body, out, opts...)
}

func logRequests(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	logger := log.FromContextOrDiscard(req.Context()).WithGroup("transport").With("url", req.URL.String())
	logger.Debug("sending request")

	resp, err := next(req)
	if err != nil {
		return resp, err
	}
	logger.Info("received response", "status", resp.StatusCode)
	return resp, nil
}
