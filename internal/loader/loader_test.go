package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	stdimage "image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/dmorgan81/imageloader/internal/endpoint"
	"github.com/dmorgan81/imageloader/internal/image"
	"github.com/dmorgan81/imageloader/internal/transport"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
)

type stubTransport struct {
	resp  image.Response
	err   error
	calls int
	path  string
	body  any
	hdrs  map[string]string
}

func (s *stubTransport) Post(_ context.Context, path string, body any, headers map[string]string, out any) error {
	s.calls++
	s.path, s.body, s.hdrs = path, body, headers
	if s.err != nil {
		return s.err
	}
	*out.(*image.Response) = s.resp
	return nil
}

func withStub(s *stubTransport) Option {
	return WithTransport(func(*url.URL) transport.Client { return s })
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stdimage.NewGray(stdimage.Rect(0, 0, w, h))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

var testEndpoint = endpoint.Config{
	BaseURL: "https://api.example.com",
	Route:   "/v1/images/generations",
	Key:     "sk-test",
}

func TestLoadMalformedBaseURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "://missing-scheme", "http://bad host", "ftp://example.com", "https://"} {
		t.Run(raw, func(t *testing.T) {
			stub := &stubTransport{}
			built := false
			l := New(endpoint.Config{BaseURL: raw, Route: "/x", Key: "k"},
				WithTransport(func(*url.URL) transport.Client {
					built = true
					return stub
				}))

			require.False(t, l.Configured())
			for i := 0; i < 2; i++ {
				_, err := l.Load(context.Background(), "a cat", image.SizeMedium)
				require.ErrorIs(t, err, ErrClientNotConfigured)
			}
			require.False(t, built)
			require.Zero(t, stub.calls)
		})
	}
}

func TestLoadMalformedBaseURLMakesNoNetworkCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	l := New(endpoint.Config{BaseURL: "http://bad host", Route: "/", Key: "k"}, WithHTTPClient(srv.Client()))
	_, err := l.Load(context.Background(), "a cat", image.SizeSmall)
	require.ErrorIs(t, err, ErrClientNotConfigured)
	require.Zero(t, hits.Load())
}

func TestLoadRequestShape(t *testing.T) {
	var body []byte
	var auth, path string
	payload := pngBase64(t, 1, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(image.Response{Data: []image.Datum{{B64JSON: payload}}})
	}))
	defer srv.Close()

	for _, size := range []image.Size{image.SizeSmall, image.SizeMedium, image.SizeLarge} {
		l := New(endpoint.Config{BaseURL: srv.URL, Route: "/v1/images/generations", Key: "sk-test"},
			WithHTTPClient(srv.Client()))
		_, err := l.Load(context.Background(), "a cat in a hat", size)
		require.NoError(t, err)

		require.JSONEq(t, `{"prompt":"a cat in a hat","size":"`+string(size)+`","response_format":"b64_json","n":1}`, string(body))
		require.Equal(t, "Bearer sk-test", auth)
		require.Equal(t, "/v1/images/generations", path)
	}
}

func TestLoadPassesRequestToTransport(t *testing.T) {
	stub := &stubTransport{resp: image.Response{Data: []image.Datum{{B64JSON: pngBase64(t, 1, 1)}}}}
	_, err := New(testEndpoint, withStub(stub)).Load(context.Background(), "a cat", image.SizeMedium)
	require.NoError(t, err)

	require.Equal(t, 1, stub.calls)
	require.Equal(t, "/v1/images/generations", stub.path)
	require.Equal(t, image.NewRequest("a cat", image.SizeMedium), stub.body)
	require.Equal(t, map[string]string{"Authorization": "Bearer sk-test"}, stub.hdrs)
}

func TestLoadNoImages(t *testing.T) {
	stub := &stubTransport{resp: image.Response{Data: []image.Datum{}}}
	_, err := New(testEndpoint, withStub(stub)).Load(context.Background(), "a cat", image.SizeMedium)
	require.ErrorIs(t, err, image.ErrNoImagesReturned)
}

func TestLoadMalformedBase64(t *testing.T) {
	stub := &stubTransport{resp: image.Response{Data: []image.Datum{{B64JSON: "%%%not-base64%%%"}}}}
	_, err := New(testEndpoint, withStub(stub)).Load(context.Background(), "a cat", image.SizeMedium)
	require.ErrorIs(t, err, image.ErrImageConstructionFailed)
}

func TestLoadCorruptBitmap(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("GIF89a but not really"))
	stub := &stubTransport{resp: image.Response{Data: []image.Datum{{B64JSON: payload}}}}
	_, err := New(testEndpoint, withStub(stub)).Load(context.Background(), "a cat", image.SizeMedium)
	require.ErrorIs(t, err, image.ErrImageConstructionFailed)
}

func TestLoad(t *testing.T) {
	stub := &stubTransport{resp: image.Response{Data: []image.Datum{{B64JSON: pngBase64(t, 1, 1)}}}}
	l := New(testEndpoint, withStub(stub))
	require.True(t, l.Configured())

	img, err := l.Load(context.Background(), "a cat", image.SizeMedium)
	require.NoError(t, err)
	require.Equal(t, 1, img.Bounds().Dx())
	require.Equal(t, 1, img.Bounds().Dy())
}

func TestLoadUsesFirstImage(t *testing.T) {
	stub := &stubTransport{resp: image.Response{Data: []image.Datum{
		{B64JSON: pngBase64(t, 1, 1)},
		{B64JSON: pngBase64(t, 4, 4)},
	}}}
	img, err := New(testEndpoint, withStub(stub)).Load(context.Background(), "a cat", image.SizeMedium)
	require.NoError(t, err)
	require.Equal(t, stdimage.Rect(0, 0, 1, 1), img.Bounds())
}

func TestLoadTransportErrorUnchanged(t *testing.T) {
	want := &openai.Error{StatusCode: http.StatusTooManyRequests}
	stub := &stubTransport{err: want}
	_, err := New(testEndpoint, withStub(stub)).Load(context.Background(), "a cat", image.SizeMedium)
	require.Same(t, want, err)
}

func TestLoadHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	l := New(endpoint.Config{BaseURL: srv.URL, Route: "/v1/images/generations", Key: "bad"}, WithHTTPClient(srv.Client()))
	_, err := l.Load(context.Background(), "a cat", image.SizeMedium)

	var apiErr *openai.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "invalid key", apiErr.Message)
}

func TestLoadCancelledSkipsDecode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &stubTransport{resp: image.Response{Data: []image.Datum{{B64JSON: pngBase64(t, 1, 1)}}}}
	decoded := false
	dec := image.DecoderFunc(func([]byte) (stdimage.Image, error) {
		decoded = true
		return nil, nil
	})
	l := New(testEndpoint, WithTransport(func(*url.URL) transport.Client {
		return cancellingTransport{stub, cancel}
	}), WithDecoder(dec))

	_, err := l.Load(ctx, "a cat", image.SizeMedium)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, decoded)
}

type cancellingTransport struct {
	*stubTransport
	cancel context.CancelFunc
}

func (c cancellingTransport) Post(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	defer c.cancel()
	return c.stubTransport.Post(ctx, path, body, headers, out)
}

func TestLoadConcurrent(t *testing.T) {
	payload := pngBase64(t, 1, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(image.Response{Data: []image.Datum{{B64JSON: payload}}})
	}))
	defer srv.Close()

	l := New(endpoint.Config{BaseURL: srv.URL, Route: "/v1/images/generations", Key: "sk-test"}, WithHTTPClient(srv.Client()))
	errs := make(chan error, 8)
	for i := 0; i < cap(errs); i++ {
		go func() {
			_, err := l.Load(context.Background(), "a cat", image.SizeSmall)
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		require.NoError(t, <-errs)
	}
}
