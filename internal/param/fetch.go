package param

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var ErrNotFound = errors.New("parameter not found")

// Fetcher resolves configuration values such as the API key and the prompt
// list from a parameter store.
type Fetcher interface {
	Fetch(context.Context, string) (string, error)
	FetchAll(context.Context, string) ([]string, error)
}

// EnvFetcher reads values straight from the environment. FetchAll returns
// the single value at name, if any.
type EnvFetcher struct{}

func (EnvFetcher) Fetch(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return v, nil
}

func (f EnvFetcher) FetchAll(ctx context.Context, name string) ([]string, error) {
	v, err := f.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return []string{v}, nil
}
