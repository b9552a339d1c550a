package endpoint

import (
	"os"

	"github.com/samber/lo"
)

const (
	DefaultURL  = "https://api.openai.com"
	DefaultPath = "/v1/images/generations"
)

// Endpoint describes where the image generation API lives and how to
// authenticate against it. Values are returned as-is; the loader validates
// the URL when it is constructed.
type Endpoint interface {
	URL() string
	Path() string
	APIKey() string
}

type Config struct {
	BaseURL string
	Route   string
	Key     string
}

func (c Config) URL() string    { return c.BaseURL }
func (c Config) Path() string   { return c.Route }
func (c Config) APIKey() string { return c.Key }

func FromEnv() Config {
	return Config{
		BaseURL: lo.Ternary(os.Getenv("OPENAI_BASE_URL") != "", os.Getenv("OPENAI_BASE_URL"), DefaultURL),
		Route:   lo.Ternary(os.Getenv("OPENAI_IMAGES_PATH") != "", os.Getenv("OPENAI_IMAGES_PATH"), DefaultPath),
		Key:     os.Getenv("OPENAI_API_KEY"),
	}
}
