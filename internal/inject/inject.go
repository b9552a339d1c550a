package inject

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/imageloader/internal/endpoint"
	"github.com/dmorgan81/imageloader/internal/handler"
	"github.com/dmorgan81/imageloader/internal/loader"
	"github.com/dmorgan81/imageloader/internal/log"
	"github.com/dmorgan81/imageloader/internal/param"
	"github.com/dmorgan81/imageloader/internal/prompt"
	"github.com/dmorgan81/imageloader/internal/store"
	"github.com/samber/do"
)

// Image generation can take well over the default Lambda client budget.
const httpTimeout = 2 * time.Minute

func Setup(ctx context.Context) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: httpTimeout})

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[store.Uploader](injector, store.NewS3Uploader)
	do.Provide[store.Invalidator](injector, store.NewCloudFrontInvalidator)

	do.ProvideNamed[string](injector, "openai_key", func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, os.Getenv("OPENAI_KEY_PARAM"))
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		return do.MustInvoke[param.Fetcher](i).FetchAll(ctx, os.Getenv("PROMPTS_PARAM"))
	})
	do.ProvideNamedValue[string](injector, "bucket", os.Getenv("BUCKET"))
	do.ProvideNamedValue[string](injector, "distribution", os.Getenv("DISTRIBUTION"))

	do.Provide[endpoint.Endpoint](injector, func(i *do.Injector) (endpoint.Endpoint, error) {
		cfg := endpoint.FromEnv()
		cfg.Key = do.MustInvokeNamed[string](i, "openai_key")
		return cfg, nil
	})
	do.Provide[*loader.Loader](injector, func(i *do.Injector) (*loader.Loader, error) {
		ep := do.MustInvoke[endpoint.Endpoint](i)
		l := loader.New(ep, loader.WithHTTPClient(do.MustInvoke[*http.Client](i)))
		if !l.Configured() {
			log.Warn("image endpoint url is invalid, loads will fail", "url", ep.URL())
		}
		return l, nil
	})

	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}
