package handler

import (
	"context"
	stdimage "image"
	"net/url"
	"time"

	"github.com/dmorgan81/imageloader/internal/image"
	"github.com/dmorgan81/imageloader/internal/loader"
	"github.com/dmorgan81/imageloader/internal/log"
	"github.com/dmorgan81/imageloader/internal/prompt"
	"github.com/dmorgan81/imageloader/internal/store"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const latestKey = "latest.png"

type Input struct {
	Date   string `json:"date,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Size   string `json:"size,omitempty"`
}

type Output struct {
	Date   string `json:"date"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	Key    string `json:"key"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// toMetadata escapes values since S3 user metadata must be US-ASCII.
func (o Output) toMetadata() map[string]string {
	return map[string]string{
		"date":   o.Date,
		"prompt": url.QueryEscape(o.Prompt),
		"size":   o.Size,
	}
}

type ImageLoader interface {
	Load(context.Context, string, image.Size) (stdimage.Image, error)
}

type PromptSource interface {
	Randomize(context.Context) (string, error)
}

type Handler struct {
	prompts     PromptSource
	loader      ImageLoader
	uploader    store.Uploader
	invalidator store.Invalidator
	now         func() time.Time
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return New(
		do.MustInvoke[*prompt.Randomizer](i),
		do.MustInvoke[*loader.Loader](i),
		do.MustInvoke[store.Uploader](i),
		do.MustInvoke[store.Invalidator](i),
	), nil
}

func New(prompts PromptSource, l ImageLoader, u store.Uploader, inv store.Invalidator) *Handler {
	return &Handler{
		prompts:     prompts,
		loader:      l,
		uploader:    u,
		invalidator: inv,
		now:         time.Now,
	}
}

func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("handler").With("input", input)
	log.Info("handling lambda invocation")

	size, err := image.ParseSize(lo.Ternary(input.Size != "", input.Size, string(image.SizeMedium)))
	if err != nil {
		return Output{}, err
	}

	if input.Prompt == "" {
		if input.Prompt, err = h.prompts.Randomize(ctx); err != nil {
			return Output{}, err
		}
	}

	latest := input.Date == ""
	if latest {
		input.Date = h.now().UTC().Format("20060102")
	}

	img, err := h.loader.Load(ctx, input.Prompt, size)
	if err != nil {
		return Output{}, err
	}

	data, err := store.EncodePNG(img)
	if err != nil {
		return Output{}, err
	}

	out := Output{
		Date:   input.Date,
		Prompt: input.Prompt,
		Size:   string(size),
		Key:    input.Date + "/" + uuid.NewString() + ".png",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}

	keys := []string{out.Key}
	if latest {
		keys = append(keys, latestKey)
	}
	group, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		group.Go(func() error {
			return h.uploader.Upload(gctx, store.UploadParams{
				Name:        key,
				Data:        data,
				ContentType: "image/png",
				Metadata:    out.toMetadata(),
			})
		})
	}
	if err := group.Wait(); err != nil {
		return Output{}, err
	}

	if latest {
		if err := h.invalidator.Invalidate(ctx, []string{"/" + latestKey}); err != nil {
			return Output{}, err
		}
	}

	log.Info("stored image", "key", out.Key, "width", out.Width, "height", out.Height)
	return out, nil
}
