// Command loadimage generates a single image from a prompt and writes it to
// disk as PNG. Settings come from the environment or a .env file:
// OPENAI_BASE_URL, OPENAI_IMAGES_PATH and OPENAI_API_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/dmorgan81/imageloader/internal/endpoint"
	"github.com/dmorgan81/imageloader/internal/image"
	"github.com/dmorgan81/imageloader/internal/loader"
	"github.com/dmorgan81/imageloader/internal/log"
	"github.com/dmorgan81/imageloader/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "loadimage:", err)
		os.Exit(1)
	}
}

func run() error {
	prompt := flag.String("prompt", "", "text prompt (required)")
	sizeFlag := flag.String("size", "medium", "small, medium, large or WxH")
	out := flag.String("out", "image.png", "output file")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	if *prompt == "" {
		flag.Usage()
		return fmt.Errorf("-prompt is required")
	}
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		return err
	}

	size, err := image.ParseSize(*sizeFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = log.NewContext(ctx, log.New(os.Stderr, log.ParseLevel(os.Getenv("LOG_LEVEL"))))

	img, err := loader.New(endpoint.FromEnv()).Load(ctx, *prompt, size)
	if err != nil {
		return err
	}

	data, err := store.EncodePNG(img)
	if err != nil {
		return err
	}
	return (&store.FileUploader{}).Upload(ctx, store.UploadParams{Name: *out, Data: data, ContentType: "image/png"})
}
