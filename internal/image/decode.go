package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var (
	ErrNoImagesReturned        = errors.New("no images returned")
	ErrImageConstructionFailed = errors.New("image construction failed")
)

// Decoder builds an image from raw encoded bytes.
type Decoder interface {
	Decode([]byte) (image.Image, error)
}

type DecoderFunc func([]byte) (image.Image, error)

func (f DecoderFunc) Decode(data []byte) (image.Image, error) { return f(data) }

// StdDecoder decodes any format registered with the image package.
type StdDecoder struct{}

func (StdDecoder) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Decode turns the first entry of resp into an image. Any entries after the
// first are ignored. A malformed base64 payload and bytes the decoder
// rejects both fail with ErrImageConstructionFailed.
func Decode(resp Response, dec Decoder) (image.Image, error) {
	if len(resp.Data) == 0 {
		return nil, ErrNoImagesReturned
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		data = nil
	}
	if len(data) == 0 {
		return nil, ErrImageConstructionFailed
	}

	img, err := dec.Decode(data)
	if err != nil || img == nil {
		return nil, ErrImageConstructionFailed
	}
	return img, nil
}
