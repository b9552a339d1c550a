package image

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSize = errors.New("invalid image size")

// Size is one of the square sizes the images endpoint accepts.
type Size string

const (
	SizeSmall  Size = "256x256"
	SizeMedium Size = "512x512"
	SizeLarge  Size = "1024x1024"
)

var sizeNames = map[string]Size{
	"small":  SizeSmall,
	"medium": SizeMedium,
	"large":  SizeLarge,
}

func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// ParseSize accepts either the pixel form ("512x512") or a name ("medium").
func ParseSize(v string) (Size, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if s, ok := sizeNames[v]; ok {
		return s, nil
	}
	if s := Size(v); s.Valid() {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSize, v)
}
