// Package imaging bounds screenshot images to MCP-friendly dimensions.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the largest width or height passed through unmodified.
const MaxDimension = 8000

// jpegQuality is used when an oversized image is re-encoded.
const jpegQuality = 80

// Image is a decoded-and-bounded image payload ready to embed in a
// content block.
type Image struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
	Resized  bool
}

// FitWithin decodes data and, when either dimension exceeds maxDim, scales
// the image down so its longer side equals maxDim, preserving aspect ratio,
// and re-encodes it as JPEG. Images already within the bound are passed
// through byte-identical; nothing is ever enlarged.
func FitWithin(data []byte, maxDim int) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return &Image{
			Data:     data,
			MIMEType: http.DetectContentType(data),
			Width:    w,
			Height:   h,
		}, nil
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = (h*maxDim + w/2) / w
	} else {
		nh = maxDim
		nw = (w*maxDim + h/2) / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return &Image{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    nw,
		Height:   nh,
		Resized:  true,
	}, nil
}
