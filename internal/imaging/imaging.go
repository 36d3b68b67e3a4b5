// Package imaging renders the PNG icon set of the installable web shell.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// Sizes are the icon edges listed in the web manifest.
var Sizes = []int{192, 512}

// MaxSourceDimension bounds a custom source icon before scaling.
const MaxSourceDimension = 2048

// AllowedMIME lists the accepted source icon types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var (
	background = color.RGBA{0x4f, 0x46, 0xe5, 0xff}
	foreground = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// Decode reads a custom source icon, validating the format by sniffing bytes.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading icon data: %w", err)
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported icon format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding icon: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > MaxSourceDimension || b.Dy() > MaxSourceDimension {
		return nil, fmt.Errorf("icon too large: %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

// Default draws the built-in icon: a white parcel on an indigo square.
func Default() image.Image {
	const edge = 512
	img := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	white := &image.Uniform{foreground}
	fill := func(x0, y0, x1, y1 int) {
		draw.Draw(img, image.Rect(x0, y0, x1, y1), white, image.Point{}, draw.Src)
	}

	// Box outline.
	const lo, hi, stroke = 128, 384, 24
	fill(lo, lo, hi, lo+stroke)
	fill(lo, hi-stroke, hi, hi)
	fill(lo, lo, lo+stroke, hi)
	fill(hi-stroke, lo, hi, hi)
	// Tape across the lid.
	fill(edge/2-stroke/2, lo, edge/2+stroke/2, edge/2)
	fill(lo, edge/2-stroke/2, hi, edge/2+stroke/2)
	return img
}

// Render scales src into a size x size square and encodes it as PNG.
// Non-square sources are centred on the background colour.
func Render(src image.Image, size int) ([]byte, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid icon size %d", size)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, fit(src.Bounds(), size), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Set renders src at every size in Sizes.
func Set(src image.Image) (map[int][]byte, error) {
	icons := make(map[int][]byte, len(Sizes))
	for _, size := range Sizes {
		data, err := Render(src, size)
		if err != nil {
			return nil, err
		}
		icons[size] = data
	}
	return icons, nil
}

// fit returns the centred rectangle inside a size x size square that keeps
// the aspect ratio of b.
func fit(b image.Rectangle, size int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	newW, newH := size, size
	if w > h {
		newH = int(float64(h) * float64(size) / float64(w))
	} else if h > w {
		newW = int(float64(w) * float64(size) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	x0 := (size - newW) / 2
	y0 := (size - newH) / 2
	return image.Rect(x0, y0, x0+newW, y0+newH)
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
