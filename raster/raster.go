// Package raster turns documents into pixels: PDF pages are rendered through
// MuPDF and standalone images are decoded and re-encoded as JPEG.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/gen2brain/go-fitz"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

const (
	// DefaultDPI is the resolution used for page rendering.
	DefaultDPI = 300
	// DefaultQuality is the JPEG quality used for every re-encoded image.
	DefaultQuality = 85
)

// PageFunc receives each rendered page. page is 1-based.
type PageFunc func(page int, img image.Image) error

// Rasterizer renders the pages of a PDF in order.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, dpi float64, fn PageFunc) (int, error)
}

// Fitz renders pages with MuPDF.
type Fitz struct{}

// Rasterize renders every page of the PDF at dpi and hands it to fn. It
// returns the number of pages rendered before the first error.
func (Fitz) Rasterize(ctx context.Context, path string, dpi float64, fn PageFunc) (int, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return i, fmt.Errorf("render page %d: %w", i+1, err)
		}
		if err := fn(i+1, img); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Options controls JPEG re-encoding.
type Options struct {
	// Quality is the JPEG quality, 1-100. Zero means DefaultQuality.
	Quality int
	// MaxDimension downsamples images whose longer side exceeds it. Zero
	// keeps the original size.
	MaxDimension int
}

// DecodeFile decodes any registered image format (jpeg, png, bmp, tiff).
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG re-encodes img as JPEG, downsampling it first when it exceeds
// opts.MaxDimension.
func EncodeJPEG(img image.Image, opts Options) ([]byte, error) {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	img = fit(img, opts.MaxDimension)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJPEG encodes img and writes it to path.
func WriteJPEG(path string, img image.Image, opts Options) error {
	data, err := EncodeJPEG(img, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Normalize decodes the image at src and writes it to dst as JPEG.
func Normalize(src, dst string, opts Options) error {
	img, err := DecodeFile(src)
	if err != nil {
		return err
	}
	return WriteJPEG(dst, img, opts)
}

func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	scale := float64(maxDim) / float64(max(w, h))
	tw := max(int(float64(w)*scale), 1)
	th := max(int(float64(h)*scale), 1)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// flatten composites images that may carry alpha onto a white background.
func flatten(img image.Image) image.Image {
	switch img.(type) {
	case *image.Gray, *image.YCbCr, *image.CMYK:
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
