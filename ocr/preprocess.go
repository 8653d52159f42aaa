package ocr

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ContrastFactor is the fixed contrast boost applied before recognition.
const ContrastFactor = 2.0

// sharpen is the 3x3 kernel used for edge enhancement, normalized by
// sharpenScale.
var sharpen = [3][3]int{
	{-2, -2, -2},
	{-2, 32, -2},
	{-2, -2, -2},
}

const sharpenScale = 16

// Preprocess converts img to grayscale, stretches its contrast around the
// mean luminance by ContrastFactor and sharpens it.
func Preprocess(img image.Image) *image.Gray {
	gray := Grayscale(img)
	Contrast(gray, ContrastFactor)
	return Sharpen(gray)
}

// Grayscale converts img to an 8-bit single-channel image.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Contrast scales every pixel's distance from the mean luminance by factor,
// in place.
func Contrast(img *image.Gray, factor float64) {
	if len(img.Pix) == 0 {
		return
	}
	var sum int
	for _, p := range img.Pix {
		sum += int(p)
	}
	mean := float64(sum)/float64(len(img.Pix)) + 0.5
	mean = float64(int(mean))
	for i, p := range img.Pix {
		img.Pix[i] = clamp(mean + factor*(float64(p)-mean))
	}
}

// Sharpen applies the sharpen kernel. Border pixels are copied unchanged.
func Sharpen(img *image.Gray) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	copy(out.Pix, img.Pix)
	if b.Dx() < 3 || b.Dy() < 3 {
		return out
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			acc := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					acc += sharpen[ky+1][kx+1] * int(img.GrayAt(x+kx, y+ky).Y)
				}
			}
			out.SetGray(x, y, color.Gray{Y: clamp(float64(acc) / sharpenScale)})
		}
	}
	return out
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
