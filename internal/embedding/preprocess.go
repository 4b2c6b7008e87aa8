package embedding

import (
	"image"

	"golang.org/x/image/draw"
)

// CLIP input normalization constants (per RGB channel).
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// Thumbnail scales img to exactly w x h with bilinear interpolation.
func Thumbnail(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// CenterCrop scales img so its shorter side is size, then crops the center square.
func CenterCrop(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return image.NewRGBA(image.Rect(0, 0, size, size))
	}
	sw, sh := size, size
	if w > h {
		sw = w * size / h
	} else {
		sh = h * size / w
	}
	scaled := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	x0, y0 := (sw-size)/2, (sh-size)/2
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), scaled, image.Pt(x0, y0), draw.Src)
	return dst
}

// PixelValues returns the CLIP-normalized NCHW tensor data (batch 1) for img.
func PixelValues(img image.Image, size int) []float32 {
	rgba := CenterCrop(img, size)
	plane := size * size
	out := make([]float32, 3*plane)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := rgba.PixOffset(x, y)
			p := y*size + x
			for c := 0; c < 3; c++ {
				v := float32(rgba.Pix[i+c]) / 255
				out[c*plane+p] = (v - clipMean[c]) / clipStd[c]
			}
		}
	}
	return out
}
