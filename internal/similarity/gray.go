// Package similarity scores how alike two video frames are.
//
// All signals work on 8-bit luma planes. Color frames are converted with
// the ITU-R BT.601 weights (0.299 R + 0.587 G + 0.114 B).
package similarity

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Grayscale converts img to an 8-bit luma plane with origin (0, 0).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	case *image.RGBA:
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < b.Dx(); x++ {
				p := src.Pix[si : si+4 : si+4]
				dst.Pix[di+x] = luma(p[0], p[1], p[2])
				si += 4
			}
		}
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < b.Dx(); x++ {
				p := src.Pix[si : si+4 : si+4]
				dst.Pix[di+x] = luma(p[0], p[1], p[2])
				si += 4
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
			}
		}
	}
	return dst
}

// luma matches color.GrayModel for opaque pixels.
func luma(r, g, b uint8) uint8 {
	r16, g16, b16 := uint32(r)*0x101, uint32(g)*0x101, uint32(b)*0x101
	return uint8((19595*r16 + 38470*g16 + 7471*b16 + 1<<15) >> 24)
}

// Downscale shrinks a luma plane to the given width, keeping the aspect ratio.
// Planes already at or below width are returned unchanged.
func Downscale(g *image.Gray, width int) *image.Gray {
	b := g.Bounds()
	if width <= 0 || b.Dx() <= width {
		return g
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), g, b, draw.Src, nil)
	return dst
}
