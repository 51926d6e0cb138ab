package similarity

import (
	"image"
)

const (
	// SSIMWindow is the side of the square uniform window.
	SSIMWindow = 7

	ssimK1       = 0.01
	ssimK2       = 0.03
	dynamicRange = 255.0
)

var (
	ssimC1 = (ssimK1 * dynamicRange) * (ssimK1 * dynamicRange)
	ssimC2 = (ssimK2 * dynamicRange) * (ssimK2 * dynamicRange)
)

// SSIM returns the mean structural similarity of two equally sized luma
// planes, in [-1, 1]. Local statistics use a SSIMWindow x SSIMWindow
// uniform window with sample covariance, and the mean is taken over
// windows that fit entirely inside the image. Planes of different size
// score 0. Planes smaller than the window are compared as one window.
func SSIM(a, b *image.Gray) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0
	}
	w, h := ab.Dx(), ab.Dy()
	if w == 0 || h == 0 {
		return 1
	}

	win := SSIMWindow
	if w < win || h < win {
		return windowSSIM(a, b, ab.Min, bb.Min, w, h)
	}

	// Column sums over the current band of win rows. Pixel values are
	// integers so the running sums stay exact.
	colA := make([]int64, w)
	colB := make([]int64, w)
	colAA := make([]int64, w)
	colBB := make([]int64, w)
	colAB := make([]int64, w)

	addRow := func(y int, sign int64) {
		ra := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):]
		rb := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):]
		for x := 0; x < w; x++ {
			pa, pb := int64(ra[x]), int64(rb[x])
			colA[x] += sign * pa
			colB[x] += sign * pb
			colAA[x] += sign * pa * pa
			colBB[x] += sign * pb * pb
			colAB[x] += sign * pa * pb
		}
	}

	for y := 0; y < win; y++ {
		addRow(y, 1)
	}

	np := float64(win * win)
	covNorm := np / (np - 1)

	var total float64
	var count int
	for y0 := 0; ; y0++ {
		var sa, sb, saa, sbb, sab int64
		for x := 0; x < win; x++ {
			sa += colA[x]
			sb += colB[x]
			saa += colAA[x]
			sbb += colBB[x]
			sab += colAB[x]
		}
		for x0 := 0; ; x0++ {
			total += ssimIndex(float64(sa), float64(sb), float64(saa), float64(sbb), float64(sab), np, covNorm)
			count++
			if x0+win >= w {
				break
			}
			out, in := x0, x0+win
			sa += colA[in] - colA[out]
			sb += colB[in] - colB[out]
			saa += colAA[in] - colAA[out]
			sbb += colBB[in] - colBB[out]
			sab += colAB[in] - colAB[out]
		}
		if y0+win >= h {
			break
		}
		addRow(y0, -1)
		addRow(y0+win, 1)
	}

	return total / float64(count)
}

// windowSSIM treats the whole plane as a single window.
func windowSSIM(a, b *image.Gray, amin, bmin image.Point, w, h int) float64 {
	var sa, sb, saa, sbb, sab int64
	for y := 0; y < h; y++ {
		ra := a.Pix[a.PixOffset(amin.X, amin.Y+y):]
		rb := b.Pix[b.PixOffset(bmin.X, bmin.Y+y):]
		for x := 0; x < w; x++ {
			pa, pb := int64(ra[x]), int64(rb[x])
			sa += pa
			sb += pb
			saa += pa * pa
			sbb += pb * pb
			sab += pa * pb
		}
	}
	np := float64(w * h)
	covNorm := 1.0
	if np > 1 {
		covNorm = np / (np - 1)
	}
	return ssimIndex(float64(sa), float64(sb), float64(saa), float64(sbb), float64(sab), np, covNorm)
}

func ssimIndex(sa, sb, saa, sbb, sab, np, covNorm float64) float64 {
	ux := sa / np
	uy := sb / np
	vx := covNorm * (saa/np - ux*ux)
	vy := covNorm * (sbb/np - uy*uy)
	vxy := covNorm * (sab/np - ux*uy)

	num := (2*ux*uy + ssimC1) * (2*vxy + ssimC2)
	den := (ux*ux + uy*uy + ssimC1) * (vx + vy + ssimC2)
	return num / den
}
