package face

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Similarity scores how alike two frames are by correlating their 256-bin
// grayscale intensity histograms. The second frame is resized to the first
// frame's dimensions when they differ. The score is the Pearson correlation
// of the two histograms: 1 for identical frames, negative for frames with
// disjoint intensity distributions.
func Similarity(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 0
	}
	if !a.Bounds().Size().Eq(b.Bounds().Size()) {
		resized := image.NewGray(image.Rect(0, 0, a.Bounds().Dx(), a.Bounds().Dy()))
		draw.ApproxBiLinear.Scale(resized, resized.Bounds(), b, b.Bounds(), draw.Src, nil)
		b = resized
	}
	return correlate(histogram(a), histogram(b))
}

func histogram(img image.Image) [256]float64 {
	var hist [256]float64
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			hist[g.Y]++
		}
	}
	return hist
}

// correlate computes the Pearson correlation of two histograms. Correlation
// is invariant under positive affine scaling, so the bin counts need no
// prior normalization.
func correlate(h1, h2 [256]float64) float64 {
	var mean1, mean2 float64
	for i := range h1 {
		mean1 += h1[i]
		mean2 += h2[i]
	}
	mean1 /= 256
	mean2 /= 256

	var cov, var1, var2 float64
	for i := range h1 {
		d1 := h1[i] - mean1
		d2 := h2[i] - mean2
		cov += d1 * d2
		var1 += d1 * d1
		var2 += d2 * d2
	}
	if var1 == 0 || var2 == 0 {
		return 0
	}
	return cov / math.Sqrt(var1*var2)
}
