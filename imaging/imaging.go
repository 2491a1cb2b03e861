// Package imaging prepares raw document photos for OCR. Each normalizer
// produces encoded PNG renditions tuned to maximize text yield; on any decode
// or processing fault it returns a blank white placeholder instead of an
// error, so normalization can never fail the pipeline.
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"

	"gocv.io/x/gocv"

	"github.com/verifyd/kycpipe/observability"
)

// Config tunes the normalizer. Zero values select the defaults.
type Config struct {
	// MaxDimension bounds the longer image side before processing; larger
	// inputs are downscaled preserving aspect ratio. This is a latency
	// trade-off, not a correctness requirement. Default 2000.
	MaxDimension int
	Logger       observability.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxDimension == 0 {
		c.MaxDimension = 2000
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	return c
}

// Normalizer produces pre-processed variants of a raw document photo.
type Normalizer struct {
	cfg Config
	log observability.Logger
}

// NewNormalizer constructs a normalizer.
func NewNormalizer(cfg Config) *Normalizer {
	cfg = cfg.withDefaults()
	return &Normalizer{cfg: cfg, log: cfg.Logger}
}

// Binarize produces the black/white rendition: grayscale, Gaussian blur,
// Otsu threshold, then one open pass to remove speckle.
func (n *Normalizer) Binarize(data []byte) []byte {
	return n.process(data, func(gray gocv.Mat) gocv.Mat {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

		thresh := gocv.NewMat()
		defer thresh.Close()
		gocv.Threshold(blurred, &thresh, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 1))
		defer kernel.Close()
		opened := gocv.NewMat()
		gocv.MorphologyEx(thresh, &opened, gocv.MorphOpen, kernel)
		return opened
	})
}

// Enhance produces the contrast rendition: tiled adaptive histogram
// equalization, denoise, unsharp-style 3x3 sharpen, Gaussian adaptive
// threshold, then a light dilation to thicken strokes.
func (n *Normalizer) Enhance(data []byte) []byte {
	return n.process(data, func(gray gocv.Mat) gocv.Mat {
		clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
		defer clahe.Close()
		equalized := gocv.NewMat()
		defer equalized.Close()
		clahe.Apply(gray, &equalized)

		denoised := gocv.NewMat()
		defer denoised.Close()
		gocv.FastNlMeansDenoisingWithParams(equalized, &denoised, 10, 7, 21)

		kernel := sharpenKernel()
		defer kernel.Close()
		sharpened := gocv.NewMat()
		defer sharpened.Close()
		gocv.Filter2D(denoised, &sharpened, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)

		adaptive := gocv.NewMat()
		defer adaptive.Close()
		gocv.AdaptiveThreshold(sharpened, &adaptive, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)

		dilateKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 1))
		defer dilateKernel.Close()
		dilated := gocv.NewMat()
		gocv.Dilate(adaptive, &dilated, dilateKernel)
		return dilated
	})
}

// process decodes, downscales, converts to grayscale, applies op, and encodes
// the result as PNG. Any fault yields the placeholder.
func (n *Normalizer) process(data []byte, op func(gray gocv.Mat) gocv.Mat) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn("image normalization fault, using placeholder")
			out = Placeholder()
		}
	}()

	img, ok := n.decode(data)
	if !ok {
		return Placeholder()
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	result := op(gray)
	defer result.Close()
	return encodePNG(result)
}

func (n *Normalizer) decode(data []byte) (gocv.Mat, bool) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		n.log.Warn("undecodable document image", observability.Error("error", err))
		return gocv.Mat{}, false
	}
	if img.Empty() {
		img.Close()
		n.log.Warn("undecodable document image")
		return gocv.Mat{}, false
	}
	downscale(&img, n.cfg.MaxDimension)
	return img, true
}

// CropDocumentRegion attempts to isolate the document inside a larger photo
// by finding the dominant four-point contour. Best-effort pre-processing: it
// falls back to a centered 80% crop when no document-like contour is found,
// and to the placeholder when the image cannot be decoded.
func (n *Normalizer) CropDocumentRegion(data []byte) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn("document crop fault, using placeholder")
			out = Placeholder()
		}
	}()

	img, ok := n.decode(data)
	if !ok {
		return Placeholder()
	}
	defer img.Close()

	if rect, found := documentContour(img); found {
		region := img.Region(rect)
		defer region.Close()
		cropped := region.Clone()
		defer cropped.Close()
		return encodePNG(cropped)
	}

	// Centered 80% crop.
	w, h := img.Cols(), img.Rows()
	rect := image.Rect(w/10, h/10, w/10+w*8/10, h/10+h*8/10)
	region := img.Region(rect)
	defer region.Close()
	cropped := region.Clone()
	defer cropped.Close()
	return encodePNG(cropped)
}

func documentContour(img gocv.Mat) (image.Rectangle, bool) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 50, 150)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	contours := gocv.FindContours(dilated, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	idx := make([]int, contours.Size())
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return gocv.ContourArea(contours.At(idx[a])) > gocv.ContourArea(contours.At(idx[b]))
	})
	if len(idx) > 10 {
		idx = idx[:10]
	}

	for _, i := range idx {
		cnt := contours.At(i)
		peri := gocv.ArcLength(cnt, true)
		approx := gocv.ApproxPolyDP(cnt, 0.02*peri, true)
		four := approx.Size() == 4
		var rect image.Rectangle
		if four {
			rect = gocv.BoundingRect(approx)
		}
		approx.Close()
		if !four {
			continue
		}
		// Reject small rectangles that are unlikely to be the document.
		if rect.Dx() <= img.Cols()*3/10 || rect.Dy() <= img.Rows()*3/10 {
			continue
		}
		const padding = 10
		rect = image.Rect(
			max(0, rect.Min.X-padding),
			max(0, rect.Min.Y-padding),
			min(img.Cols(), rect.Max.X+padding),
			min(img.Rows(), rect.Max.Y+padding),
		)
		return rect, true
	}
	return image.Rectangle{}, false
}

func sharpenKernel() gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			kernel.SetFloatAt(r, c, -1)
		}
	}
	kernel.SetFloatAt(1, 1, 9)
	return kernel
}

func downscale(img *gocv.Mat, maxDim int) {
	w, h := img.Cols(), img.Rows()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return
	}
	scale := float64(maxDim) / float64(longest)
	dst := gocv.NewMat()
	gocv.Resize(*img, &dst, image.Pt(int(float64(w)*scale), int(float64(h)*scale)), 0, 0, gocv.InterpolationArea)
	img.Close()
	*img = dst
}

func encodePNG(img gocv.Mat) []byte {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return Placeholder()
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes())
}

// Placeholder returns a blank white 300x300 PNG used when an input image
// cannot be decoded or processed.
func Placeholder() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 300, 300))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
