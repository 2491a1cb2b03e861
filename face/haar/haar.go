// Package haar implements the face.Verifier contract with OpenCV Haar
// cascade detection. Each frame's largest detected face region is compared
// by equalized grayscale histogram correlation. Detection is deliberately
// relaxed: when no face is found in a frame the whole frame is used instead
// of rejecting the pair, tolerating partial or occluded faces.
package haar

import (
	"context"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/verifyd/kycpipe/face"
	"github.com/verifyd/kycpipe/observability"
)

// defaultCascadePaths are tried in order when no cascade file is configured.
var defaultCascadePaths = []string{
	"haarcascade_frontalface_alt.xml",
	"/usr/local/share/opencv4/haarcascades/haarcascade_frontalface_alt.xml",
	"/usr/share/opencv4/haarcascades/haarcascade_frontalface_alt.xml",
	"/opt/homebrew/share/opencv4/haarcascades/haarcascade_frontalface_alt.xml",
}

// Config tunes the verifier. Zero values select the defaults.
type Config struct {
	// CascadeFile is the Haar cascade to load; empty tries the default
	// search paths.
	CascadeFile string
	// Threshold is the decision boundary on face-region histogram
	// correlation. Default 0.65.
	Threshold float64
	Logger    observability.Logger
}

// Verifier compares face regions with a Haar cascade detector.
type Verifier struct {
	cascadePath string
	threshold   float64
	log         observability.Logger
}

// New constructs the verifier, resolving the cascade file once. A verifier
// without a usable cascade reports Available() == false and the comparator
// degrades to its histogram fallback.
func New(cfg Config) *Verifier {
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.65
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	v := &Verifier{threshold: cfg.Threshold, log: cfg.Logger}
	v.cascadePath = resolveCascade(cfg.CascadeFile)
	if v.cascadePath == "" {
		v.log.Warn("no usable face cascade found")
	}
	return v
}

func resolveCascade(configured string) string {
	candidates := defaultCascadePaths
	if configured != "" {
		candidates = append([]string{configured}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (v *Verifier) Name() string { return "haar" }

// Available reports whether a cascade file was resolved at construction.
func (v *Verifier) Available() bool { return v.cascadePath != "" }

// Verify compares the face regions of the two frame files.
func (v *Verifier) Verify(ctx context.Context, baselinePath, candidatePath string) (face.Match, error) {
	if err := ctx.Err(); err != nil {
		return face.Match{}, err
	}
	if !v.Available() {
		return face.Match{}, fmt.Errorf("haar: no cascade loaded")
	}

	classifier := gocv.NewCascadeClassifier()
	defer classifier.Close()
	if !classifier.Load(v.cascadePath) {
		return face.Match{}, fmt.Errorf("haar: load cascade %s", v.cascadePath)
	}

	hist1, err := v.faceHistogram(&classifier, baselinePath)
	if err != nil {
		return face.Match{}, err
	}
	defer hist1.Close()
	hist2, err := v.faceHistogram(&classifier, candidatePath)
	if err != nil {
		return face.Match{}, err
	}
	defer hist2.Close()

	similarity := float64(gocv.CompareHist(*hist1, *hist2, gocv.HistCmpCorrel))
	return face.Match{
		Verified:   similarity > v.threshold,
		Similarity: similarity,
	}, nil
}

// faceHistogram reads the frame, isolates its largest detected face (or the
// whole frame when detection finds none), and returns the equalized
// grayscale 256-bin histogram of that region.
func (v *Verifier) faceHistogram(classifier *gocv.CascadeClassifier, path string) (*gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return nil, fmt.Errorf("haar: unreadable frame %s", path)
	}
	defer img.Close()

	region := img
	faces := classifier.DetectMultiScale(img)
	if rect, ok := largest(faces); ok {
		sub := img.Region(rect)
		defer sub.Close()
		region = sub.Clone()
		defer region.Close()
	} else {
		v.log.Debug("no face detected, using full frame",
			observability.String("frame", path))
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)
	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.EqualizeHist(gray, &equalized)

	hist := gocv.NewMat()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.CalcHist([]gocv.Mat{equalized}, []int{0}, mask, &hist, []int{256}, []float64{0, 256}, false)
	gocv.Normalize(hist, &hist, 0, 1, gocv.NormMinMax)
	return &hist, nil
}

func largest(rects []image.Rectangle) (image.Rectangle, bool) {
	var best image.Rectangle
	found := false
	for _, r := range rects {
		if !found || r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
			found = true
		}
	}
	return best, found
}
