// Package face decides whether two verification videos show the same person.
// The comparator samples one frame per video, prefers an external
// face-verification capability when one is available, and degrades to a
// deterministic histogram-correlation fallback otherwise. It always returns
// a decision: any fault anywhere in the comparison reads as "not verified".
package face

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/verifyd/kycpipe/observability"
)

// Match is a verifier's verdict for one frame pair.
type Match struct {
	Verified   bool
	Similarity float64
}

// Verifier is the external face-verification capability contract. Available
// reports whether the capability can actually be invoked; the comparator
// checks it once per call and falls back silently when it is false.
type Verifier interface {
	Name() string
	Available() bool
	Verify(ctx context.Context, baselinePath, candidatePath string) (Match, error)
}

// FrameSampler produces a representative frame from the video at path.
// ok is false when no frame could be decoded.
type FrameSampler func(path string) (frame image.Image, ok bool)

// Config tunes the comparator. Zero values select the defaults.
type Config struct {
	// Sampler extracts one frame per video. Required; video.FirstFrame is
	// the stock implementation.
	Sampler FrameSampler
	// Verifier is the optional external capability. Nil or unavailable means
	// every comparison uses the histogram fallback.
	Verifier Verifier
	// SimilarityThreshold is the fallback's decision boundary on histogram
	// correlation. Default 0.5.
	SimilarityThreshold float64
	// ScratchDir holds the frame files written for the capability call.
	// Default os.TempDir().
	ScratchDir string
	Logger     observability.Logger
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.5
	}
	if c.ScratchDir == "" {
		c.ScratchDir = os.TempDir()
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	return c
}

// Comparator implements the face-match pipeline.
type Comparator struct {
	cfg Config
	log observability.Logger
}

// NewComparator constructs a comparator.
func NewComparator(cfg Config) *Comparator {
	cfg = cfg.withDefaults()
	return &Comparator{cfg: cfg, log: cfg.Logger}
}

// SamePerson reports whether the person in candidateVideo matches the person
// in baselineVideo. A missing frame on either side means the comparison
// cannot be made and reads as false; no capability is invoked in that case.
func (c *Comparator) SamePerson(ctx context.Context, baselineVideo, candidateVideo string) (verified bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("face comparison fault", observability.String("fault", fmt.Sprint(r)))
			verified = false
		}
	}()

	if c.cfg.Sampler == nil {
		c.log.Error("no frame sampler configured")
		return false
	}
	baseline, ok := c.cfg.Sampler(baselineVideo)
	if !ok {
		c.log.Warn("no decodable frame in baseline video")
		return false
	}
	candidate, ok := c.cfg.Sampler(candidateVideo)
	if !ok {
		c.log.Warn("no decodable frame in candidate video")
		return false
	}

	if v := c.cfg.Verifier; v != nil && v.Available() {
		match, err := c.verifyWithCapability(ctx, v, baseline, candidate)
		if err == nil {
			c.log.Info("face capability verdict",
				observability.String("verifier", v.Name()),
				observability.Bool("verified", match.Verified),
				observability.Float64("similarity", match.Similarity))
			return match.Verified
		}
		c.log.Warn("face capability failed, using histogram fallback",
			observability.String("verifier", v.Name()),
			observability.Error("error", err))
	}

	similarity := Similarity(baseline, candidate)
	c.log.Info("histogram fallback verdict",
		observability.Float64("similarity", similarity),
		observability.Bool("verified", similarity >= c.cfg.SimilarityThreshold))
	return similarity >= c.cfg.SimilarityThreshold
}

// verifyWithCapability persists both frames to scratch storage for the
// capability call and removes them on every branch before returning.
func (c *Comparator) verifyWithCapability(ctx context.Context, v Verifier, baseline, candidate image.Image) (Match, error) {
	baselinePath, err := c.writeScratch(baseline)
	if err != nil {
		return Match{}, fmt.Errorf("write baseline frame: %w", err)
	}
	defer os.Remove(baselinePath)

	candidatePath, err := c.writeScratch(candidate)
	if err != nil {
		return Match{}, fmt.Errorf("write candidate frame: %w", err)
	}
	defer os.Remove(candidatePath)

	return v.Verify(ctx, baselinePath, candidatePath)
}

func (c *Comparator) writeScratch(frame image.Image) (string, error) {
	f, err := os.CreateTemp(c.cfg.ScratchDir, "kycframe-*.jpg")
	if err != nil {
		return "", err
	}
	if err := jpeg.Encode(f, frame, nil); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
