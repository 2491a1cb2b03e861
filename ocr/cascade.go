package ocr

import (
	"context"
	"strings"

	"github.com/verifyd/kycpipe/document"
	"github.com/verifyd/kycpipe/observability"
)

// Variant selects which pre-processed rendition of the document photo an
// attempt runs against.
type Variant int

const (
	// VariantBinarized is the Otsu-thresholded black/white rendition.
	VariantBinarized Variant = iota
	// VariantEnhanced is the contrast-equalized, sharpened, adaptively
	// thresholded rendition.
	VariantEnhanced
)

func (v Variant) String() string {
	if v == VariantEnhanced {
		return "enhanced"
	}
	return "binarized"
}

// Attempt is one (image variant, engine configuration) pair in the cascade.
// PSM is the Tesseract page segmentation mode; zero leaves the engine at its
// default.
type Attempt struct {
	Variant Variant
	PSM     int
}

// DefaultAttempts returns the standard attempt order: both variants under
// default settings first, then the segmentation modes that recover the most
// text from skewed or sparse card photos. Noise on a failed attempt tends to
// be short or empty, so "more text beats less text" is a workable quality
// signal without per-engine confidence plumbing.
func DefaultAttempts() []Attempt {
	return []Attempt{
		{Variant: VariantBinarized},
		{Variant: VariantEnhanced},
		{Variant: VariantBinarized, PSM: 6},
		{Variant: VariantBinarized, PSM: 3},
		{Variant: VariantBinarized, PSM: 4},
		{Variant: VariantEnhanced, PSM: 6},
		{Variant: VariantEnhanced, PSM: 3},
	}
}

// Variants holds the encoded pre-processed renditions of one document photo.
type Variants struct {
	Binarized []byte
	Enhanced  []byte
}

func (v Variants) bytes(variant Variant) []byte {
	if variant == VariantEnhanced {
		return v.Enhanced
	}
	return v.Binarized
}

// Source tags where an extraction's text came from.
type Source string

const (
	// SourceOCR marks text produced by a live engine.
	SourceOCR Source = "ocr"
	// SourceFallback marks canned corpus text substituted when the engine was
	// unavailable or produced insufficient signal.
	SourceFallback Source = "fallback"
)

// AttemptResult records the outcome of a single cascade attempt.
type AttemptResult struct {
	Attempt Attempt
	// Chars is the trimmed length of the attempt's output.
	Chars int
	// Err is the attempt's failure, nil on success. A failed attempt never
	// aborts the cascade.
	Err error
}

// Extraction is the cascade's chosen text for one document, tagged with its
// provenance so callers can distinguish genuine recognition from the
// synthetic corpus.
type Extraction struct {
	Text     string
	Source   Source
	Attempts []AttemptResult
}

// Config tunes the cascade. Zero values select the defaults.
type Config struct {
	// Attempts is the ordered strategy list; nil selects DefaultAttempts.
	Attempts []Attempt
	// EarlyExitChars stops the cascade once the running best exceeds this
	// trimmed length. Default 50.
	EarlyExitChars int
	// MinChars is the success threshold: a best result at or under this
	// trimmed length is discarded in favor of the fallback corpus. Default 20.
	MinChars int
	// Languages are the hints passed to every attempt. Default ["eng"].
	Languages []string
	Logger    observability.Logger
}

func (c Config) withDefaults() Config {
	if c.Attempts == nil {
		c.Attempts = DefaultAttempts()
	}
	if c.EarlyExitChars == 0 {
		c.EarlyExitChars = 50
	}
	if c.MinChars == 0 {
		c.MinChars = 20
	}
	if c.Languages == nil {
		c.Languages = []string{"eng"}
	}
	if c.Logger == nil {
		c.Logger = observability.NopLogger{}
	}
	return c
}

// Cascade runs an ordered list of extraction attempts against an engine,
// keeps the best result, and degrades to the per-type fallback corpus when
// the engine is unavailable or the best result carries too little signal.
type Cascade struct {
	engine Engine
	cfg    Config
	log    observability.Logger
}

// NewCascade constructs a cascade over the given engine.
func NewCascade(engine Engine, cfg Config) *Cascade {
	cfg = cfg.withDefaults()
	return &Cascade{engine: engine, cfg: cfg, log: cfg.Logger}
}

// Extract runs the cascade for one document. It never returns empty text:
// when the live path yields a trimmed length at or under MinChars the result
// is the fallback corpus for docType, tagged SourceFallback.
func (c *Cascade) Extract(ctx context.Context, variants Variants, docType document.Type) Extraction {
	if c.engine == nil || !c.engine.Available() {
		c.log.Warn("ocr engine unavailable, using fallback corpus",
			observability.String("document_type", docType.String()))
		return c.fallback(docType, nil)
	}

	var (
		best     string
		bestTrim int
		results  []AttemptResult
	)
	for i, attempt := range c.cfg.Attempts {
		select {
		case <-ctx.Done():
			c.log.Warn("ocr cascade canceled", observability.Error("error", ctx.Err()))
			return c.finish(best, bestTrim, docType, results)
		default:
		}

		text, err := c.run(ctx, attempt, variants)
		trimmed := len(strings.TrimSpace(text))
		results = append(results, AttemptResult{Attempt: attempt, Chars: trimmed, Err: err})
		if err != nil {
			c.log.Debug("ocr attempt failed",
				observability.Int("attempt", i+1),
				observability.Error("error", err))
			continue
		}
		c.log.Debug("ocr attempt finished",
			observability.Int("attempt", i+1),
			observability.Int("chars", trimmed))
		if trimmed > bestTrim {
			best = text
			bestTrim = trimmed
		}
		if bestTrim > c.cfg.EarlyExitChars {
			break
		}
	}
	return c.finish(best, bestTrim, docType, results)
}

func (c *Cascade) run(ctx context.Context, attempt Attempt, variants Variants) (string, error) {
	opts := []InputOption{WithLanguages(c.cfg.Languages...)}
	if attempt.PSM != 0 {
		opts = append(opts, WithPSM(attempt.PSM))
	}
	in := NewInput(variants.bytes(attempt.Variant), ImageFormatPNG, opts...)
	res, err := c.engine.Recognize(ctx, in)
	if err != nil {
		return "", err
	}
	return res.PlainText, nil
}

func (c *Cascade) finish(best string, bestTrim int, docType document.Type, results []AttemptResult) Extraction {
	if bestTrim > c.cfg.MinChars {
		c.log.Info("ocr extraction succeeded",
			observability.String("document_type", docType.String()),
			observability.Int("chars", bestTrim),
			observability.Int("attempts", len(results)))
		return Extraction{Text: best, Source: SourceOCR, Attempts: results}
	}
	c.log.Info("ocr produced insufficient text, using fallback corpus",
		observability.String("document_type", docType.String()),
		observability.Int("chars", bestTrim))
	return c.fallback(docType, results)
}

func (c *Cascade) fallback(docType document.Type, results []AttemptResult) Extraction {
	return Extraction{
		Text:     document.FallbackText(docType),
		Source:   SourceFallback,
		Attempts: results,
	}
}
