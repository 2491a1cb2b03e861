// Package docproc orchestrates the document pipeline: normalize the photo,
// run the OCR cascade, extract typed fields, validate them, and — when the
// live path produced no usable signal — substitute the canned per-type
// record so the flow degrades to a demoable response instead of a hard
// failure. Results carry provenance so callers can always tell genuine
// extraction from synthetic placeholder data.
package docproc

import (
	"context"
	"fmt"

	"github.com/verifyd/kycpipe/document"
	"github.com/verifyd/kycpipe/fields"
	"github.com/verifyd/kycpipe/observability"
	"github.com/verifyd/kycpipe/ocr"
	"github.com/verifyd/kycpipe/validate"
)

// Normalizer produces the pre-processed image variants consumed by the OCR
// cascade. imaging.Normalizer is the stock implementation.
type Normalizer interface {
	Binarize(data []byte) []byte
	Enhance(data []byte) []byte
}

// rawNormalizer hands the raw bytes through unchanged; used when no
// normalizer is configured.
type rawNormalizer struct{}

func (rawNormalizer) Binarize(data []byte) []byte { return data }
func (rawNormalizer) Enhance(data []byte) []byte  { return data }

// Result is the document pipeline's structured answer for one photo.
type Result struct {
	// Text is the chosen extraction text; on a failed validation it carries
	// the partial read for diagnostics.
	Text string `json:"text"`
	// Valid reports whether the record passed type-specific validation.
	Valid bool `json:"valid"`
	// Fields is the typed record extracted from Text, or the canned record
	// when SyntheticFields is set.
	Fields document.FieldRecord `json:"fields"`
	// Source tags whether Text came from live recognition or the fallback
	// corpus.
	Source ocr.Source `json:"source"`
	// SyntheticFields marks that Fields was replaced wholesale by the canned
	// per-type record because the fallback text also failed validation.
	SyntheticFields bool `json:"synthetic_fields"`
	// Attempts records the cascade's per-attempt outcomes.
	Attempts []ocr.AttemptResult `json:"-"`
}

// Config assembles a processor. Zero values select safe defaults.
type Config struct {
	// Normalizer prepares image variants; nil passes raw bytes through.
	Normalizer Normalizer
	// Engine is the OCR capability; nil or unavailable routes every request
	// to the fallback corpus.
	Engine ocr.Engine
	// Cascade tunes the extraction cascade.
	Cascade ocr.Config
	// Rules are optional scripted validation rules applied by Revalidate.
	Rules  []validate.Rule
	Logger observability.Logger
}

// Processor implements the document pipeline.
type Processor struct {
	normalizer Normalizer
	cascade    *ocr.Cascade
	rules      *validate.RuleEngine
	log        observability.Logger
}

// New constructs a processor.
func New(cfg Config) *Processor {
	if cfg.Normalizer == nil {
		cfg.Normalizer = rawNormalizer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Cascade.Logger == nil {
		cfg.Cascade.Logger = cfg.Logger
	}
	return &Processor{
		normalizer: cfg.Normalizer,
		cascade:    ocr.NewCascade(cfg.Engine, cfg.Cascade),
		rules:      validate.NewRuleEngine(cfg.Rules, cfg.Logger),
		log:        cfg.Logger,
	}
}

// Process runs the pipeline for one document photo. The only error it can
// return is a contained unexpected fault; capability unavailability,
// undecodable images, and low-confidence extractions all degrade inside the
// pipeline instead of erroring.
func (p *Processor) Process(ctx context.Context, imageData []byte, docType document.Type) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process document %s: %v", docType, r)
		}
	}()

	variants := ocr.Variants{
		Binarized: p.normalizer.Binarize(imageData),
		Enhanced:  p.normalizer.Enhance(imageData),
	}
	extraction := p.cascade.Extract(ctx, variants, docType)

	rec := fields.Extract(extraction.Text, docType)
	valid := validate.Validate(docType, extraction.Text, rec)

	res = Result{
		Text:     extraction.Text,
		Valid:    valid,
		Fields:   rec,
		Source:   extraction.Source,
		Attempts: extraction.Attempts,
	}

	// Fallback text that still fails validation carries no real signal at
	// all; substitute the canned record so the demo flow succeeds rather
	// than failing on a missing OCR install. The provenance tags keep the
	// substitution visible to callers.
	if !valid && extraction.Source == ocr.SourceFallback {
		if mock, ok := document.FallbackFields(docType); ok {
			res.Fields = mock
			res.Valid = true
			res.SyntheticFields = true
			p.log.Info("substituted canned field record",
				observability.String("document_type", docType.String()))
		}
	}

	p.log.Info("document processed",
		observability.String("document_type", docType.String()),
		observability.Bool("valid", res.Valid),
		observability.String("source", string(res.Source)),
		observability.Int("text_chars", len(res.Text)))
	return res, nil
}

// Revalidate is the validation-only entry point: it re-checks an existing
// field record for docType, merging any configured scripted rules into the
// outcome.
func (p *Processor) Revalidate(ctx context.Context, docType document.Type, rec document.FieldRecord) (out validate.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("revalidate %s: %v", docType, r)
		}
	}()

	out = validate.DocumentData(docType, rec)
	p.rules.Apply(ctx, docType, rec, &out)
	return out, nil
}
