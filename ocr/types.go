package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Input encapsulates a single image submitted for recognition.
type Input struct {
	// Image is the encoded image payload in the format specified by Format.
	Image []byte
	// Format declares the image content type (e.g., image/png).
	Format ImageFormat
	// Languages is a list of language hints (e.g., "eng") that providers can
	// use to select trained data.
	Languages []string
	// Metadata allows callers to pass through engine-specific knobs (e.g.,
	// page segmentation mode for Tesseract) without hard-coding them into the
	// API surface.
	Metadata map[string]string
}

// Result captures recognition output for a single input image.
type Result struct {
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Confidence is the mean word confidence in [0,1], zero when unknown.
	Confidence float64
}

// Engine is the text-recognition capability contract: one image in, one
// result out. Available reports whether the underlying capability can
// actually be invoked; callers check it once per extraction rather than
// discovering the failure mode attempt by attempt.
type Engine interface {
	Name() string
	Available() bool
	Recognize(ctx context.Context, input Input) (Result, error)
}

// NewInput builds an Input from encoded image bytes and options.
func NewInput(img []byte, format ImageFormat, opts ...InputOption) Input {
	in := Input{Image: img, Format: format}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}
