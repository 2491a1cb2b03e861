// Package tesseract implements the ocr.Engine contract on top of the
// gosseract client. Availability of the Tesseract installation is resolved
// once at construction; an Engine built on a machine without Tesseract
// reports Available() == false and the cascade degrades to its fallback
// corpus instead of failing per attempt.
package tesseract

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/verifyd/kycpipe/ocr"
)

// Engine is a Tesseract-backed OCR engine.
type Engine struct {
	clientFactory func() *gosseract.Client
	available     bool
}

// New constructs the engine and probes the local Tesseract installation.
func New() *Engine {
	e := &Engine{clientFactory: gosseract.NewClient}
	e.available = probe()
	return e
}

func (e *Engine) Name() string { return "tesseract" }

// Available reports whether the probe found a usable Tesseract installation.
func (e *Engine) Available() bool { return e.available }

// Recognize performs OCR on a single image input.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (res ocr.Result, err error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	// gosseract panics rather than erroring on some malformed inputs; the
	// cascade treats any attempt fault as empty text, so surface it as error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tesseract: %v", r)
		}
	}()

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	return ocr.Result{
		PlainText:  text,
		Confidence: meanConfidence(c),
	}, nil
}

func meanConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}

// probe checks that the tesseract binary and trained data are reachable.
func probe() (ok bool) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	c := gosseract.NewClient()
	defer c.Close()
	return strings.TrimSpace(c.Version()) != ""
}
