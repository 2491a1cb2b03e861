package ocr

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/verifyd/kycpipe/document"
)

type fakeEngine struct {
	available bool
	// outputs and errs are consumed per call; missing entries yield "".
	outputs []string
	errs    []error
	inputs  []Input
}

func (f *fakeEngine) Name() string    { return "fake" }
func (f *fakeEngine) Available() bool { return f.available }

func (f *fakeEngine) Recognize(_ context.Context, in Input) (Result, error) {
	call := len(f.inputs)
	f.inputs = append(f.inputs, in)
	if call < len(f.errs) && f.errs[call] != nil {
		return Result{}, f.errs[call]
	}
	if call < len(f.outputs) {
		return Result{PlainText: f.outputs[call]}, nil
	}
	return Result{}, nil
}

func testVariants() Variants {
	return Variants{Binarized: []byte("bin"), Enhanced: []byte("enh")}
}

func TestCascadeKeepsLongestResult(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		outputs: []string{
			strings.Repeat("a", 25),
			strings.Repeat("b", 40),
			strings.Repeat("c", 30),
			"",
			strings.Repeat("d", 35),
			"  short  ",
			strings.Repeat("e", 22),
		},
	}
	c := NewCascade(engine, Config{})
	got := c.Extract(context.Background(), testVariants(), document.TypeAadhaarFront)

	if got.Source != SourceOCR {
		t.Fatalf("source = %v, want ocr", got.Source)
	}
	if got.Text != strings.Repeat("b", 40) {
		t.Fatalf("cascade should keep the longest trimmed result, got %q", got.Text)
	}
	if len(engine.inputs) != 7 {
		t.Fatalf("expected all 7 attempts, got %d", len(engine.inputs))
	}
	// The chosen result is never shorter than any individual attempt.
	for _, res := range got.Attempts {
		if res.Chars > len(strings.TrimSpace(got.Text)) {
			t.Fatalf("attempt produced %d chars but cascade kept %d", res.Chars, len(got.Text))
		}
	}
}

func TestCascadeEarlyExit(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		outputs:   []string{strings.Repeat("x", 60), strings.Repeat("y", 80)},
	}
	c := NewCascade(engine, Config{})
	got := c.Extract(context.Background(), testVariants(), document.TypeAadhaarFront)

	if len(engine.inputs) != 1 {
		t.Fatalf("result over 50 chars should stop the cascade, made %d calls", len(engine.inputs))
	}
	if got.Text != strings.Repeat("x", 60) {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestCascadeAttemptOrderAndConfiguration(t *testing.T) {
	engine := &fakeEngine{available: true}
	c := NewCascade(engine, Config{})
	c.Extract(context.Background(), testVariants(), document.TypePANFront)

	wantImages := []string{"bin", "enh", "bin", "bin", "bin", "enh", "enh"}
	wantPSM := []string{"", "", "6", "3", "4", "6", "3"}
	if len(engine.inputs) != len(wantImages) {
		t.Fatalf("expected %d attempts, got %d", len(wantImages), len(engine.inputs))
	}
	for i, in := range engine.inputs {
		if !bytes.Equal(in.Image, []byte(wantImages[i])) {
			t.Fatalf("attempt %d ran against %q, want %q", i+1, in.Image, wantImages[i])
		}
		if got := in.Metadata["tessedit_pageseg_mode"]; got != wantPSM[i] {
			t.Fatalf("attempt %d psm = %q, want %q", i+1, got, wantPSM[i])
		}
		if len(in.Languages) != 1 || in.Languages[0] != "eng" {
			t.Fatalf("attempt %d languages = %v", i+1, in.Languages)
		}
	}
}

func TestCascadeAttemptFaultDoesNotAbort(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		outputs:   []string{"", "", strings.Repeat("z", 33)},
		errs:      []error{errors.New("ocr crashed"), errors.New("ocr crashed again")},
	}
	c := NewCascade(engine, Config{})
	got := c.Extract(context.Background(), testVariants(), document.TypeAadhaarFront)

	if got.Source != SourceOCR {
		t.Fatalf("source = %v, want ocr", got.Source)
	}
	if got.Text != strings.Repeat("z", 33) {
		t.Fatalf("faulting attempts should not abort the cascade, got %q", got.Text)
	}
	if got.Attempts[0].Err == nil || got.Attempts[1].Err == nil {
		t.Fatalf("attempt errors should be recorded: %+v", got.Attempts)
	}
}

func TestCascadeInsufficientTextUsesFallbackVerbatim(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		outputs:   []string{"tiny", "also tiny", "x", "", "y", "z", "w"},
	}
	c := NewCascade(engine, Config{})
	got := c.Extract(context.Background(), testVariants(), document.TypePANFront)

	if got.Source != SourceFallback {
		t.Fatalf("source = %v, want fallback", got.Source)
	}
	if got.Text != document.FallbackText(document.TypePANFront) {
		t.Fatalf("fallback text must be returned verbatim, got %q", got.Text)
	}
	if len(engine.inputs) != 7 {
		t.Fatalf("expected all attempts before fallback, got %d", len(engine.inputs))
	}
}

func TestCascadeUnavailableEngineSkipsAttempts(t *testing.T) {
	engine := &fakeEngine{available: false}
	c := NewCascade(engine, Config{})
	got := c.Extract(context.Background(), testVariants(), document.TypeTaxPapers)

	if len(engine.inputs) != 0 {
		t.Fatalf("unavailable engine must not be invoked, got %d calls", len(engine.inputs))
	}
	if got.Source != SourceFallback {
		t.Fatalf("source = %v, want fallback", got.Source)
	}
	if got.Text != document.FallbackText(document.TypeTaxPapers) {
		t.Fatalf("unexpected fallback text")
	}
}

func TestCascadeNilEngine(t *testing.T) {
	c := NewCascade(nil, Config{})
	got := c.Extract(context.Background(), testVariants(), document.Type("passport"))
	if got.Source != SourceFallback {
		t.Fatalf("nil engine must fall back, got %v", got.Source)
	}
	if !strings.Contains(got.Text, "passport") {
		t.Fatalf("unknown type should get the generic placeholder, got %q", got.Text)
	}
}

func TestCascadeCanceledContext(t *testing.T) {
	engine := &fakeEngine{available: true, outputs: []string{strings.Repeat("q", 90)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCascade(engine, Config{})
	got := c.Extract(ctx, testVariants(), document.TypeAadhaarFront)
	if len(engine.inputs) != 0 {
		t.Fatalf("canceled context must stop before the first attempt")
	}
	if got.Source != SourceFallback {
		t.Fatalf("canceled cascade should degrade to fallback, got %v", got.Source)
	}
}

func TestCascadeCustomThresholds(t *testing.T) {
	engine := &fakeEngine{available: true, outputs: []string{"abcdef"}}
	c := NewCascade(engine, Config{EarlyExitChars: 5, MinChars: 3})
	got := c.Extract(context.Background(), testVariants(), document.TypeAadhaarFront)

	if len(engine.inputs) != 1 {
		t.Fatalf("custom early exit ignored, %d calls", len(engine.inputs))
	}
	if got.Source != SourceOCR || got.Text != "abcdef" {
		t.Fatalf("unexpected extraction: %+v", got)
	}
}
