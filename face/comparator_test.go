package face

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"testing"
)

type fakeVerifier struct {
	available bool
	match     Match
	err       error
	calls     int
	paths     []string
	sawFiles  bool
}

func (f *fakeVerifier) Name() string    { return "fake" }
func (f *fakeVerifier) Available() bool { return f.available }

func (f *fakeVerifier) Verify(_ context.Context, baselinePath, candidatePath string) (Match, error) {
	f.calls++
	f.paths = append(f.paths, baselinePath, candidatePath)
	_, err1 := os.Stat(baselinePath)
	_, err2 := os.Stat(candidatePath)
	f.sawFiles = err1 == nil && err2 == nil
	return f.match, f.err
}

func samplerFor(frames map[string]image.Image) FrameSampler {
	return func(path string) (image.Image, bool) {
		img, ok := frames[path]
		return img, ok
	}
}

func testFrames() map[string]image.Image {
	return map[string]image.Image{
		"a.mp4": uniform(color.Gray{Y: 128}, 32, 32),
		"b.mp4": uniform(color.Gray{Y: 128}, 32, 32),
		"w.mp4": uniform(color.White, 32, 32),
		"k.mp4": uniform(color.Black, 32, 32),
	}
}

func TestSamePersonMissingFrameSkipsCapability(t *testing.T) {
	verifier := &fakeVerifier{available: true, match: Match{Verified: true}}
	c := NewComparator(Config{Sampler: samplerFor(testFrames()), Verifier: verifier})

	if c.SamePerson(context.Background(), "missing.mp4", "b.mp4") {
		t.Fatalf("missing baseline frame must read as not verified")
	}
	if c.SamePerson(context.Background(), "a.mp4", "missing.mp4") {
		t.Fatalf("missing candidate frame must read as not verified")
	}
	if verifier.calls != 0 {
		t.Fatalf("capability must not be invoked without both frames, got %d calls", verifier.calls)
	}
}

func TestSamePersonUsesCapabilityVerdict(t *testing.T) {
	scratch := t.TempDir()
	verifier := &fakeVerifier{available: true, match: Match{Verified: true, Similarity: 0.9}}
	c := NewComparator(Config{
		Sampler:    samplerFor(testFrames()),
		Verifier:   verifier,
		ScratchDir: scratch,
	})

	// Frames are disjoint; only the capability verdict can say true here.
	if !c.SamePerson(context.Background(), "w.mp4", "k.mp4") {
		t.Fatalf("capability verdict should be returned")
	}
	if verifier.calls != 1 {
		t.Fatalf("expected one capability call, got %d", verifier.calls)
	}
	if !verifier.sawFiles {
		t.Fatalf("scratch frames must exist during the capability call")
	}
	for _, p := range verifier.paths {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("scratch file %s not removed after verification", p)
		}
	}
}

func TestSamePersonScratchRemovedOnCapabilityFailure(t *testing.T) {
	verifier := &fakeVerifier{available: true, err: errors.New("model crashed")}
	c := NewComparator(Config{
		Sampler:    samplerFor(testFrames()),
		Verifier:   verifier,
		ScratchDir: t.TempDir(),
	})

	// Identical frames: the histogram fallback should still verify the pair.
	if !c.SamePerson(context.Background(), "a.mp4", "b.mp4") {
		t.Fatalf("capability failure should fall back to histogram comparison")
	}
	for _, p := range verifier.paths {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("scratch file %s not removed after failed verification", p)
		}
	}
}

func TestSamePersonFallbackWithoutVerifier(t *testing.T) {
	c := NewComparator(Config{Sampler: samplerFor(testFrames())})

	if !c.SamePerson(context.Background(), "a.mp4", "b.mp4") {
		t.Fatalf("identical frames should verify via histogram fallback")
	}
	if c.SamePerson(context.Background(), "w.mp4", "k.mp4") {
		t.Fatalf("disjoint frames should not verify via histogram fallback")
	}
}

func TestSamePersonUnavailableVerifierFallsBack(t *testing.T) {
	verifier := &fakeVerifier{available: false, match: Match{Verified: true}}
	c := NewComparator(Config{Sampler: samplerFor(testFrames()), Verifier: verifier})

	if c.SamePerson(context.Background(), "w.mp4", "k.mp4") {
		t.Fatalf("unavailable capability must not decide the verdict")
	}
	if verifier.calls != 0 {
		t.Fatalf("unavailable capability should never be invoked")
	}
}

func TestSamePersonNoSamplerConfigured(t *testing.T) {
	c := NewComparator(Config{})
	if c.SamePerson(context.Background(), "a.mp4", "b.mp4") {
		t.Fatalf("missing sampler must read as not verified")
	}
}

func TestSamePersonContainsPanics(t *testing.T) {
	panicking := FrameSampler(func(string) (image.Image, bool) {
		panic("decoder blew up")
	})
	c := NewComparator(Config{Sampler: panicking})
	if c.SamePerson(context.Background(), "a.mp4", "b.mp4") {
		t.Fatalf("a panic inside the pipeline must read as not verified")
	}
}
