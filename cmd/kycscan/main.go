// Command kycscan runs the KYC pipelines from the command line: OCR a
// document photo into validated fields, or compare the faces in two
// verification videos.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/verifyd/kycpipe/docproc"
	"github.com/verifyd/kycpipe/document"
	"github.com/verifyd/kycpipe/face"
	"github.com/verifyd/kycpipe/face/haar"
	"github.com/verifyd/kycpipe/imaging"
	"github.com/verifyd/kycpipe/ocr/tesseract"
	"github.com/verifyd/kycpipe/video"
)

type options struct {
	docPath  string
	docType  string
	baseline string
	video    string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kycscan: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "kycscan: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: kycscan -doc photo.jpg -type aadhaar-front\n")
		fmt.Fprintf(flag.CommandLine.Output(), "       kycscan -baseline a.mp4 -video b.mp4\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.docPath, "doc", "", "Document photo to process")
	flag.StringVar(&opts.docType, "type", string(document.TypeAadhaarFront), "Document type tag")
	flag.StringVar(&opts.baseline, "baseline", "", "Baseline verification video")
	flag.StringVar(&opts.video, "video", "", "New verification video to compare")
	flag.Parse()

	if opts.docPath == "" && (opts.baseline == "" || opts.video == "") {
		return opts, fmt.Errorf("need either -doc, or both -baseline and -video")
	}
	return opts, nil
}

func run(opts options) error {
	ctx := context.Background()
	if opts.docPath != "" {
		return runDocument(ctx, opts)
	}
	return runFace(ctx, opts)
}

func runDocument(ctx context.Context, opts options) error {
	data, err := os.ReadFile(opts.docPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	processor := docproc.New(docproc.Config{
		Normalizer: imaging.NewNormalizer(imaging.Config{}),
		Engine:     tesseract.New(),
	})
	res, err := processor.Process(ctx, data, document.Type(opts.docType))
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runFace(ctx context.Context, opts options) error {
	comparator := face.NewComparator(face.Config{
		Sampler:  video.FirstFrame,
		Verifier: haar.New(haar.Config{}),
	})
	verified := comparator.SamePerson(ctx, opts.baseline, opts.video)
	return printJSON(map[string]bool{"verified": verified})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
