package fields

import (
	"reflect"
	"testing"

	"github.com/verifyd/kycpipe/document"
)

func TestExtractAlwaysCarriesDocumentType(t *testing.T) {
	rec := Extract("", document.TypePANFront)
	if rec.Get(document.KeyDocumentType) != "pan-front" {
		t.Fatalf("missing document_type: %v", rec)
	}
}

func TestExtractNameUppercaseOnPAN(t *testing.T) {
	rec := Extract("Name: JOHN DOE", document.TypePANFront)
	if got := rec.Get(document.KeyName); got != "JOHN DOE" {
		t.Fatalf("name = %q, want JOHN DOE", got)
	}
}

func TestExtractNameLenientUppercasedOnPAN(t *testing.T) {
	rec := Extract("Name: John Doe", document.TypePANFront)
	if got := rec.Get(document.KeyName); got != "JOHN DOE" {
		t.Fatalf("lenient PAN name should be uppercased, got %q", got)
	}
}

func TestExtractNameMixedCaseOnAadhaar(t *testing.T) {
	rec := Extract("Name: John Doe", document.TypeAadhaarFront)
	if got := rec.Get(document.KeyName); got != "John Doe" {
		t.Fatalf("name = %q, want John Doe", got)
	}
	// Already-uppercase text passes through the lenient pattern unchanged.
	rec = Extract("Name: JOHN DOE", document.TypeAadhaarFront)
	if got := rec.Get(document.KeyName); got != "JOHN DOE" {
		t.Fatalf("name = %q, want JOHN DOE", got)
	}
}

func TestExtractDOB(t *testing.T) {
	tests := []string{
		"DOB: 01/01/1990",
		"Date of Birth: 1-1-1990",
		"dob: 01/01/90",
	}
	for _, text := range tests {
		rec := Extract(text, document.TypeAadhaarFront)
		if !rec.Has(document.KeyDOB) {
			t.Fatalf("no dob extracted from %q", text)
		}
	}
}

func TestExtractAadhaarNumber(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"1234 5678 9012", "123456789012"},
		{"123456789012", "123456789012"},
		{"Aadhaar 9876 5432 1098 issued", "987654321098"},
	}
	for _, tt := range tests {
		rec := Extract(tt.text, document.TypeAadhaarFront)
		if got := rec.Get(document.KeyAadhaarNumber); got != tt.want {
			t.Fatalf("aadhaar_number from %q = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractAadhaarBackAddress(t *testing.T) {
	text := "Address: 123 Main St, Mumbai, Maharashtra\nPin: 400001\nIndia"
	rec := Extract(text, document.TypeAadhaarBack)
	if !rec.Has(document.KeyAddress) {
		t.Fatalf("no address extracted")
	}
	if got := rec.Get(document.KeyPinCode); got != "400001" {
		t.Fatalf("pin_code = %q, want 400001", got)
	}

	// Front side never captures an address.
	rec = Extract(text, document.TypeAadhaarFront)
	if rec.Has(document.KeyAddress) {
		t.Fatalf("front side should not capture address")
	}
}

func TestExtractPANCard(t *testing.T) {
	text := "Permanent Account Number\nABCDE1234F\nName: John Doe\nFather's Name: Robert Doe"
	rec := Extract(text, document.TypePANFront)
	if got := rec.Get(document.KeyPANNumber); got != "ABCDE1234F" {
		t.Fatalf("pan_number = %q", got)
	}
	if got := rec.Get(document.KeyFatherName); got != "ROBERT DOE" {
		t.Fatalf("father_name = %q, want ROBERT DOE", got)
	}
	if rec.Has(document.KeyPAN) {
		t.Fatalf("PAN card must use pan_number, not pan")
	}
}

func TestExtractFatherNameStrict(t *testing.T) {
	rec := Extract("Father's Name: ROBERT DOE", document.TypePANFront)
	if got := rec.Get(document.KeyFatherName); got != "ROBERT DOE" {
		t.Fatalf("father_name = %q", got)
	}
}

func TestExtractTaxPapers(t *testing.T) {
	text := "INCOME TAX RETURN\nAssessment Year: 2023-24\nPAN: ABCDE1234F\nName: John Doe\n" +
		"Gross Total Income: Rs. 950,000\nTax Payable: Rs. 76,000"
	rec := Extract(text, document.TypeTaxPapers)
	if got := rec.Get(document.KeyPAN); got != "ABCDE1234F" {
		t.Fatalf("pan = %q", got)
	}
	if rec.Has(document.KeyPANNumber) {
		t.Fatalf("tax documents must use pan, not pan_number")
	}
	if got := rec.Get(document.KeyTaxYear); got != "2023-24" {
		t.Fatalf("tax_year = %q", got)
	}
	if got := rec.Get(document.KeyIncome); got != "950000" {
		t.Fatalf("income separators should be stripped, got %q", got)
	}
	if got := rec.Get(document.KeyTaxAmount); got != "76000" {
		t.Fatalf("tax_amount = %q", got)
	}
}

func TestExtractTaxDecimals(t *testing.T) {
	rec := Extract("Total Income: ₹ 1,234,567.89", document.TypeTaxPapers)
	if got := rec.Get(document.KeyIncome); got != "1234567.89" {
		t.Fatalf("income = %q, want 1234567.89", got)
	}
}

func TestExtractMissingFieldsAreAbsent(t *testing.T) {
	rec := Extract("nothing recognizable here", document.TypeTaxPapers)
	for _, key := range []string{document.KeyPAN, document.KeyTaxYear, document.KeyIncome, document.KeyTaxAmount} {
		if rec.Has(key) {
			t.Fatalf("unexpected %s in %v", key, rec)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := document.FallbackText(document.TypeTaxPapers)
	first := Extract(text, document.TypeTaxPapers)
	for i := 0; i < 10; i++ {
		if got := Extract(text, document.TypeTaxPapers); !reflect.DeepEqual(got, first) {
			t.Fatalf("extraction is not deterministic: %v vs %v", got, first)
		}
	}
}
