// Package fields parses OCR text into typed document field records using
// per-document-type pattern rules. Extraction is pure: no I/O, first match
// wins per field, and identical input always yields an identical record. A
// missing field is not an error; the validate package decides significance.
package fields

import (
	"regexp"
	"strings"

	"github.com/verifyd/kycpipe/document"
)

// Card labels appear in English or Hindi depending on the issuing template,
// so each label alternation carries both. PAN cards print holder names in
// uppercase; the strict pattern enforces that convention and the lenient one
// recovers mixed-case OCR reads, which are then normalized to uppercase.
var (
	nameStrict  = regexp.MustCompile(`(?i:Name|नाम)[:\s]+([A-Z][A-Z ]+)`)
	nameLenient = regexp.MustCompile(`(?i)(?:Name|नाम)[:\s]+([A-Za-z][A-Za-z ]+)`)

	dobPattern = regexp.MustCompile(`(?i)(?:DOB|Date of Birth|जन्म तिथि)[:\s]+(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)

	aadhaarGrouped = regexp.MustCompile(`\b(\d{4}\s?\d{4}\s?\d{4})\b`)
	aadhaarPlain   = regexp.MustCompile(`\b(\d{12})\b`)
	addressPattern = regexp.MustCompile(`(?is)(?:Address|पता)[:\s]+(.+)`)
	pinPattern     = regexp.MustCompile(`(?i)(?:Pin|Pincode|PIN Code)[:\s]+(\d{6})\b`)

	panPattern    = regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)
	fatherStrict  = regexp.MustCompile(`(?i:Father's Name|Father|पिता)[:\s]+([A-Z][A-Z ]+)`)
	fatherLenient = regexp.MustCompile(`(?i)(?:Father's Name|Father|पिता)[:\s]+([A-Za-z][A-Za-z ]+)`)

	taxYearPattern = regexp.MustCompile(`(?i)(?:Assessment Year|AY|Tax Year)[:\s]+(\d{4}-\d{2,4})`)
	incomePattern  = regexp.MustCompile(`(?i)(?:Gross Total Income|Total Income|Income)[:\s]+(?:Rs\.?|₹)?[,\s]*([\d,]+(?:\.\d{2})?)`)
	taxDuePattern  = regexp.MustCompile(`(?i)(?:Tax Payable|Total Tax)[:\s]+(?:Rs\.?|₹)?[,\s]*([\d,]+(?:\.\d{2})?)`)
	genderPattern  = regexp.MustCompile(`(?i)\b(Male|Female|Transgender)\b`)
)

// Extract parses text into a field record for docType. The returned record
// always carries document_type; every other field is present only when its
// pattern matched.
func Extract(text string, docType document.Type) document.FieldRecord {
	rec := document.NewFieldRecord(docType)
	cat := docType.Category()

	extractName(text, cat, rec)
	if m := dobPattern.FindStringSubmatch(text); m != nil {
		rec[document.KeyDOB] = strings.TrimSpace(m[1])
	}

	switch cat {
	case document.CategoryAadhaar:
		extractAadhaar(text, docType, rec)
	case document.CategoryPAN:
		extractPAN(text, rec)
	case document.CategoryTax:
		extractTax(text, rec)
	}
	return rec
}

func extractName(text string, cat document.Category, rec document.FieldRecord) {
	if cat == document.CategoryPAN {
		if m := nameStrict.FindStringSubmatch(text); m != nil {
			rec[document.KeyName] = strings.TrimSpace(m[1])
			return
		}
		// Mixed-case read on a card family that prints uppercase: accept it
		// and normalize to the issuing convention.
		if m := nameLenient.FindStringSubmatch(text); m != nil {
			rec[document.KeyName] = strings.ToUpper(strings.TrimSpace(m[1]))
		}
		return
	}
	if m := nameLenient.FindStringSubmatch(text); m != nil {
		rec[document.KeyName] = strings.TrimSpace(m[1])
	}
}

func extractAadhaar(text string, docType document.Type, rec document.FieldRecord) {
	for _, p := range []*regexp.Regexp{aadhaarGrouped, aadhaarPlain} {
		if m := p.FindStringSubmatch(text); m != nil {
			rec[document.KeyAadhaarNumber] = strings.ReplaceAll(m[1], " ", "")
			break
		}
	}
	if m := genderPattern.FindStringSubmatch(text); m != nil {
		g := strings.ToLower(m[1])
		rec[document.KeyGender] = strings.ToUpper(g[:1]) + g[1:]
	}
	if docType.IsBack() {
		if !rec.Has(document.KeyAddress) {
			if m := addressPattern.FindStringSubmatch(text); m != nil {
				rec[document.KeyAddress] = strings.TrimSpace(m[1])
			}
		}
		if m := pinPattern.FindStringSubmatch(text); m != nil {
			rec[document.KeyPinCode] = m[1]
		}
	}
}

func extractPAN(text string, rec document.FieldRecord) {
	if m := panPattern.FindStringSubmatch(text); m != nil {
		rec[document.KeyPANNumber] = m[1]
	}
	if m := fatherStrict.FindStringSubmatch(text); m != nil {
		rec[document.KeyFatherName] = strings.TrimSpace(m[1])
	} else if m := fatherLenient.FindStringSubmatch(text); m != nil {
		rec[document.KeyFatherName] = strings.ToUpper(strings.TrimSpace(m[1]))
	}
}

func extractTax(text string, rec document.FieldRecord) {
	// Deliberately stored under "pan", not "pan_number": the tax flow and the
	// PAN-card flow are distinct call sites downstream.
	if m := panPattern.FindStringSubmatch(text); m != nil {
		rec[document.KeyPAN] = m[1]
	}
	if m := taxYearPattern.FindStringSubmatch(text); m != nil {
		rec[document.KeyTaxYear] = m[1]
	}
	if m := incomePattern.FindStringSubmatch(text); m != nil {
		rec[document.KeyIncome] = strings.ReplaceAll(m[1], ",", "")
	}
	if m := taxDuePattern.FindStringSubmatch(text); m != nil {
		rec[document.KeyTaxAmount] = strings.ReplaceAll(m[1], ",", "")
	}
}
