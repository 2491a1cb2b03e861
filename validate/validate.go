// Package validate decides whether an extracted field record is acceptable
// for its document type. Two surfaces exist: Validate is the quick pass/fail
// the document pipeline uses to decide fallback substitution, and
// DocumentData is the richer re-check that separates validity-blocking
// errors from informational warnings.
package validate

import (
	"regexp"
	"strings"

	"github.com/verifyd/kycpipe/document"
)

var (
	aadhaarFormat = regexp.MustCompile(`^\d{12}$`)
	panFormat     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// Outcome is the result of a rich validation pass. Valid is false iff at
// least one error is present; warnings never block validity.
type Outcome struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (o *Outcome) addError(msg string) {
	o.Valid = false
	o.Errors = append(o.Errors, msg)
}

func (o *Outcome) addWarning(msg string) {
	o.Warnings = append(o.Warnings, msg)
}

// Validate reports whether rec passes the minimum bar for docType. The raw
// extracted text backs the weak "something was read" heuristic applied to
// unrecognized types.
func Validate(docType document.Type, text string, rec document.FieldRecord) bool {
	switch docType.Category() {
	case document.CategoryAadhaar:
		return aadhaarFormat.MatchString(rec.Get(document.KeyAadhaarNumber))
	case document.CategoryPAN:
		return panFormat.MatchString(rec.Get(document.KeyPANNumber))
	case document.CategoryTax:
		return rec.Has(document.KeyIncome) &&
			(rec.Has(document.KeyName) || rec.Has(document.KeyPAN))
	default:
		return len(strings.TrimSpace(text)) > 20
	}
}

// DocumentData performs the rich validation pass for docType over rec.
func DocumentData(docType document.Type, rec document.FieldRecord) Outcome {
	out := Outcome{Valid: true, Errors: []string{}, Warnings: []string{}}

	switch docType.Category() {
	case document.CategoryAadhaar:
		switch {
		case !rec.Has(document.KeyAadhaarNumber):
			out.addError("Aadhaar number is missing")
		case !aadhaarFormat.MatchString(rec.Get(document.KeyAadhaarNumber)):
			out.addError("Invalid Aadhaar number format")
		}
		if !rec.Has(document.KeyName) {
			out.addWarning("Name not found in document")
		}
	case document.CategoryPAN:
		switch {
		case !rec.Has(document.KeyPANNumber):
			out.addError("PAN number is missing")
		case !panFormat.MatchString(rec.Get(document.KeyPANNumber)):
			out.addError("Invalid PAN number format")
		}
		if !rec.Has(document.KeyName) {
			out.addWarning("Name not found in document")
		}
	case document.CategoryTax:
		if !rec.Has(document.KeyIncome) {
			out.addError("Income information not found")
		}
		if !rec.Has(document.KeyTaxYear) {
			out.addWarning("Tax year not found")
		}
		if !panFormat.MatchString(rec.Get(document.KeyPAN)) {
			out.addWarning("Valid PAN number not found in tax document")
		}
	}
	return out
}
