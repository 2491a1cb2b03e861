package document

import "strings"

// Type tags the kind of identity or financial document being processed. It is
// supplied by the caller and drives which extraction and validation rules
// apply. Unlisted tags are still routed by substring category matching, so a
// caller-defined tag like "income-statement" reaches the tax rules.
type Type string

const (
	TypeAadhaarFront Type = "aadhaar-front"
	TypeAadhaarBack  Type = "aadhaar-back"
	TypePANFront     Type = "pan-front"
	TypePANBack      Type = "pan-back"
	TypeTaxPapers    Type = "tax-papers"
)

// Category groups document types by the rule set that applies to them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryAadhaar
	CategoryPAN
	CategoryTax
)

// Category routes a type to its rule set. Matching is by case-insensitive
// substring over the raw tag.
func (t Type) Category() Category {
	tag := strings.ToLower(string(t))
	switch {
	case strings.Contains(tag, "aadhaar"):
		return CategoryAadhaar
	case strings.Contains(tag, "pan"):
		return CategoryPAN
	case strings.Contains(tag, "tax"), strings.Contains(tag, "income"):
		return CategoryTax
	default:
		return CategoryUnknown
	}
}

// IsBack reports whether the tag names the reverse side of a card.
func (t Type) IsBack() bool {
	return strings.Contains(strings.ToLower(string(t)), "back")
}

func (t Type) String() string { return string(t) }

// Well-known field keys. Every record carries KeyDocumentType; all other
// fields are optional and absent when the pattern did not match.
const (
	KeyDocumentType  = "document_type"
	KeyName          = "name"
	KeyDOB           = "dob"
	KeyGender        = "gender"
	KeyAadhaarNumber = "aadhaar_number"
	KeyAddress       = "address"
	KeyPinCode       = "pin_code"
	KeyPANNumber     = "pan_number"
	KeyFatherName    = "father_name"
	KeyPAN           = "pan"
	KeyTaxYear       = "tax_year"
	KeyIncome        = "income"
	KeyTaxAmount     = "tax_amount"
)

// FieldRecord maps field names to extracted string values.
type FieldRecord map[string]string

// NewFieldRecord returns a record seeded with the document type.
func NewFieldRecord(t Type) FieldRecord {
	return FieldRecord{KeyDocumentType: string(t)}
}

// Get returns the value for key, or "" when absent.
func (r FieldRecord) Get(key string) string { return r[key] }

// Has reports whether key is present with a non-empty value.
func (r FieldRecord) Has(key string) bool { return r[key] != "" }

// Clone returns an independent copy of the record.
func (r FieldRecord) Clone() FieldRecord {
	out := make(FieldRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
