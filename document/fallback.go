package document

import "fmt"

// Fallback corpus: canned OCR text and field records per document type, used
// when live extraction yields insufficient signal. Values mirror the issuing
// conventions each card family prints (4-4-4 Aadhaar grouping, uppercase PAN
// holder names) so the downstream extraction and validation rules exercise
// the same paths as genuine scans.

var fallbackText = map[Type]string{
	TypeAadhaarFront: `
	Government of India
	Unique Identification Authority of India
	AADHAAR
	1234 5678 9012
	John Doe
	DOB: 01/01/1990
	Male
	`,
	TypeAadhaarBack: `
	Address: 123 Main St, Mumbai, Maharashtra
	Pin: 400001
	India
	`,
	TypePANFront: `
	INCOME TAX DEPARTMENT
	GOVT. OF INDIA
	Permanent Account Number
	ABCDE1234F
	Name: John Doe
	Father's Name: Robert Doe
	DOB: 01/01/1990
	`,
	TypePANBack: `
	Signature
	`,
	TypeTaxPapers: `
	INCOME TAX RETURN
	Assessment Year: 2023-24
	PAN: ABCDE1234F
	Name: John Doe
	Gross Total Income: Rs. 950,000
	Tax Payable: Rs. 76,000
	Employment Type: Salaried
	`,
}

var fallbackFields = map[Type]FieldRecord{
	TypeAadhaarFront: {
		KeyDocumentType:  string(TypeAadhaarFront),
		KeyName:          "John Doe",
		KeyDOB:           "01/01/1990",
		KeyAadhaarNumber: "123456789012",
		KeyGender:        "Male",
	},
	TypeAadhaarBack: {
		KeyDocumentType: string(TypeAadhaarBack),
		KeyAddress:      "123 Main St, Mumbai, Maharashtra",
		KeyPinCode:      "400001",
	},
	TypePANFront: {
		KeyDocumentType: string(TypePANFront),
		KeyName:         "John Doe",
		KeyFatherName:   "Robert Doe",
		KeyDOB:          "01/01/1990",
		KeyPANNumber:    "ABCDE1234F",
	},
	TypePANBack: {
		KeyDocumentType: string(TypePANBack),
	},
	TypeTaxPapers: {
		KeyDocumentType: string(TypeTaxPapers),
		KeyName:         "John Doe",
		KeyPAN:          "ABCDE1234F",
		KeyTaxYear:      "2023-24",
		KeyIncome:       "950000",
		KeyTaxAmount:    "76000",
	},
}

// FallbackText returns the canned OCR text for t. Unrecognized types get a
// generic placeholder, so the extraction cascade never returns empty text.
func FallbackText(t Type) string {
	if text, ok := fallbackText[t]; ok {
		return text
	}
	return fmt.Sprintf("Document type: %s\nSample extracted text for development.", t)
}

// FallbackFields returns a copy of the canned field record for t, or false
// when the type has none.
func FallbackFields(t Type) (FieldRecord, bool) {
	rec, ok := fallbackFields[t]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}
