package identifier

import (
	"regexp"
	"strings"
)

// CodeType is the detected identifier family of a scanned code.
type CodeType string

const (
	TypeUPC   CodeType = "upc"
	TypeEAN   CodeType = "ean"
	TypeASIN  CodeType = "asin"
	TypeFNSKU CodeType = "fnsku"
)

var (
	digitsRe     = regexp.MustCompile(`^[0-9]+$`)
	asinModernRe = regexp.MustCompile(`^B0[0-9A-Z]{8}$`)
	asinLegacyRe = regexp.MustCompile(`^B[0-9]{2}[0-9A-Z]{7}$`)
)

// Normalize trims surrounding whitespace and uppercases the code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Classify determines the identifier family of a normalized code.
//
// Pure-numeric codes map onto retail barcode standards by length. Ten
// character codes starting with "B0" (or the older "B" plus two digits
// shape) are Amazon ASINs. Everything else is treated as an FNSKU,
// which is the common case for warehouse labels.
func Classify(code string) CodeType {
	code = Normalize(code)

	if digitsRe.MatchString(code) {
		switch len(code) {
		case 12:
			return TypeUPC
		case 13:
			return TypeEAN
		}
	}

	if asinModernRe.MatchString(code) || asinLegacyRe.MatchString(code) {
		return TypeASIN
	}

	return TypeFNSKU
}
