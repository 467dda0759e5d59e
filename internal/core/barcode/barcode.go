// Package barcode canonicalizes decoded barcode values into stable identities
// Pipeline order
// 1 Sanitize repairs UTF-8, folds fullwidth forms, strips control and format chars, trims
// 2 Normalize strips leading zeros then pads to the canonical width of the length class
package barcode

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

const (
	// ShortWidth is the canonical width of the short symbology family (EAN-8)
	ShortWidth = 8
	// LongWidth is the canonical width of the long symbology family (EAN-13, UPC-A padded)
	LongWidth = 13
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			width.Fold,                         // fullwidth digits from some IMEs and scanner keyboards
			runes.Remove(runes.In(unicode.Cc)), // CR, LF, GS (FNC1 separator) and friends
			runes.Remove(runes.In(unicode.Cf)), // zero-widths and BOM
		)
	},
}

// Sanitize cleans a decoded value before normalization
// it never adds characters so an empty result means the detection carried no value
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToValidUTF8(raw, "")

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// Accept reports whether a sanitized value is usable as a detection
func Accept(s string) bool { return s != "" }

// Normalize returns the canonical form of raw
//
//	length <= 7  -> left pad to 8
//	length 9..12 -> left pad to 13
//	length 8, 13 or > 13 stays as is
//
// Normalize is total and idempotent: Normalize(Normalize(x)) == Normalize(x)
func Normalize(raw string) string {
	s := strings.TrimLeft(raw, "0")
	n := utf8.RuneCountInString(s)
	switch {
	case n < ShortWidth:
		return pad(s, n, ShortWidth)
	case n > ShortWidth && n < LongWidth:
		return pad(s, n, LongWidth)
	default:
		return s
	}
}

func pad(s string, n, w int) string {
	return strings.Repeat("0", w-n) + s
}

// Clean is Sanitize followed by Normalize, ok is false when nothing usable remains
func Clean(raw string) (string, bool) {
	s := Sanitize(raw)
	if !Accept(s) {
		return "", false
	}
	return Normalize(s), true
}
