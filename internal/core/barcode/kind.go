package barcode

import "strings"

// Kind tags the physical symbology a detection was decoded from
type Kind string

// Known symbologies
const (
	KindUnknown    Kind = "unknown"
	KindEAN13      Kind = "ean13"
	KindEAN8       Kind = "ean8"
	KindUPCA       Kind = "upc_a"
	KindUPCE       Kind = "upc_e"
	KindCode128    Kind = "code128"
	KindCode39     Kind = "code39"
	KindITF14      Kind = "itf14"
	KindQR         Kind = "qr"
	KindDataMatrix Kind = "datamatrix"
)

var kindAliases = map[string]Kind{
	"ean13":      KindEAN13,
	"ean8":       KindEAN8,
	"upca":       KindUPCA,
	"upce":       KindUPCE,
	"code128":    KindCode128,
	"code39":     KindCode39,
	"itf14":      KindITF14,
	"itf":        KindITF14,
	"qr":         KindQR,
	"qrcode":     KindQR,
	"datamatrix": KindDataMatrix,
}

// ParseKind maps a capture-side symbology tag to a Kind
// it ignores case, separators and reverse-DNS prefixes such as "org.gs1.EAN-13"
func ParseKind(s string) Kind {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
	if k, ok := kindAliases[s]; ok {
		return k
	}
	return KindUnknown
}

// Numeric reports whether the symbology only ever carries digits
func (k Kind) Numeric() bool {
	switch k {
	case KindEAN13, KindEAN8, KindUPCA, KindUPCE, KindITF14:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (k Kind) String() string {
	if k == "" {
		return string(KindUnknown)
	}
	return string(k)
}
