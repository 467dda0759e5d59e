package consensus

// DefaultThreshold is the minimum count a code needs before it is promoted
const DefaultThreshold = 5

// Kind is the verdict of one evaluation
type Kind int

// Verdicts
const (
	NoEvidence Kind = iota
	InsufficientEvidence
	Promote
)

// String implements fmt.Stringer
func (k Kind) String() string {
	switch k {
	case NoEvidence:
		return "no_evidence"
	case InsufficientEvidence:
		return "insufficient"
	case Promote:
		return "promote"
	default:
		return "unknown"
	}
}

// Decision is the result of Evaluate; Code and Count are empty for NoEvidence
type Decision struct {
	Kind  Kind   `json:"kind"`
	Code  string `json:"code,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Evaluate picks the leading code of a burst
//
// entries whose code isInvalid reports true are ignored. The leader is the entry
// with the greatest count; ties go to the lexicographically smallest code so the
// result does not depend on map iteration order. A leader at or above threshold is
// promoted. threshold <= 0 means DefaultThreshold
func Evaluate(entries []Entry, isInvalid func(string) bool, threshold int) Decision {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var (
		best  Entry
		found bool
	)
	for _, e := range entries {
		if e.Count <= 0 {
			continue
		}
		if isInvalid != nil && isInvalid(e.Code) {
			continue
		}
		if !found || e.Count > best.Count || (e.Count == best.Count && e.Code < best.Code) {
			best = e
			found = true
		}
	}

	if !found {
		return Decision{Kind: NoEvidence}
	}
	if best.Count >= threshold {
		return Decision{Kind: Promote, Code: best.Code, Count: best.Count}
	}
	return Decision{Kind: InsufficientEvidence, Code: best.Code, Count: best.Count}
}
