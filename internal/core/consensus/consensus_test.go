package consensus

import (
	"reflect"
	"testing"
)

func TestTally_RecordSnapshotClear(t *testing.T) {
	tl := NewTally()
	for _, c := range []string{"B", "A", "B", "C", "B", "A"} {
		tl.Record(c)
	}

	if tl.Len() != 3 || tl.Total() != 6 {
		t.Fatalf("len=%d total=%d", tl.Len(), tl.Total())
	}
	if tl.Count("B") != 3 || tl.Count("missing") != 0 {
		t.Fatalf("counts wrong: B=%d", tl.Count("B"))
	}

	want := []Entry{{"A", 2}, {"B", 3}, {"C", 1}}
	if got := tl.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %+v, want %+v", got, want)
	}

	tl.Clear()
	if tl.Len() != 0 || tl.Total() != 0 || len(tl.Snapshot()) != 0 {
		t.Fatalf("clear left state behind")
	}

	tl.Record("A")
	if tl.Count("A") != 1 {
		t.Fatalf("tally not reusable after clear")
	}
}

func TestTally_ZeroValueUsable(t *testing.T) {
	var tl Tally
	tl.Record("X")
	if tl.Count("X") != 1 {
		t.Fatalf("zero value tally should record")
	}
}

func TestEvaluate_Table(t *testing.T) {
	invalid := map[string]bool{"BAD": true}
	isInvalid := func(c string) bool { return invalid[c] }

	tests := []struct {
		name      string
		entries   []Entry
		threshold int
		want      Decision
	}{
		{
			name: "empty",
			want: Decision{Kind: NoEvidence},
		},
		{
			name:    "only invalid codes",
			entries: []Entry{{"BAD", 9}},
			want:    Decision{Kind: NoEvidence},
		},
		{
			name:      "below threshold",
			entries:   []Entry{{"A", 3}, {"B", 1}},
			threshold: 5,
			want:      Decision{Kind: InsufficientEvidence, Code: "A", Count: 3},
		},
		{
			name:      "exactly at threshold promotes",
			entries:   []Entry{{"A", 5}},
			threshold: 5,
			want:      Decision{Kind: Promote, Code: "A", Count: 5},
		},
		{
			name:      "invalid leader is skipped",
			entries:   []Entry{{"BAD", 12}, {"A", 6}},
			threshold: 5,
			want:      Decision{Kind: Promote, Code: "A", Count: 6},
		},
		{
			name:      "tie goes to smallest code",
			entries:   []Entry{{"0000000000002", 5}, {"0000000000001", 5}},
			threshold: 5,
			want:      Decision{Kind: Promote, Code: "0000000000001", Count: 5},
		},
		{
			name:    "zero threshold uses default",
			entries: []Entry{{"A", 4}},
			want:    Decision{Kind: InsufficientEvidence, Code: "A", Count: 4},
		},
		{
			name:      "zero counts ignored",
			entries:   []Entry{{"A", 0}},
			threshold: 1,
			want:      Decision{Kind: NoEvidence},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.entries, isInvalid, tc.threshold)
			if got != tc.want {
				t.Fatalf("Evaluate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestEvaluate_OrderIndependent(t *testing.T) {
	a := []Entry{{"B", 4}, {"A", 4}, {"C", 2}}
	b := []Entry{{"C", 2}, {"A", 4}, {"B", 4}}
	if Evaluate(a, nil, 3) != Evaluate(b, nil, 3) {
		t.Fatalf("result depends on entry order")
	}
}

func TestKind_String(t *testing.T) {
	if NoEvidence.String() != "no_evidence" || Promote.String() != "promote" || Kind(99).String() != "unknown" {
		t.Fatalf("kind strings wrong")
	}
}
