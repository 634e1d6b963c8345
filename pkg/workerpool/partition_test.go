package workerpool

import (
	"math"
	"testing"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name    string
		total   uint64
		parts   int
		wantLen []uint64
	}{
		{name: "even split", total: 12, parts: 4, wantLen: []uint64{3, 3, 3, 3}},
		{name: "remainder to leading ranges", total: 10, parts: 4, wantLen: []uint64{3, 3, 2, 2}},
		{name: "more parts than trials", total: 3, parts: 8, wantLen: []uint64{1, 1, 1}},
		{name: "non-positive parts", total: 5, parts: 0, wantLen: []uint64{5}},
		{name: "zero total", total: 0, parts: 4, wantLen: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Partition(tt.total, tt.parts)
			if len(got) != len(tt.wantLen) {
				t.Fatalf("expected %d ranges, got %d (%v)", len(tt.wantLen), len(got), got)
			}
			var next uint64
			for i, r := range got {
				if r.Len != tt.wantLen[i] {
					t.Errorf("range %d: expected len %d, got %d", i, tt.wantLen[i], r.Len)
				}
				if r.Start != next {
					t.Errorf("range %d: expected start %d, got %d", i, next, r.Start)
				}
				next = r.End()
			}
			if next != tt.total {
				t.Errorf("ranges cover %d, expected %d", next, tt.total)
			}
		})
	}
}

func TestPartitionMaxTrials(t *testing.T) {
	ranges := Partition(math.MaxUint64, 7)
	var sum uint64
	for _, r := range ranges {
		sum += r.Len
	}
	if sum != math.MaxUint64 {
		t.Fatalf("expected ranges to sum to MaxUint64, got %d", sum)
	}
	if last := ranges[len(ranges)-1]; last.End() != math.MaxUint64 {
		t.Fatalf("expected last range to end at MaxUint64, got %d", last.End())
	}
}
