package workerpool

// Range is a contiguous slice [Start, Start+Len) of a trial index space.
type Range struct {
	Start uint64
	Len   uint64
}

// End returns the exclusive upper bound of the range.
func (r Range) End() uint64 {
	return r.Start + r.Len
}

// Partition splits total into at most parts contiguous ranges. The remainder
// of the division goes one unit each to the leading ranges, so lengths differ
// by at most one and always sum to total. Empty ranges are not produced.
func Partition(total uint64, parts int) []Range {
	if parts < 1 {
		parts = 1
	}
	if uint64(parts) > total {
		parts = int(total)
	}
	if parts == 0 {
		return nil
	}

	chunk := total / uint64(parts)
	remainder := total % uint64(parts)

	ranges := make([]Range, parts)
	var start uint64
	for i := range ranges {
		n := chunk
		if uint64(i) < remainder {
			n++
		}
		ranges[i] = Range{Start: start, Len: n}
		start += n
	}
	return ranges
}
