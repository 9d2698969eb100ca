package tracking

// NextEventNumber computes the sequence number a new event should take
// within its scope: the maximum existing number plus one, starting at one
// when the scope holds no numbered events. Events without a number count
// as zero. The computation is read-then-write racy on purpose; a
// concurrent creation that lands on the same number fails the unique
// constraint at commit and surfaces as a conflict.
func NextEventNumber(existing []Event) int64 {
	var highest int64
	for _, event := range existing {
		if event.SequenceNumber != nil && *event.SequenceNumber > highest {
			highest = *event.SequenceNumber
		}
	}
	return highest + 1
}

// firstFreeNumber scans upward from the starting value and returns the
// first number not present in the used set.
func firstFreeNumber(used map[int64]bool, from int64) int64 {
	candidate := from
	if candidate < 1 {
		candidate = 1
	}
	for used[candidate] {
		candidate++
	}
	return candidate
}
