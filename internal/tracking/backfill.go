package tracking

import (
	"sort"

	"gorm.io/gorm"
)

// ParseLegacyNumber extracts a numeric value from a legacy free-text letter
// number by keeping only digit characters. The second return is false when
// the text holds no digits at all.
func ParseLegacyNumber(raw string) (int64, bool) {
	var value int64
	found := false
	for _, ch := range raw {
		if ch < '0' || ch > '9' {
			continue
		}
		value = value*10 + int64(ch-'0')
		found = true
	}
	return value, found
}

// BackfillChange records one sequence number the backfill wants to write.
type BackfillChange struct {
	LetterID       int64
	SequenceNumber int64
}

// PlanLetterNumberBackfill computes the repair for legacy letter numbering.
// Letters missing a sequence number get one parsed from their legacy text;
// within each event, a duplicated number stays on the earliest-created
// letter and every later holder moves up to the first number at or above
// its current value that no letter in the event occupies. Letters whose
// legacy text holds no digits take the first free slot. Letters holding a
// unique number are never touched. Running the plan over already-repaired
// data yields no changes.
func PlanLetterNumberBackfill(letters []Letter) []BackfillChange {
	type candidate struct {
		letterID int64
		stored   *int64
		number   *int64
	}

	byEvent := map[int64][]candidate{}
	eventIDs := []int64{}
	for _, letter := range letters {
		number := letter.SequenceNumber
		if number == nil {
			if parsed, ok := ParseLegacyNumber(letter.LegacyNumber); ok {
				value := parsed
				number = &value
			}
		}
		if _, seen := byEvent[letter.EventID]; !seen {
			eventIDs = append(eventIDs, letter.EventID)
		}
		byEvent[letter.EventID] = append(byEvent[letter.EventID], candidate{
			letterID: letter.ID,
			stored:   letter.SequenceNumber,
			number:   number,
		})
	}
	sort.Slice(eventIDs, func(i, j int) bool { return eventIDs[i] < eventIDs[j] })

	changes := []BackfillChange{}
	for _, eventID := range eventIDs {
		members := byEvent[eventID]

		// Every number present in the event is occupied before any
		// reassignment starts, so a displaced duplicate jumps past numbers
		// other letters hold instead of cascading onto them. Each number
		// belongs to its earliest-created holder.
		used := map[int64]bool{}
		keeper := map[int64]int64{}
		for _, member := range members {
			if member.number == nil {
				continue
			}
			used[*member.number] = true
			if holder, claimed := keeper[*member.number]; !claimed || member.letterID < holder {
				keeper[*member.number] = member.letterID
			}
		}

		// Displaced duplicates move in number order, earliest letter first;
		// unnumbered letters fill free slots after.
		sort.SliceStable(members, func(i, j int) bool {
			first, second := members[i], members[j]
			switch {
			case first.number == nil && second.number == nil:
				return first.letterID < second.letterID
			case first.number == nil:
				return false
			case second.number == nil:
				return true
			case *first.number != *second.number:
				return *first.number < *second.number
			default:
				return first.letterID < second.letterID
			}
		})

		for _, member := range members {
			var assigned int64
			switch {
			case member.number == nil:
				assigned = firstFreeNumber(used, 1)
				used[assigned] = true
			case keeper[*member.number] == member.letterID:
				assigned = *member.number
			default:
				assigned = firstFreeNumber(used, *member.number)
				used[assigned] = true
			}
			if member.stored == nil || *member.stored != assigned {
				changes = append(changes, BackfillChange{LetterID: member.letterID, SequenceNumber: assigned})
			}
		}
	}
	return changes
}

// BackfillLetterNumbers loads every letter, plans the repair, and persists
// the resulting numbers. It returns how many letters changed; zero on a
// repeat run.
func BackfillLetterNumbers(db *gorm.DB) (int, error) {
	var letters []Letter
	if err := db.Order("event_id, id").Find(&letters).Error; err != nil {
		return 0, err
	}

	changes := PlanLetterNumberBackfill(letters)
	if len(changes) == 0 {
		return 0, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, change := range changes {
			if err := tx.Model(&Letter{}).
				Where("id = ?", change.LetterID).
				Update("sequence_number", change.SequenceNumber).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(changes), nil
}
