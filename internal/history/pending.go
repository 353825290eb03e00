package history

import (
	"slices"

	"versecast/internal/bible"
)

// Pending returns the records not yet uploaded in reading order: canonical
// book index first, chapter second. Books missing from order sort last.
// Only the first record per key counts, matching Index and Store.Update.
func Pending(records []Record, order bible.Order) []Record {
	var pending []Record
	seen := make(map[bible.Key]bool, len(records))
	for _, r := range records {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		if !r.Uploaded {
			pending = append(pending, r)
		}
	}

	slices.SortStableFunc(pending, func(a, b Record) int {
		return order.Compare(a.Key(), b.Key())
	})
	return pending
}

// Duplicates returns every record whose key already appeared earlier in
// records.
func Duplicates(records []Record) []Record {
	var dups []Record
	seen := make(map[bible.Key]bool, len(records))
	for _, r := range records {
		if seen[r.Key()] {
			dups = append(dups, r)
			continue
		}
		seen[r.Key()] = true
	}
	return dups
}

// Index builds a lookup of records by key. Later duplicates are ignored.
func Index(records []Record) map[bible.Key]Record {
	byKey := make(map[bible.Key]Record, len(records))
	for _, r := range records {
		if _, ok := byKey[r.Key()]; !ok {
			byKey[r.Key()] = r
		}
	}
	return byKey
}
