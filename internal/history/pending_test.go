package history

import (
	"testing"

	"versecast/internal/bible"
)

func TestPending(t *testing.T) {
	order := bible.Canonical()

	tests := []struct {
		name    string
		records []Record
		want    []bible.Key
	}{
		{
			name: "readingOrder",
			records: []Record{
				{Book: "Exodus", Chapter: 3},
				{Book: "Genesis", Chapter: 5},
				{Book: "Genesis", Chapter: 1},
			},
			want: []bible.Key{{Book: "Genesis", Chapter: 1}, {Book: "Genesis", Chapter: 5}, {Book: "Exodus", Chapter: 3}},
		},
		{
			name: "uploadedExcluded",
			records: []Record{
				{Book: "Ruth", Chapter: 2},
				{Book: "Ruth", Chapter: 1, Uploaded: true},
				{Book: "Ruth", Chapter: 3, Uploaded: true, VideoID: "abc"},
			},
			want: []bible.Key{{Book: "Ruth", Chapter: 2}},
		},
		{
			name: "unknownBookLast",
			records: []Record{
				{Book: "Enoch", Chapter: 1},
				{Book: "Revelation", Chapter: 22},
				{Book: "Genesis", Chapter: 1},
			},
			want: []bible.Key{{Book: "Genesis", Chapter: 1}, {Book: "Revelation", Chapter: 22}, {Book: "Enoch", Chapter: 1}},
		},
		{
			name: "numberedBooks",
			records: []Record{
				{Book: "2 Kings", Chapter: 1},
				{Book: "1 Kings", Chapter: 22},
				{Book: "1 Kings", Chapter: 9},
			},
			want: []bible.Key{{Book: "1 Kings", Chapter: 9}, {Book: "1 Kings", Chapter: 22}, {Book: "2 Kings", Chapter: 1}},
		},
		{
			name: "duplicatePendingOnce",
			records: []Record{
				{Book: "Ruth", Chapter: 1, FileName: "Ruth_Chapter_1.mp4"},
				{Book: "Ruth", Chapter: 1, FileName: "Ruth_Chapter_1 (copy).mp4"},
			},
			want: []bible.Key{{Book: "Ruth", Chapter: 1}},
		},
		{
			name: "firstEntryWins",
			records: []Record{
				{Book: "Ruth", Chapter: 1, Uploaded: true, VideoID: "abc"},
				{Book: "Ruth", Chapter: 1},
				{Book: "Ruth", Chapter: 2},
			},
			want: []bible.Key{{Book: "Ruth", Chapter: 2}},
		},
		{
			name:    "empty",
			records: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pending(tt.records, order)
			if len(got) != len(tt.want) {
				t.Fatalf("Pending() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, key := range tt.want {
				if got[i].Key() != key {
					t.Errorf("Pending()[%d] = %v, want %v", i, got[i].Key(), key)
				}
			}
		})
	}
}

func TestPendingDoesNotReorderInput(t *testing.T) {
	records := []Record{{Book: "Exodus", Chapter: 1}, {Book: "Genesis", Chapter: 1}}
	_ = Pending(records, bible.Canonical())

	if records[0].Book != "Exodus" {
		t.Error("Pending() mutated the input slice")
	}
}

func TestIndex(t *testing.T) {
	records := []Record{
		{Book: "Jonah", Chapter: 1, FileName: "first.mp4"},
		{Book: "Jonah", Chapter: 1, FileName: "second.mp4"},
		{Book: "Jonah", Chapter: 2, FileName: "third.mp4"},
	}

	idx := Index(records)
	if len(idx) != 2 {
		t.Fatalf("Index() has %d keys, want 2", len(idx))
	}
	if got := idx[bible.Key{Book: "Jonah", Chapter: 1}].FileName; got != "first.mp4" {
		t.Errorf("Index() kept %q, want first.mp4", got)
	}
}

func TestDuplicates(t *testing.T) {
	records := []Record{
		{Book: "Ruth", Chapter: 1},
		{Book: "Ruth", Chapter: 2},
		{Book: "Ruth", Chapter: 1, Uploaded: true},
		{Book: "Ruth", Chapter: 1, FileName: "third.mp4"},
	}

	got := Duplicates(records)
	if len(got) != 2 {
		t.Fatalf("Duplicates() returned %d records, want 2", len(got))
	}
	if !got[0].Uploaded || got[1].FileName != "third.mp4" {
		t.Errorf("Duplicates() = %+v, want the second and third Ruth 1 entries", got)
	}
	if dups := Duplicates(records[:2]); len(dups) != 0 {
		t.Errorf("Duplicates() = %+v, want none", dups)
	}
}
