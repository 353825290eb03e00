package bible

import "strings"

const UnknownIndex = 999

type Testament string

const (
	OldTestament Testament = "old"
	NewTestament Testament = "new"
)

type Book struct {
	Name      string
	Abbrev    string
	Chapters  int
	Testament Testament
}

type Key struct {
	Book    string
	Chapter int
}

var books = []Book{
	{"Genesis", "gn", 50, OldTestament},
	{"Exodus", "ex", 40, OldTestament},
	{"Leviticus", "lv", 27, OldTestament},
	{"Numbers", "nm", 36, OldTestament},
	{"Deuteronomy", "dt", 34, OldTestament},
	{"Joshua", "js", 24, OldTestament},
	{"Judges", "jud", 21, OldTestament},
	{"Ruth", "rt", 4, OldTestament},
	{"1 Samuel", "1sm", 31, OldTestament},
	{"2 Samuel", "2sm", 24, OldTestament},
	{"1 Kings", "1kgs", 22, OldTestament},
	{"2 Kings", "2kgs", 25, OldTestament},
	{"1 Chronicles", "1ch", 29, OldTestament},
	{"2 Chronicles", "2ch", 36, OldTestament},
	{"Ezra", "ezr", 10, OldTestament},
	{"Nehemiah", "ne", 13, OldTestament},
	{"Esther", "et", 10, OldTestament},
	{"Job", "job", 42, OldTestament},
	{"Psalms", "ps", 150, OldTestament},
	{"Proverbs", "prv", 31, OldTestament},
	{"Ecclesiastes", "ec", 12, OldTestament},
	{"Song of Solomon", "so", 8, OldTestament},
	{"Isaiah", "is", 66, OldTestament},
	{"Jeremiah", "jr", 52, OldTestament},
	{"Lamentations", "lm", 5, OldTestament},
	{"Ezekiel", "ez", 48, OldTestament},
	{"Daniel", "dn", 12, OldTestament},
	{"Hosea", "ho", 14, OldTestament},
	{"Joel", "jl", 3, OldTestament},
	{"Amos", "am", 9, OldTestament},
	{"Obadiah", "ob", 1, OldTestament},
	{"Jonah", "jn", 4, OldTestament},
	{"Micah", "mi", 7, OldTestament},
	{"Nahum", "na", 3, OldTestament},
	{"Habakkuk", "hk", 3, OldTestament},
	{"Zephaniah", "zp", 3, OldTestament},
	{"Haggai", "hg", 2, OldTestament},
	{"Zechariah", "zc", 14, OldTestament},
	{"Malachi", "ml", 4, OldTestament},
	{"Matthew", "mt", 28, NewTestament},
	{"Mark", "mk", 16, NewTestament},
	{"Luke", "lk", 24, NewTestament},
	{"John", "jo", 21, NewTestament},
	{"Acts", "act", 28, NewTestament},
	{"Romans", "rm", 16, NewTestament},
	{"1 Corinthians", "1co", 16, NewTestament},
	{"2 Corinthians", "2co", 13, NewTestament},
	{"Galatians", "gl", 6, NewTestament},
	{"Ephesians", "eph", 6, NewTestament},
	{"Philippians", "ph", 4, NewTestament},
	{"Colossians", "cl", 4, NewTestament},
	{"1 Thessalonians", "1ts", 5, NewTestament},
	{"2 Thessalonians", "2ts", 3, NewTestament},
	{"1 Timothy", "1tm", 6, NewTestament},
	{"2 Timothy", "2tm", 4, NewTestament},
	{"Titus", "tt", 3, NewTestament},
	{"Philemon", "phm", 1, NewTestament},
	{"Hebrews", "hb", 13, NewTestament},
	{"James", "jm", 5, NewTestament},
	{"1 Peter", "1pe", 5, NewTestament},
	{"2 Peter", "2pe", 3, NewTestament},
	{"1 John", "1jo", 5, NewTestament},
	{"2 John", "2jo", 1, NewTestament},
	{"3 John", "3jo", 1, NewTestament},
	{"Jude", "jd", 1, NewTestament},
	{"Revelation", "re", 22, NewTestament},
}

// Books returns a copy of the 66 canonical books in reading order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

// Lookup finds a book by full name or corpus abbreviation, ignoring case.
func Lookup(nameOrAbbrev string) (Book, bool) {
	needle := strings.ToLower(strings.TrimSpace(nameOrAbbrev))
	for _, b := range books {
		if strings.ToLower(b.Name) == needle || b.Abbrev == needle {
			return b, true
		}
	}
	return Book{}, false
}

// Order maps a book name to its position in reading order.
type Order map[string]int

func Canonical() Order {
	order := make(Order, len(books))
	for i, b := range books {
		order[b.Name] = i
	}
	return order
}

func (o Order) Index(book string) int {
	if i, ok := o[book]; ok {
		return i
	}
	return UnknownIndex
}

func (o Order) Known(book string) bool {
	_, ok := o[book]
	return ok
}

func (o Order) Compare(a, b Key) int {
	ai, bi := o.Index(a.Book), o.Index(b.Book)
	if ai != bi {
		return ai - bi
	}
	return a.Chapter - b.Chapter
}
