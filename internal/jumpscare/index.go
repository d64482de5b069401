package jumpscare

import (
	"sort"
)

// Record is the jump scare metadata of one movie or series, as listed on wheresthejump.com.
// All fields are empty strings when the dataset doesn't contain them.
type Record struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Director   string `json:"director"`
	Year       string `json:"year"`
	JumpCount  string `json:"jumpCount"`
	JumpRating string `json:"jumpRating"`
	Summary    string `json:"summary"`
	Rating     string `json:"rating"`
	// SubtitleLink points to the SRT file on wheresthejump.com. Can be empty.
	SubtitleLink string `json:"subtitleLink"`
	DetailURL    string `json:"detailUrl"`
}

// Index maps IMDb IDs to records.
// It's built once and never modified afterwards, so it can be shared between goroutines without locking.
type Index struct {
	records map[string]Record
}

// NewIndex creates an index from the given records.
// When two records have the same ID, the later one wins.
func NewIndex(records ...Record) Index {
	m := make(map[string]Record, len(records))
	for _, record := range records {
		m[record.ID] = record
	}
	return Index{records: m}
}

// Lookup returns the record for the exact (case-sensitive) ID.
func (i Index) Lookup(id string) (Record, bool) {
	record, ok := i.records[id]
	return record, ok
}

// Len returns the number of records.
func (i Index) Len() int {
	return len(i.records)
}

// IDs returns all IDs in lexical order.
func (i Index) IDs() []string {
	ids := make([]string, 0, len(i.records))
	for id := range i.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
