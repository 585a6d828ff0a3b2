package domain

// RebuildReport summarises one index rebuild.
type RebuildReport struct {
	// Indexed is the number of entries written to the index.
	Indexed int

	// Skipped lists files excluded from the index and why.
	Skipped []*ItemError
}

// SearchQuery filters index records.
// Empty fields are ignored; all set fields must match.
type SearchQuery struct {
	// Text is matched case-insensitively against title, filename and URL.
	Text string

	// Category must equal the entry's category, ignoring case.
	Category string

	// Tag must be one of the entry's tags, ignoring case.
	Tag string
}
