package models

// RecordKind says which canonical shape a RawRecord normalizes into.
type RecordKind string

const (
	KindDeal RecordKind = "deal"
	KindSale RecordKind = "sale"
)

// RawRecord is the adapter output before normalization. Numeric fields stay
// as strings so the normalizer can coerce them defensively; a record whose
// price cannot be parsed is dropped there, not here.
type RawRecord struct {
	Kind       RecordKind
	Source     string
	ExternalID string
	SetID      string
	Title      string
	Link       string
	Photo      string
	Location   string
	Status     string

	Price       string
	Discount    string
	Comments    string
	Temperature string

	// Published carries the source-specific date string (sales keep it
	// verbatim); PublishedUnix is set when the source provides an absolute
	// timestamp directly.
	Published     string
	PublishedUnix int64
}
