package models

import "time"

// SalePublishedLayout is the source-specific date format marketplace sales
// carry in their Published field. The stored representation stays faithful
// to the source; parsing happens at query time.
const SalePublishedLayout = "02/01/2006 15:04:05"

// Sale is the canonical marketplace listing for a given LEGO set id.
// SetID is a foreign key by value only; nothing enforces the reference.
type Sale struct {
	SetID      string    `firestore:"id" json:"id" validate:"required"`
	ExternalID string    `firestore:"uuid" json:"uuid" validate:"required"`
	Title      string    `firestore:"title" json:"title"`
	Price      float64   `firestore:"price" json:"price" validate:"gte=0"`
	Location   string    `firestore:"location,omitempty" json:"location,omitempty"`
	Comments   int       `firestore:"comments" json:"comments"`
	Photo      string    `firestore:"photo,omitempty" json:"photo,omitempty"`
	Link       string    `firestore:"link" json:"link" validate:"omitempty,url"`
	Status     string    `firestore:"status,omitempty" json:"status,omitempty"`
	Published  string    `firestore:"published" json:"published"` // SalePublishedLayout
	Source     string    `firestore:"source" json:"source"`
	IngestedAt time.Time `firestore:"ingestedAt" json:"ingestedAt"`
}

// PublishedTime parses the source-format Published string.
func (s Sale) PublishedTime() (time.Time, error) {
	return time.Parse(SalePublishedLayout, s.Published)
}
