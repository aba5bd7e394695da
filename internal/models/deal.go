package models

import "time"

// Deal is the canonical product-listing record assembled from the deal
// sources. ExternalID is the upstream listing identifier; SetID is the LEGO
// set number the listing is about, when one could be determined.
type Deal struct {
	ExternalID  string    `firestore:"uuid" json:"uuid" validate:"required"`
	SetID       string    `firestore:"id,omitempty" json:"id,omitempty"`
	Title       string    `firestore:"title" json:"title" validate:"required"`
	Link        string    `firestore:"link" json:"link" validate:"omitempty,url"`
	Price       float64   `firestore:"price" json:"price" validate:"gte=0"`
	Discount    *int      `firestore:"discount" json:"discount,omitempty"`
	Comments    *int      `firestore:"comments" json:"comments,omitempty"`
	Temperature *int      `firestore:"temperature" json:"temperature,omitempty"`
	Published   int64     `firestore:"published" json:"published"` // unix seconds
	Photo       string    `firestore:"photo,omitempty" json:"photo,omitempty"`
	Source      string    `firestore:"source" json:"source"`
	IngestedAt  time.Time `firestore:"ingestedAt" json:"ingestedAt"`
}

// PaginationMeta describes one page of a paged upstream response.
// CurrentPage is 1-based; CurrentPage <= PageCount whenever PageCount > 0.
type PaginationMeta struct {
	CurrentPage int `firestore:"currentPage" json:"currentPage"`
	PageCount   int `firestore:"pageCount" json:"pageCount"`
	Count       int `firestore:"count" json:"count"`
}
