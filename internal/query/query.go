// Package query filters and sorts deal slices in memory. Everything here is
// pure: inputs are never mutated, sorts return fresh slices.
package query

import (
	"sort"

	"github.com/sachalieges/brickdeals/internal/models"
)

// Filter thresholds. A nil counter never matches.
const (
	discountThreshold    = 50
	commentsThreshold    = 5
	temperatureThreshold = 100
)

// HighDiscount keeps deals discounted by more than 50 percent.
func HighDiscount(deals []models.Deal) []models.Deal {
	return filter(deals, func(d models.Deal) bool {
		return d.Discount != nil && *d.Discount > discountThreshold
	})
}

// MostCommented keeps deals with more than 5 comments.
func MostCommented(deals []models.Deal) []models.Deal {
	return filter(deals, func(d models.Deal) bool {
		return d.Comments != nil && *d.Comments > commentsThreshold
	})
}

// Hottest keeps deals with a community temperature above 100.
func Hottest(deals []models.Deal) []models.Deal {
	return filter(deals, func(d models.Deal) bool {
		return d.Temperature != nil && *d.Temperature > temperatureThreshold
	})
}

func filter(deals []models.Deal, keep func(models.Deal) bool) []models.Deal {
	out := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// ByPrice sorts by price; ties keep their input order.
func ByPrice(deals []models.Deal, ascending bool) []models.Deal {
	out := clone(deals)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Price < out[j].Price
		}
		return out[i].Price > out[j].Price
	})
	return out
}

// ByPublished sorts by publication timestamp; ties keep their input order.
func ByPublished(deals []models.Deal, ascending bool) []models.Deal {
	out := clone(deals)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Published < out[j].Published
		}
		return out[i].Published > out[j].Published
	})
	return out
}

func clone(deals []models.Deal) []models.Deal {
	out := make([]models.Deal, len(deals))
	copy(out, deals)
	return out
}
