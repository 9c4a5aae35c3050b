package domain

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryTransport Category = "TRANSPORT"
	CategoryFreezer   Category = "FREEZER"
	CategoryFridge    Category = "FRIDGE"
)

// BreachThreshold is the upper bound in °C for fridges and transport coolers.
// A reading equal to the threshold is not a breach.
const BreachThreshold = 8.0

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryTransport, CategoryFreezer, CategoryFridge:
		return c, nil
	default:
		return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", s)}
	}
}

// InferCategory derives a category from a device name. Matching is
// case-sensitive and "Transport" wins over "Freezer". Only used when importing
// devices that have no category yet.
func InferCategory(name string) Category {
	switch {
	case strings.Contains(name, "Transport"):
		return CategoryTransport
	case strings.Contains(name, "Freezer"):
		return CategoryFreezer
	default:
		return CategoryFridge
	}
}

// Classify reports whether temperature is a breach for the category.
// Freezers have no breach band. Unknown categories use fridge rules.
func Classify(c Category, temperature float64) bool {
	if c == CategoryFreezer {
		return false
	}
	return temperature > BreachThreshold
}
