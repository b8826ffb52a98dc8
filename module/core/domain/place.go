package domain

import (
	"regexp"
	"slices"
	"strings"
)

type PlaceCategory string

const (
	CategorySupermarket PlaceCategory = "supermarket"
	CategoryPharmacy    PlaceCategory = "pharmacy"
	CategoryPharmacy24h PlaceCategory = "pharmacy_24h"
	CategoryGasStation  PlaceCategory = "gas_station"
	CategoryRestaurant  PlaceCategory = "restaurant"
	CategoryCafe        PlaceCategory = "cafe"
	CategoryGym         PlaceCategory = "gym"
	CategoryBank        PlaceCategory = "bank"

	// CategoryOther marks list items that map to no place.
	CategoryOther PlaceCategory = "other"
)

type categoryInfo struct {
	name string
	icon string
}

var categories = map[PlaceCategory]categoryInfo{
	CategorySupermarket: {"Supermarket", "🛒"},
	CategoryPharmacy:    {"Pharmacy", "💊"},
	CategoryPharmacy24h: {"24h Pharmacy", "🌙💊"},
	CategoryGasStation:  {"Gas station", "⛽"},
	CategoryRestaurant:  {"Restaurant", "🍽️"},
	CategoryCafe:        {"Cafe", "☕"},
	CategoryGym:         {"Gym", "🏋️"},
	CategoryBank:        {"Bank", "🏦"},
}

func (c PlaceCategory) Valid() bool {
	_, ok := categories[c]
	return ok
}

func (c PlaceCategory) DisplayName() string {
	if info, ok := categories[c]; ok {
		return info.name
	}
	return string(c)
}

func (c PlaceCategory) Icon() string {
	if info, ok := categories[c]; ok {
		return info.icon
	}
	return "📍"
}

// AllCategories returns every monitorable category in a stable order.
func AllCategories() []PlaceCategory {
	out := make([]PlaceCategory, 0, len(categories))
	for c := range categories {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

type PlaceResult struct {
	Name           string        `json:"name"`
	Address        string        `json:"address"`
	Location       GeoPoint      `json:"location"`
	Category       PlaceCategory `json:"category"`
	DistanceMeters float64       `json:"distance_meters"`
	IsOpen         *bool         `json:"is_open,omitempty"`
}

type ListItem struct {
	Text      string        `json:"text"`
	Category  PlaceCategory `json:"category,omitempty"`
	Completed bool          `json:"completed"`
}

var (
	pharmacyKeywords    = regexp.MustCompile(`(?i)medic|remédio|farmácia|pharmac|comprimido|pill|droga|drug`)
	supermarketKeywords = regexp.MustCompile(`(?i)comida|alimento|bebida|leite|pão|food|drink|milk|bread|grocer`)
)

// InferCategories derives the place categories the open items care about.
// Explicit categories win; keyword matching is only used when no open
// item carries one.
func InferCategories(items []ListItem) []PlaceCategory {
	var open []ListItem
	seen := map[PlaceCategory]bool{}
	var out []PlaceCategory
	add := func(c PlaceCategory) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	for _, item := range items {
		if item.Completed {
			continue
		}
		open = append(open, item)
		if item.Category != "" && item.Category != CategoryOther && item.Category.Valid() {
			add(item.Category)
		}
	}

	if len(out) == 0 {
		for _, item := range open {
			text := strings.ToLower(item.Text)
			if pharmacyKeywords.MatchString(text) {
				add(CategoryPharmacy)
			}
			if supermarketKeywords.MatchString(text) {
				add(CategorySupermarket)
			}
		}
	}
	return out
}

// IntersectCategories keeps the members of a that are also in b, in a's order.
func IntersectCategories(a, b []PlaceCategory) []PlaceCategory {
	var out []PlaceCategory
	for _, c := range a {
		if slices.Contains(b, c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
