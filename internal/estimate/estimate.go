// Package estimate produces monthly cost-of-living breakdowns for a location
// and lifestyle template.
package estimate

import (
	"fmt"
	"math"
)

// Template selects a lifestyle adjustment applied on top of the
// location-adjusted base costs.
type Template string

const (
	TemplateBasic   Template = "basic"
	TemplateStudent Template = "student"
	TemplateFamily  Template = "family"
	TemplateRemote  Template = "remote"
)

func (t Template) Valid() bool {
	switch t {
	case TemplateBasic, TemplateStudent, TemplateFamily, TemplateRemote:
		return true
	}
	return false
}

// Breakdown is a monthly estimate in whole currency units.
type Breakdown struct {
	Housing        float64 `json:"housing"`
	Food           float64 `json:"food"`
	Transportation float64 `json:"transportation"`
	Utilities      float64 `json:"utilities"`
	Internet       float64 `json:"internet"`
	Phone          float64 `json:"phone"`
	Entertainment  float64 `json:"entertainment"`
	Healthcare     float64 `json:"healthcare"`
	Education      float64 `json:"education"`
	Total          float64 `json:"total"`
}

// Location pairs a place with its local currency, for quick-pick lists.
type Location struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Currency string `json:"currency"`
}

// Baseline monthly costs for an index-6.0 location.
const (
	baseHousing        = 1500
	baseFood           = 400
	baseTransportation = 150
	baseUtilities      = 200
	baseInternet       = 60
	basePhone          = 50
	baseEntertainment  = 200
	baseHealthcare     = 300
	baseEducation      = 2000 // students only
)

// referenceIndex is the cost index the base costs are calibrated against.
const referenceIndex = 6.0

var costIndex = map[string]float64{
	"New York":       9.5,
	"San Francisco":  9.8,
	"London":         8.9,
	"Tokyo":          8.6,
	"Sydney":         8.3,
	"Paris":          8.2,
	"Toronto":        7.8,
	"Berlin":         7.0,
	"Madrid":         6.5,
	"Bangkok":        5.0,
	"Mexico City":    5.2,
	"Mumbai":         4.3,
	"United States":  8.0,
	"United Kingdom": 7.7,
	"Japan":          7.8,
	"Australia":      7.9,
	"Canada":         7.5,
	"Germany":        7.2,
	"France":         7.6,
	"Italy":          7.0,
	"Spain":          6.8,
	"India":          4.0,
	"Thailand":       4.8,
	"Mexico":         5.0,
	"Brazil":         5.5,
}

// CostIndex returns the 1-10 cost-of-living index for a city or country.
// Unknown locations get the reference index.
func CostIndex(location string) float64 {
	if idx, ok := costIndex[location]; ok {
		return idx
	}
	return referenceIndex
}

// Estimate computes the monthly breakdown for a location. The base costs are
// scaled by the location index, rounded per category, then the template
// factors are applied.
func Estimate(location string, template Template) (Breakdown, error) {
	if template == "" {
		template = TemplateBasic
	}
	if !template.Valid() {
		return Breakdown{}, fmt.Errorf("unknown template %q", template)
	}

	mult := CostIndex(location) / referenceIndex
	scale := func(base float64) float64 { return math.Round(base * mult) }

	b := Breakdown{
		Housing:        scale(baseHousing),
		Food:           scale(baseFood),
		Transportation: scale(baseTransportation),
		Utilities:      scale(baseUtilities),
		Internet:       scale(baseInternet),
		Phone:          scale(basePhone),
		Entertainment:  scale(baseEntertainment),
		Healthcare:     scale(baseHealthcare),
	}

	switch template {
	case TemplateStudent:
		b.Housing *= 0.7
		b.Food *= 0.8
		b.Entertainment *= 0.7
		b.Education = scale(baseEducation)
	case TemplateFamily:
		b.Housing *= 1.5
		b.Food *= 2.5
		b.Transportation *= 1.5
		b.Healthcare *= 2
	case TemplateRemote:
		b.Internet *= 1.5
		b.Housing *= 0.9
	}

	b.Total = b.Housing + b.Food + b.Transportation + b.Utilities +
		b.Internet + b.Phone + b.Entertainment + b.Healthcare + b.Education
	return b, nil
}

// PopularLocations lists common destinations with their local currencies.
func PopularLocations() []Location {
	return []Location{
		{"United States", "New York", "USD"},
		{"United States", "San Francisco", "USD"},
		{"United Kingdom", "London", "GBP"},
		{"Japan", "Tokyo", "JPY"},
		{"Australia", "Sydney", "AUD"},
		{"Canada", "Toronto", "CAD"},
		{"France", "Paris", "EUR"},
		{"Germany", "Berlin", "EUR"},
		{"India", "Mumbai", "INR"},
		{"Thailand", "Bangkok", "THB"},
	}
}
