package model

import "strings"

// Preset is a named demo query
type Preset struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Query       FeatureVector `json:"query"`
}

// Presets are the demo personas. Budgets are in source currency (INR).
var Presets = []Preset{
	{
		Name:        "Budget Student",
		Description: "Budget-conscious student needs basic laptop",
		Query:       FeatureVector{45000, 8, 256, 15.6, 8, 2.2, 6},
	},
	{
		Name:        "Professional Developer",
		Description: "Developer needs powerful, portable machine",
		Query:       FeatureVector{120000, 16, 512, 14, 10, 1.5, 9},
	},
	{
		Name:        "Gaming Enthusiast",
		Description: "Gamer wants high performance, doesn't mind weight",
		Query:       FeatureVector{180000, 32, 1024, 17, 6, 3.0, 10},
	},
	{
		Name:        "Business Executive",
		Description: "Executive needs premium, ultra-portable laptop",
		Query:       FeatureVector{100000, 16, 512, 13.3, 12, 1.2, 8},
	},
}

// Slug is the URL form of the preset name, e.g. budget-student
func (p Preset) Slug() string {
	return strings.ReplaceAll(strings.ToLower(p.Name), " ", "-")
}

// FindPreset returns the preset with the given name or slug, ignoring case
func FindPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.Slug(), name) {
			return p, true
		}
	}
	return Preset{}, false
}
