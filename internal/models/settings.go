package models

import "strings"

// ColorScheme is a named UI theme
type ColorScheme struct {
	Name    string `json:"name"`
	Primary string `json:"primary"`
	Dark    string `json:"dark"`
}

const DefaultColorScheme = "Heroic Red"

var ColorSchemes = []ColorScheme{
	{Name: "Heroic Red", Primary: "#ef4444", Dark: "#b91c1c"},
	{Name: "Stark Gold", Primary: "#fbbf24", Dark: "#d97706"},
	{Name: "Eco Green", Primary: "#13ec49", Dark: "#0ea332"},
	{Name: "Sky Blue", Primary: "#3b82f6", Dark: "#1d4ed8"},
	{Name: "Magic Purple", Primary: "#a855f7", Dark: "#7e22ce"},
}

// LookupColorScheme finds a scheme by name (case-insensitive)
func LookupColorScheme(name string) (ColorScheme, bool) {
	for _, s := range ColorSchemes {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			return s, true
		}
	}
	return ColorScheme{}, false
}
