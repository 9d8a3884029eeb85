// Package region maps French administrative region labels to their
// current names. Regions were merged in 2016 and many reference tables
// still use the historical labels.
package region

import (
	"maps"
	"strings"

	"github.com/gnames/gnflore/pkg/ent/norm"
)

// historical maps pre-2016 region names to the regions that absorbed them.
var historical = map[string]string{
	"Alsace":               "Grand Est",
	"Aquitaine":            "Nouvelle-Aquitaine",
	"Auvergne":             "Auvergne-Rhône-Alpes",
	"Basse-Normandie":      "Normandie",
	"Bourgogne":            "Bourgogne-Franche-Comté",
	"Centre":               "Centre-Val de Loire",
	"Champagne-Ardenne":    "Grand Est",
	"Franche-Comté":        "Bourgogne-Franche-Comté",
	"Haute-Normandie":      "Normandie",
	"Limousin":             "Nouvelle-Aquitaine",
	"Lorraine":             "Grand Est",
	"Languedoc-Roussillon": "Occitanie",
	"Midi-Pyrénées":        "Occitanie",
	"Nord-Pas-de-Calais":   "Hauts-de-France",
	"Poitou-Charentes":     "Nouvelle-Aquitaine",
	"Rhône-Alpes":          "Auvergne-Rhône-Alpes",
}

// byKey indexes historical names by their normalized form, so that
// 'Midi-Pyrenees' or 'RHONE ALPES' are recognized as well.
var byKey = func() map[string]string {
	res := make(map[string]string, len(historical))
	for k, v := range historical {
		res[norm.Name(k)] = v
	}
	return res
}()

// Normalize returns the current name of a region. Labels that are not
// historical region names are returned trimmed but otherwise unchanged.
func Normalize(label string) string {
	label = strings.TrimSpace(label)
	if cur, ok := historical[label]; ok {
		return cur
	}
	if cur, ok := byKey[norm.Name(label)]; ok {
		return cur
	}
	return label
}

// Equal compares two jurisdiction labels after mapping historical region
// names and normalizing case, accents and punctuation. Empty labels are
// never equal.
func Equal(a, b string) bool {
	ka := norm.Name(Normalize(a))
	if ka == "" {
		return false
	}
	return ka == norm.Name(Normalize(b))
}

// Historical returns a copy of the historical-to-current table.
func Historical() map[string]string {
	return maps.Clone(historical)
}
