package region_test

import (
	"testing"

	"github.com/gnames/gnflore/pkg/ent/region"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		msg   string
		input string
		res   string
	}{
		{"historical", "Auvergne", "Auvergne-Rhône-Alpes"},
		{"historical north", "Nord-Pas-de-Calais", "Hauts-de-France"},
		{"historical with spaces", "  Lorraine ", "Grand Est"},
		{"no accents", "Midi-Pyrenees", "Occitanie"},
		{"upper case", "RHONE-ALPES", "Auvergne-Rhône-Alpes"},
		{"current region", "Bretagne", "Bretagne"},
		{"current merged region", "Occitanie", "Occitanie"},
		{"department", "Isère", "Isère"},
		{"empty", "", ""},
	}

	for _, v := range tests {
		assert.Equal(t, v.res, region.Normalize(v.input), v.msg)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		msg  string
		a, b string
		res  bool
	}{
		{"historical vs current", "Auvergne", "Auvergne-Rhône-Alpes", true},
		{"current vs historical", "Grand Est", "Alsace", true},
		{"both historical", "Limousin", "Poitou-Charentes", true},
		{"accents ignored", "Auvergne-Rhone-Alpes", "Auvergne-Rhône-Alpes", true},
		{"different", "Bretagne", "Normandie", false},
		{"empty", "", "", false},
		{"one empty", "Bretagne", "", false},
	}

	for _, v := range tests {
		assert.Equal(t, v.res, region.Equal(v.a, v.b), v.msg)
	}
}

func TestHistorical(t *testing.T) {
	h := region.Historical()
	assert.Len(t, h, 16)
	h["Alsace"] = "changed"
	assert.Equal(t, "Grand Est", region.Normalize("Alsace"))
}
