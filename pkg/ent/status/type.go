package status

import (
	"strings"

	"github.com/gnames/gnflore/pkg/ent/norm"
)

// Type classifies registry status types.
type Type int

const (
	OtherType Type = iota
	NationalRedList
	RegionalRedList
	NationalProtection
	RegionalProtection
	DepartmentalProtection
	RegionalSensitivity
	DepartmentalSensitivity
	NationalRegulation
)

var typeNames = map[Type]string{
	OtherType:               "other",
	NationalRedList:         "national red list",
	RegionalRedList:         "regional red list",
	NationalProtection:      "national protection",
	RegionalProtection:      "regional protection",
	DepartmentalProtection:  "departmental protection",
	RegionalSensitivity:     "regional sensitivity",
	DepartmentalSensitivity: "departmental sensitivity",
	NationalRegulation:      "national regulation",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return typeNames[OtherType]
}

// IsProtective is true for protection, regulation and sensitivity types.
func (t Type) IsProtective() bool {
	switch t {
	case NationalProtection, RegionalProtection, DepartmentalProtection,
		RegionalSensitivity, DepartmentalSensitivity, NationalRegulation:
		return true
	}
	return false
}

// ClassifyType maps a registry type label such as 'Liste rouge régionale'
// or 'Protection départementale' to a Type. Matching ignores case and
// accents. Regulation labels without a scope are national.
func ClassifyType(label string) Type {
	n := norm.Name(label)
	national := strings.Contains(n, "national")
	regional := strings.Contains(n, "regional")
	departmental := strings.Contains(n, "departemental")

	switch {
	case strings.Contains(n, "listerouge"):
		switch {
		case national:
			return NationalRedList
		case regional:
			return RegionalRedList
		}
	case strings.Contains(n, "protection"):
		switch {
		case national:
			return NationalProtection
		case regional:
			return RegionalProtection
		case departmental:
			return DepartmentalProtection
		}
	case strings.Contains(n, "sensibilite"):
		switch {
		case regional:
			return RegionalSensitivity
		case departmental:
			return DepartmentalSensitivity
		}
	case strings.Contains(n, "reglementation"):
		if !regional && !departmental {
			return NationalRegulation
		}
	}
	return OtherType
}

// threat codes of red lists with their priorities.
var threatPriority = map[string]int{
	"CR": 4,
	"EN": 3,
	"VU": 2,
	"NT": 1,
}

// ProtectivePriority is assigned to protection, regulation and sensitivity
// statuses. It is higher than any red list category.
const ProtectivePriority = 5

// IsThreatCode is true for NT, VU, EN and CR.
func IsThreatCode(code string) bool {
	_, ok := threatPriority[normCode(code)]
	return ok
}

// Priority ranks a record: protective types first, then red-list
// categories from CR down to NT, everything else is 0.
func Priority(r Record) int {
	if r.Type().IsProtective() {
		return ProtectivePriority
	}
	return threatPriority[normCode(r.Code)]
}

func normCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
