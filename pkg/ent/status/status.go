// Package status resolves the legal and conservation status of species at
// a location from the rows of a status registry.
package status

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the administrative level a status applies to.
type Level int

const (
	UnknownLevel Level = iota
	National
	Regional
	Departmental
)

var levelNames = map[Level]string{
	UnknownLevel: "unknown",
	National:     "national",
	Regional:     "regional",
	Departmental: "departmental",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return levelNames[UnknownLevel]
}

// MarshalText makes Level readable in JSON output.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText is the reverse of MarshalText.
func (l *Level) UnmarshalText(b []byte) error {
	for k, v := range levelNames {
		if v == string(b) {
			*l = k
			return nil
		}
	}
	return fmt.Errorf("unknown level %q", string(b))
}

// Record is one row of the status registry.
type Record struct {
	// Level is the raw administrative level of the row (NIVEAU_ADMIN),
	// it is informational only, resolution uses the status type.
	Level string `json:"level,omitempty"`

	// Jurisdiction is a region, department or country label. It can be
	// a historical (pre-2016) region name.
	Jurisdiction string `json:"jurisdiction"`

	// Species is the scientific name the status applies to.
	Species string `json:"species"`

	// TypeLabel is the human-readable status type, for example
	// 'Liste rouge nationale' or 'Protection régionale'.
	TypeLabel string `json:"typeLabel"`

	// Code is a status code, for example 'VU' for red lists.
	Code string `json:"code,omitempty"`

	// Label is a human-readable description of the status.
	Label string `json:"label,omitempty"`

	// SourceID identifies the document the row comes from.
	SourceID string `json:"sourceId,omitempty"`
}

// Type returns the classification of the record's status type.
func (r Record) Type() Type {
	return ClassifyType(r.TypeLabel)
}

// Resolved is the single status kept for a species at a location.
type Resolved struct {
	Species      string `json:"species"`
	Code         string `json:"code,omitempty"`
	Label        string `json:"label,omitempty"`
	TypeLabel    string `json:"typeLabel"`
	Level        Level  `json:"level"`
	Jurisdiction string `json:"jurisdiction"`
	SourceID     string `json:"sourceId,omitempty"`
	Priority     int    `json:"priority"`
}

// Jurisdiction is the region and department of a location, as returned
// by reverse geocoding.
type Jurisdiction struct {
	Commune        string `json:"commune,omitempty"`
	Region         string `json:"region"`
	RegionCode     string `json:"regionCode,omitempty"`
	Department     string `json:"department"`
	DepartmentCode string `json:"departmentCode,omitempty"`
}

// Validate checks that both region and department are known.
func (j Jurisdiction) Validate() error {
	var errs []error
	if strings.TrimSpace(j.Region) == "" {
		errs = append(errs, errors.New("region is empty"))
	}
	if strings.TrimSpace(j.Department) == "" {
		errs = append(errs, errors.New("department is empty"))
	}
	return errors.Join(errs...)
}
