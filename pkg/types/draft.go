// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProjectFields are the user-supplied facts a draft application is built
// from.
type ProjectFields struct {
	// ProjectName names the project (e.g. "Solpark Ekbacken").
	ProjectName string `json:"project_name" yaml:"project_name"`

	// Municipality is the municipality and county of the site.
	Municipality string `json:"municipality" yaml:"municipality"`

	// Size describes the area and capacity (e.g. "45 hectares, approx. 30 MW").
	Size string `json:"size" yaml:"size"`

	// LandType is the current land use of the site.
	LandType string `json:"land_type" yaml:"land_type"`

	// NatureValues lists protected areas or nature values near the site.
	NatureValues string `json:"nature_values" yaml:"nature_values"`
}

// DefaultProjectFields returns the example project used when the caller
// leaves fields blank.
func DefaultProjectFields() ProjectFields {
	return ProjectFields{
		ProjectName:  "Solpark Ekbacken",
		Municipality: "Kalmar kommun, Kalmar län",
		Size:         "45 hectares, approx. 30 MW",
		LandType:     "arable land",
		NatureValues: "adjacent watercourse with protected species",
	}
}

// WithDefaults fills empty fields from DefaultProjectFields.
func (f ProjectFields) WithDefaults() ProjectFields {
	d := DefaultProjectFields()
	if f.ProjectName == "" {
		f.ProjectName = d.ProjectName
	}
	if f.Municipality == "" {
		f.Municipality = d.Municipality
	}
	if f.Size == "" {
		f.Size = d.Size
	}
	if f.LandType == "" {
		f.LandType = d.LandType
	}
	if f.NatureValues == "" {
		f.NatureValues = d.NatureValues
	}
	return f
}

// DraftSection is one generated section with its own reference list.
// Reference i (1-based) is References[i-1]; numbering is local to the
// section.
type DraftSection struct {
	Heading    string    `json:"heading" yaml:"heading"`
	Body       string    `json:"body" yaml:"body"`
	References []Passage `json:"references" yaml:"references"`
}

// Draft is a multi-section application document.
type Draft struct {
	Title     string         `json:"title" yaml:"title"`
	Project   string         `json:"project" yaml:"project"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Sections  []DraftSection `json:"sections" yaml:"sections"`
}
