// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"fmt"
	"strings"

	"github.com/pdiddy/solaris/pkg/types"
)

// SectionText is the fixed wording of one draft section.
type SectionText struct {
	Heading         string
	ReferencesLabel string

	// Query is a fmt template filled by the section's query function.
	Query       string
	Instruction string
}

// Texts holds the wording of a draft in one language.
type Texts struct {
	ProjectLabel string
	DateLabel    string
	PageWord     string

	Siting        SectionText
	Environmental SectionText
}

// EnglishTexts is the default draft wording.
var EnglishTexts = Texts{
	ProjectLabel: "Project",
	DateLabel:    "Date",
	PageWord:     "Sid",
	Siting: SectionText{
		Heading:         "1. SITING & LAND SELECTION",
		ReferencesLabel: "References",
		Query:           "Arguments for building solar panels on %s in %s. How does one justify encroachment on agricultural land for a project of %s?",
		Instruction:     "You are to write the section 'Siting' and be factual. Use bold for source citations **[Source: X]**.",
	},
	Environmental: SectionText{
		Heading:         "2. ENVIRONMENTAL IMPACT AND MITIGATION MEASURES",
		ReferencesLabel: "References",
		Query:           "What protective measures are required for %s when constructing a solar park? Also describe the environmental impact.",
		Instruction:     "You are to write the section 'Environmental impact and protective measures'. Use bold for source citations **[Source: X]**.",
	},
}

// SwedishTexts matches answer.Swedish.
var SwedishTexts = Texts{
	ProjectLabel: "Projekt",
	DateLabel:    "Datum",
	PageWord:     "Sid",
	Siting: SectionText{
		Heading:         "1. LOKALISERING & MARKVAL",
		ReferencesLabel: "Referenser",
		Query:           "Argument för att bygga solceller på %s i %s. Hur motiverar man intrång på jordbruksmark för ett projekt på %s?",
		Instruction:     "Du ska skriva avsnittet 'Lokalisering' och vara saklig. Använd fetstil för källhänvisning **[Källa: X]**.",
	},
	Environmental: SectionText{
		Heading:         "2. MILJÖPÅVERKAN OCH SKYDDSÅTGÄRDER",
		ReferencesLabel: "Referenser",
		Query:           "Vilka skyddsåtgärder krävs för %s vid anläggning av en solcellspark? Beskriv även miljöpåverkan.",
		Instruction:     "Du ska skriva avsnittet 'Miljöpåverkan och skyddsåtgärder'. Använd fetstil för källhänvisning **[Källa: X]**.",
	},
}

// LookupTexts returns the draft wording for a locale name.
func LookupTexts(locale string) (Texts, error) {
	switch locale {
	case "", "en":
		return EnglishTexts, nil
	case "sv":
		return SwedishTexts, nil
	default:
		return Texts{}, fmt.Errorf("unknown draft locale %q", locale)
	}
}

func sitingQuery(t SectionText, f types.ProjectFields) string {
	return fmt.Sprintf(t.Query, trim(f.LandType), trim(f.Municipality), trim(f.Size))
}

func environmentalQuery(t SectionText, f types.ProjectFields) string {
	return fmt.Sprintf(t.Query, trim(f.NatureValues))
}

func trim(s string) string { return strings.TrimSpace(s) }
