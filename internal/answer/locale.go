// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import "fmt"

// Locale holds the fixed wording of the context block, the prompt clauses
// and the canned replies. The refusal template is RefusalPrefix followed by
// RefusalSuffix; the citation gate matches on RefusalPrefix alone.
type Locale struct {
	Name string

	// Context block labels.
	DocumentLabel string
	PathLabel     string
	PageLabel     string
	ContentLabel  string
	UnknownFile   string

	// SourceWord is the word inside the citation marker **[SourceWord: N]**.
	SourceWord string

	RefusalPrefix string
	RefusalSuffix string

	// Instruction is the task instruction for open Q&A.
	Instruction string

	// Degraded is the reply when the store or model is not configured.
	Degraded string

	// Clause headings and question label used by the prompt template.
	AnalysisHeading string
	AnalysisRules   []string
	SourceHeading   string
	SourceRules     []string
	ContextHeading  string
	QuestionLabel   string
}

// English is the default locale.
var English = Locale{
	Name:          "en",
	DocumentLabel: "DOCUMENT ID",
	PathLabel:     "Path",
	PageLabel:     "Page",
	ContentLabel:  "CONTENT",
	UnknownFile:   "Unknown file",
	SourceWord:    "Source",
	RefusalPrefix: "I have reviewed the provided documents",
	RefusalSuffix: " and can conclude that there is not sufficient information about [the subject of the question] in them.",
	Instruction:   "You are Solaris Legal. Answer professionally in English and use precise legal and technical terms.",
	Degraded:      "⚠️ The system is not correctly configured. Contact the administrator.",

	AnalysisHeading: "ANALYSIS INSTRUCTIONS:",
	AnalysisRules: []string{
		"Read the context below carefully before answering.",
		"If the context does not contain information relevant to the question, reply with exactly this sentence and replace the bracketed part with the subject of the question: %q",
		"NEVER answer in any other way when the context is empty or irrelevant to the question.",
	},
	SourceHeading: "SOURCE INSTRUCTIONS:",
	SourceRules: []string{
		"After every factual claim taken from the context, add the bold marker **[Source: X]**, where X is the DOCUMENT ID of the passage.",
		"Never write file names or paths in the body text. Use only the marker.",
	},
	ContextHeading: "CONTEXT:",
	QuestionLabel:  "QUESTION:",
}

// Swedish carries the wording of the original Swedish deployment.
var Swedish = Locale{
	Name:          "sv",
	DocumentLabel: "DOKUMENT ID",
	PathLabel:     "Sökväg",
	PageLabel:     "Sida",
	ContentLabel:  "INNEHÅLL",
	UnknownFile:   "Okänd fil",
	SourceWord:    "Källa",
	RefusalPrefix: "Jag har granskat de tillhandahållna dokumenten",
	RefusalSuffix: " och kan konstatera att det inte finns tillräcklig information om [ämnet i frågan] i dessa.",
	Instruction:   "Du är Solaris Legal. Svara professionellt på svenska och använd sakliga termer.",
	Degraded:      "⚠️ Systemet är inte korrekt konfigurerat. Kontakta administratören.",

	AnalysisHeading: "ANALYSINSTRUKTIONER:",
	AnalysisRules: []string{
		"Läs kontexten nedan noggrant innan du svarar.",
		"Om kontexten inte innehåller information som är relevant för frågan, svara med exakt denna mening och ersätt hakparentesen med frågans ämne: %q",
		"Svara ALDRIG på något annat sätt om kontexten är tom eller irrelevant för frågan.",
	},
	SourceHeading: "KÄLLINSTRUKTIONER:",
	SourceRules: []string{
		"Efter varje faktapåstående från kontexten, lägg till den fetstilta markören **[Källa: X]**, där X är passagens DOKUMENT ID.",
		"Skriv aldrig filnamn eller sökvägar i brödtexten. Använd endast markören.",
	},
	ContextHeading: "KONTEXT:",
	QuestionLabel:  "FRÅGA:",
}

// LookupLocale returns the locale named name. The empty name is English.
func LookupLocale(name string) (Locale, error) {
	switch name {
	case "", "en":
		return English, nil
	case "sv":
		return Swedish, nil
	default:
		return Locale{}, fmt.Errorf("unknown locale %q: use en or sv", name)
	}
}
