// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// promptTmpl orders the clauses: task instruction, analysis rules with the
// refusal template, source rules, then context and question.
var promptTmpl = template.Must(template.New("answer").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`{{.Instruction}}

{{.AnalysisHeading}}
{{range $i, $r := .AnalysisRules}}{{inc $i}}. {{$r}}
{{end}}
{{.SourceHeading}}
{{range $i, $r := .SourceRules}}{{inc $i}}. {{$r}}
{{end}}
{{.ContextHeading}}
{{.Context}}

{{.QuestionLabel}} {{.Question}}
`))

// Composer builds prompts for one locale. The refusal prefix it writes
// into the analysis clause is the one the Gate matches.
type Composer struct {
	locale Locale
	prefix string
}

// NewComposer returns a Composer for loc. A non-empty prefixOverride
// replaces the locale's refusal prefix.
func NewComposer(loc Locale, prefixOverride string) *Composer {
	prefix := loc.RefusalPrefix
	if prefixOverride != "" {
		prefix = prefixOverride
	}
	return &Composer{locale: loc, prefix: prefix}
}

// Locale returns the composer's locale.
func (c *Composer) Locale() Locale { return c.locale }

// RefusalPrefix returns the opening of the refusal template.
func (c *Composer) RefusalPrefix() string { return c.prefix }

// RefusalTemplate returns the full refusal sentence the model is told to
// use.
func (c *Composer) RefusalTemplate() string { return c.prefix + c.locale.RefusalSuffix }

// Gate returns the citation gate matching this composer's refusal prefix.
func (c *Composer) Gate() Gate { return Gate{Prefix: c.prefix} }

type promptData struct {
	Locale
	AnalysisRules []string
	Instruction   string
	Context       string
	Question      string
}

// Compose renders the prompt. instruction is inserted verbatim.
func (c *Composer) Compose(instruction, contextBlock, question string) (string, error) {
	rules := make([]string, len(c.locale.AnalysisRules))
	refusal := c.RefusalTemplate()
	for i, r := range c.locale.AnalysisRules {
		if strings.Contains(r, "%q") {
			r = fmt.Sprintf(r, refusal)
		}
		rules[i] = r
	}

	data := promptData{
		Locale:        c.locale,
		AnalysisRules: rules,
		Instruction:   instruction,
		Context:       contextBlock,
		Question:      question,
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
