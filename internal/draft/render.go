// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"fmt"
	"strings"

	"github.com/pdiddy/solaris/pkg/types"
)

// Render produces the exported Markdown text of d. Reference lines list
// each section's passages as [i] path (page), i starting at 1.
func Render(d types.Draft, t Texts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", d.Title)
	fmt.Fprintf(&b, "**%s:** %s\n", t.ProjectLabel, d.Project)
	fmt.Fprintf(&b, "**%s:** %s\n\n---\n", t.DateLabel, d.Timestamp.Format("2006-01-02"))

	labels := []string{t.Siting.ReferencesLabel, t.Environmental.ReferencesLabel}
	for i, sec := range d.Sections {
		label := "References"
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		fmt.Fprintf(&b, "\n## %s\n%s\n\n**%s:**\n", sec.Heading, sec.Body, label)
		for j, ref := range sec.References {
			fmt.Fprintf(&b, "- [%d] %s (%s %s)\n", j+1, ref.SourcePath, t.PageWord, ref.PageLabel())
		}
	}
	return b.String()
}

var filenameReplacer = strings.NewReplacer(" ", "_", ":", "", "/", "")

// FileName returns the download name for a draft of project.
func FileName(project string) string {
	safe := filenameReplacer.Replace(strings.TrimSpace(project))
	if safe == "" {
		safe = "Draft"
	}
	return "Application_" + safe + ".md"
}
