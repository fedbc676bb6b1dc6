// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/pkg/types"
)

var testNow = time.Date(2026, 5, 17, 9, 30, 0, 0, time.UTC)

type call struct {
	question    string
	instruction string
	k           int
	at          int // number of sleeps before this call
}

// scriptedAnswerer replays one reply per call and records the calls.
type scriptedAnswerer struct {
	replies []types.Answer
	errs    []error
	calls   []call
	sleeps  *int
}

func (s *scriptedAnswerer) Answer(_ context.Context, q, instr string, k int) (types.Answer, error) {
	i := len(s.calls)
	s.calls = append(s.calls, call{question: q, instruction: instr, k: k, at: *s.sleeps})
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], err
	}
	return types.Answer{}, err
}

type recordingObserver struct {
	ok []bool
}

func (r *recordingObserver) ObserveDraft(ok bool, _ time.Duration) { r.ok = append(r.ok, ok) }

var (
	lawPassage    = types.Passage{Text: "Arable land may be used when...", SourcePath: "law/miljobalken.md", Page: 3}
	guidePassage  = types.Passage{Text: "Siting guidance for solar parks.", SourcePath: "guides/solar.md", Page: 12}
	naturePassage = types.Passage{Text: "Watercourses need buffer zones.", SourcePath: "kalmar/nature.md"}
)

func newTestPipeline(a *scriptedAnswerer, slept *[]time.Duration, opts ...Option) *Pipeline {
	count := 0
	a.sleeps = &count
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithSleep(func(d time.Duration) {
			*slept = append(*slept, d)
			count++
		}),
	}
	return NewPipeline(a, append(base, opts...)...)
}

func TestGenerateIndependentNumbering(t *testing.T) {
	a := &scriptedAnswerer{replies: []types.Answer{
		{Text: "Siting body **[Source: 2]**.", UsedPassages: []types.Passage{lawPassage, guidePassage}},
		{Text: "Environment body **[Source: 1]**.", UsedPassages: []types.Passage{guidePassage, naturePassage}},
	}}
	var slept []time.Duration
	p := newTestPipeline(a, &slept, WithTopK(7))

	d, err := p.Generate(context.Background(), types.ProjectFields{ProjectName: "Solpark Norr"})
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, d.Title)
	assert.Equal(t, "Solpark Norr", d.Project)
	assert.Equal(t, testNow, d.Timestamp)
	require.Len(t, d.Sections, 2)
	assert.Equal(t, EnglishTexts.Siting.Heading, d.Sections[0].Heading)
	assert.Equal(t, EnglishTexts.Environmental.Heading, d.Sections[1].Heading)

	// guidePassage is reference 2 in the siting section and 1 in the other.
	assert.Equal(t, guidePassage, d.Sections[0].References[1])
	assert.Equal(t, guidePassage, d.Sections[1].References[0])

	out := Render(d, EnglishTexts)
	assert.Contains(t, out, "- [2] guides/solar.md (Sid 12)")
	assert.Contains(t, out, "- [1] guides/solar.md (Sid 12)")
	assert.Contains(t, out, "- [2] kalmar/nature.md (Sid ?)")

	require.Len(t, a.calls, 2)
	assert.Equal(t, 7, a.calls[0].k)
	assert.Equal(t, EnglishTexts.Siting.Instruction, a.calls[0].instruction)
	assert.Equal(t, EnglishTexts.Environmental.Instruction, a.calls[1].instruction)
}

func TestGenerateQueriesUseFields(t *testing.T) {
	a := &scriptedAnswerer{}
	var slept []time.Duration
	p := newTestPipeline(a, &slept)

	_, err := p.Generate(context.Background(), types.ProjectFields{LandType: "pasture", NatureValues: "a bat colony"})
	require.NoError(t, err)
	require.Len(t, a.calls, 2)

	def := types.DefaultProjectFields()
	assert.Contains(t, a.calls[0].question, "pasture")
	assert.Contains(t, a.calls[0].question, def.Municipality)
	assert.Contains(t, a.calls[0].question, def.Size)
	assert.Contains(t, a.calls[1].question, "a bat colony")
}

func TestGenerateWaitsBetweenCalls(t *testing.T) {
	tests := []struct {
		name   string
		delay  time.Duration
		sleeps []time.Duration
	}{
		{"default", DefaultInterCallDelay, []time.Duration{DefaultInterCallDelay}},
		{"configured", 5 * time.Second, []time.Duration{5 * time.Second}},
		{"disabled", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &scriptedAnswerer{}
			var slept []time.Duration
			p := newTestPipeline(a, &slept, WithDelay(tt.delay))

			_, err := p.Generate(context.Background(), types.ProjectFields{})
			require.NoError(t, err)
			assert.Equal(t, tt.sleeps, slept)
			require.Len(t, a.calls, 2)
			assert.Equal(t, 0, a.calls[0].at)
			assert.Equal(t, len(tt.sleeps), a.calls[1].at)
		})
	}
}

func TestGenerateRealDelay(t *testing.T) {
	a := &scriptedAnswerer{sleeps: new(int)}
	p := NewPipeline(a, WithDelay(30*time.Millisecond))

	start := time.Now()
	_, err := p.Generate(context.Background(), types.ProjectFields{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestGenerateAbortsOnGenerationFailure(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantMsg   string
	}{
		{"siting", []error{errors.Join(answer.ErrGeneration, errors.New("quota"))}, 1, "siting section"},
		{"environmental", []error{nil, errors.Join(answer.ErrGeneration, errors.New("quota"))}, 2, "environmental section"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &scriptedAnswerer{errs: tt.errs}
			obs := &recordingObserver{}
			var slept []time.Duration
			p := newTestPipeline(a, &slept, WithObserver(obs))

			_, err := p.Generate(context.Background(), types.ProjectFields{})
			require.ErrorIs(t, err, answer.ErrGeneration)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Len(t, a.calls, tt.wantCalls)
			assert.Equal(t, []bool{false}, obs.ok)
		})
	}
}

func TestGenerateDegradedSection(t *testing.T) {
	degraded := types.Answer{Text: answer.English.Degraded, UsedPassages: []types.Passage{}}
	a := &scriptedAnswerer{
		replies: []types.Answer{degraded, {Text: "ok", UsedPassages: []types.Passage{lawPassage}}},
		errs:    []error{errors.Join(answer.ErrNotConfigured, errors.New("locked"))},
	}
	obs := &recordingObserver{}
	var slept []time.Duration
	p := newTestPipeline(a, &slept, WithObserver(obs))

	d, err := p.Generate(context.Background(), types.ProjectFields{})
	require.NoError(t, err)
	assert.Equal(t, answer.English.Degraded, d.Sections[0].Body)
	assert.NotNil(t, d.Sections[0].References)
	assert.Empty(t, d.Sections[0].References)
	assert.Len(t, d.Sections[1].References, 1)
	assert.Equal(t, []bool{true}, obs.ok)
}

func TestGenerateKeepsRefusalReferences(t *testing.T) {
	refusal := answer.English.RefusalPrefix + answer.English.RefusalSuffix
	a := &scriptedAnswerer{replies: []types.Answer{
		{Text: refusal, UsedPassages: []types.Passage{lawPassage}},
	}}
	var slept []time.Duration
	p := newTestPipeline(a, &slept)

	d, err := p.Generate(context.Background(), types.ProjectFields{})
	require.NoError(t, err)
	assert.Equal(t, []types.Passage{lawPassage}, d.Sections[0].References)
}

func TestRender(t *testing.T) {
	d := types.Draft{
		Title:     DefaultTitle,
		Project:   "Solpark Ekbacken",
		Timestamp: testNow,
		Sections: []types.DraftSection{
			{Heading: "1. SITING & LAND SELECTION", Body: "Body one.", References: []types.Passage{lawPassage}},
			{Heading: "2. ENVIRONMENTAL IMPACT AND MITIGATION MEASURES", Body: "Body two.", References: []types.Passage{}},
		},
	}
	want := strings.Join([]string{
		"# CONSULTATION NOTICE - DRAFT",
		"**Project:** Solpark Ekbacken",
		"**Date:** 2026-05-17",
		"",
		"---",
		"",
		"## 1. SITING & LAND SELECTION",
		"Body one.",
		"",
		"**References:**",
		"- [1] law/miljobalken.md (Sid 3)",
		"",
		"## 2. ENVIRONMENTAL IMPACT AND MITIGATION MEASURES",
		"Body two.",
		"",
		"**References:**",
		"",
	}, "\n")
	assert.Equal(t, want, Render(d, EnglishTexts))
}

func TestRenderSwedish(t *testing.T) {
	d := types.Draft{Title: "SAMRÅDSANMÄLAN - UTKAST", Project: "P", Timestamp: testNow,
		Sections: []types.DraftSection{{Heading: SwedishTexts.Siting.Heading, Body: "x"}}}
	out := Render(d, SwedishTexts)
	assert.Contains(t, out, "**Projekt:** P")
	assert.Contains(t, out, "**Datum:** 2026-05-17")
	assert.Contains(t, out, "## 1. LOKALISERING & MARKVAL")
	assert.Contains(t, out, "**Referenser:**")
}

func TestFileName(t *testing.T) {
	tests := []struct {
		project string
		want    string
	}{
		{"Solpark Ekbacken", "Application_Solpark_Ekbacken.md"},
		{"Park: North/South", "Application_Park_NorthSouth.md"},
		{"  ", "Application_Draft.md"},
	}
	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.project))
		})
	}
}

func TestLookupTexts(t *testing.T) {
	en, err := LookupTexts("")
	require.NoError(t, err)
	assert.Equal(t, EnglishTexts.Siting.Heading, en.Siting.Heading)

	sv, err := LookupTexts("sv")
	require.NoError(t, err)
	assert.Equal(t, "2. MILJÖPÅVERKAN OCH SKYDDSÅTGÄRDER", sv.Environmental.Heading)

	_, err = LookupTexts("de")
	assert.Error(t, err)
}

func TestLoadFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte("project_name: Solpark Väst\nsize: 12 hectares\n"), 0o644))

	f, err := LoadFields(path)
	require.NoError(t, err)
	assert.Equal(t, "Solpark Väst", f.ProjectName)
	assert.Equal(t, "12 hectares", f.Size)
	assert.Equal(t, types.DefaultProjectFields().LandType, f.LandType)

	_, err = LoadFields(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(":::bad\n"), 0o644))
	_, err = LoadFields(path)
	assert.Error(t, err)
}
